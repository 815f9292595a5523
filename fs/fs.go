// Package appfs embeds the files the binaries need at runtime: SQL migrations and email templates.
package appfs

import "embed"

//go:embed migrations templates templates/email/_base.gohtml templates/email/_base.txt
var FS embed.FS

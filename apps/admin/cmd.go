package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/degreeaudit/core"
	"github.com/trezcool/degreeaudit/core/user"
	"github.com/trezcool/degreeaudit/storage/database"
	sqlxrepos "github.com/trezcool/degreeaudit/storage/database/sqlx"
)

// commands annotated with needsDB get a database connection before they run
const needsDB = "needsDB"

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf       *core.Config
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer // defaults to stdout

	// set by connect, or by tests
	db     *sqlx.DB
	usrSvc *user.Service
}

func (cli *commandLine) connect() error {
	db, err := database.Open(context.Background(), cli.conf)
	if err != nil {
		return errors.Wrap(err, "connecting to database")
	}
	cli.db = db
	cli.usrSvc = user.NewService(sqlxrepos.NewUserRepository(db))
	return nil
}

func (cli *commandLine) close() {
	if cli.db != nil {
		if err := cli.db.Close(); err != nil {
			logger.Printf("closing database: %v", err)
		}
		cli.db = nil
	}
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "admin",
		Short: "Degree Audit administration",
		Long: `Manage the Degree Audit accounts and database,
and build academic plans from saved analysis responses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[needsDB] == "" || cli.db != nil {
				return nil
			}
			return cli.connect()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}

	root.AddCommand(cli.addUserCmd())
	root.AddCommand(cli.resetPasswordCmd())
	root.AddCommand(cli.migrateCmd())
	root.AddCommand(cli.planCmd())
	return root
}

// run executes the command line args, program name included.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	if cli.out != nil {
		root.SetOut(cli.out)
	}
	cmd, err := root.ExecuteC()
	if err != nil && err != errHelp && strings.Contains(err.Error(), "unknown command") {
		_ = cmd.Usage()
		return errHelp
	}
	return err
}

// promptPassword reads a password without echo. An empty answer is errHelp.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		_ = cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

// describe renders validation errors field by field.
func (cli *commandLine) describe(err error) string {
	var fields []string
	switch cause := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		for _, fe := range cause {
			fields = append(fields, fe.Field()+": "+fe.Translate(cli.translator))
		}
	case *core.ValidationError:
		for _, fe := range cause.Fields {
			fields = append(fields, fe.Field+": "+fe.Error)
		}
	}
	if len(fields) == 0 {
		return err.Error()
	}
	sort.Strings(fields)
	return strings.Join(fields, "\n")
}

package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/degreeaudit/core/user"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var uname string
	cmd := &cobra.Command{
		Use:         "resetpassword",
		Short:       "Reset a user's password; the new password is prompted",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{needsDB: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if uname == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := promptPassword(cmd, "Enter password:")
			if err != nil {
				return err
			}
			confirm, err := promptPassword(cmd, "Confirm password:")
			if err != nil {
				return err
			}
			if err := cli.resetPassword(context.Background(), uname, pwd, confirm); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password has been reset.")
			return nil
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "the user's username or email")
	return cmd
}

func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd, confirm string) error {
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	rp := user.NewResetUserPassword(usr, pwd, confirm)
	if err := rp.Validate(cli.validate); err != nil {
		return err
	}
	_, err = cli.usrSvc.ResetPassword(ctx, usr, rp)
	return errors.Wrap(err, "resetting password")
}

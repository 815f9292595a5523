package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/degreeaudit/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var nu user.NewUser
	cmd := &cobra.Command{
		Use:         "adduser",
		Short:       "Create an active user; the password is prompted",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{needsDB: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if nu.Name == "" || (nu.Username == "" && nu.Email == "") {
				_ = cmd.Usage()
				return errHelp
			}
			var err error
			if nu.Password, err = promptPassword(cmd, "Enter password:"); err != nil {
				return err
			}
			if nu.PasswordConfirm, err = promptPassword(cmd, "Confirm password:"); err != nil {
				return err
			}
			usr, err := cli.addUser(context.Background(), nu)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %q created (id: %s)\n", usr.Name, usr.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&nu.Name, "name", "", "the user's full name")
	cmd.Flags().StringVar(&nu.Username, "username", "", "the username (username or email is required)")
	cmd.Flags().StringVar(&nu.Email, "email", "", "the email address (username or email is required)")
	return cmd
}

func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser) (user.User, error) {
	if err := nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return user.User{}, err
	}
	usr, err := cli.usrSvc.Create(ctx, nu)
	return usr, errors.Wrap(err, "creating user")
}

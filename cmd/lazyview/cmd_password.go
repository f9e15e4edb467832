package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rebelice/lazyview/internal/db/credentials"
)

func newPasswordCmd(a *app) *cobra.Command {
	var conn connFlags

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Manage passwords stored in the system keyring",
	}
	conn.register(cmd.PersistentFlags())

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Store the password read from stdin for a connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := conn.connectionConfig(cmd, a)

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				return fmt.Errorf("password cannot be empty")
			}

			store, err := credentials.NewPasswordStore(a.configDir)
			if err != nil {
				return err
			}
			if err := store.Save(cfg.Host, cfg.Port, cfg.Database, cfg.User, password); err != nil {
				return err
			}
			if store.IsUsingFallback() {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "No system keyring available, password stored in an encrypted file")
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Stored password for %s\n", cfg)
			return err
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored password of a connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := conn.connectionConfig(cmd, a)
			store, err := credentials.NewPasswordStore(a.configDir)
			if err != nil {
				return err
			}
			if err := store.Delete(cfg.Host, cfg.Port, cfg.Database, cfg.User); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted password for %s\n", cfg)
			return err
		},
	}

	cmd.AddCommand(setCmd, deleteCmd)
	return cmd
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/mailchat/internal/credential"
)

// secretKeys maps the names accepted by "token set --name" to keyring keys.
var secretKeys = map[string]string{
	"bearer": credential.KeyBearerToken,
	"imap":   credential.KeyIMAPPassword,
	"claude": credential.KeyClaudeAPIKey,
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage stored credentials",
	}

	var name string
	setCmd := &cobra.Command{
		Use:   "set [value]",
		Short: "Store a credential in the keyring (reads stdin when no value is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := secretKey(name)
			if err != nil {
				return err
			}

			value := ""
			if len(args) == 1 {
				value = args[0]
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "Enter %s: ", name)
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading %s: %w", name, err)
				}
				value = line
			}

			value = strings.TrimSpace(value)
			if value == "" {
				return errors.New("empty value")
			}

			creds, err := credential.Open()
			if err != nil {
				return err
			}
			if err := creds.Set(key, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s.\n", name)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove a credential from the keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := secretKey(name)
			if err != nil {
				return err
			}
			creds, err := credential.Open()
			if err != nil {
				return err
			}
			if err := creds.Delete(key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s.\n", name)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&name, "name", "bearer", "credential: bearer, imap or claude")
	cmd.AddCommand(setCmd, clearCmd)
	return cmd
}

func secretKey(name string) (string, error) {
	key, ok := secretKeys[name]
	if !ok {
		return "", fmt.Errorf("unknown credential %q (want bearer, imap or claude)", name)
	}
	return key, nil
}

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/aeye-cli/internal/domain"
)

func newLoginCmd(app *app) *cobra.Command {
	var (
		username      string
		password      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session credential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := readPassword(cmd.InOrStdin(), password, passwordStdin)
			if err != nil {
				return err
			}

			session, err := app.auth.Login(cmd.Context(), username, secret)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			role, _ := session.Role()
			if _, err := fmt.Fprintf(out, "Logged in as %s (%s)\n", session.Claims.Subject, role.Short()); err != nil {
				return err
			}

			decision := app.guard.Evaluate(session, domain.PathRoot)
			if decision.Kind == domain.DecisionAllow {
				app.nav.Navigate(decision.Target)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func newRegisterCmd(app *app) *cobra.Command {
	var (
		registration  domain.Registration
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if passwordStdin {
				secret, err := readPassword(cmd.InOrStdin(), "", true)
				if err != nil {
					return err
				}
				registration.Password = secret
				if registration.ConfirmPassword == "" {
					registration.ConfirmPassword = secret
				}
			}

			if err := app.auth.Register(cmd.Context(), registration); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Registered %s. Sign in with `aeye login -u %s`.\n", strings.TrimSpace(registration.Username), strings.TrimSpace(registration.Username))
			return err
		},
	}

	cmd.Flags().StringVarP(&registration.Username, "username", "u", "", "Account username")
	cmd.Flags().StringVar(&registration.PhoneNumber, "phone", "", "Phone number")
	cmd.Flags().StringVarP(&registration.Password, "password", "p", "", "Account password")
	cmd.Flags().StringVar(&registration.ConfirmPassword, "confirm-password", "", "Repeat the password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin and use it as confirmation unless --confirm-password is set")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func readPassword(in io.Reader, flagValue string, fromStdin bool) (string, error) {
	if !fromStdin {
		return flagValue, nil
	}
	if flagValue != "" {
		return "", errors.New("--password and --password-stdin are mutually exclusive")
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

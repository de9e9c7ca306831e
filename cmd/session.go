package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/aeye-cli/internal/domain"
)

type sessionView struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type sessionOutput struct {
	Status  domain.SessionStatus `json:"status"`
	Subject string               `json:"subject,omitempty"`
	Role    string               `json:"role,omitempty"`
	Views   []sessionView        `json:"views"`
}

func newSessionCmd(app *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show the current session and the views it can open",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session := app.sessions.Session()

			output := sessionOutput{Status: session.Status, Views: []sessionView{}}
			if role, ok := session.Role(); ok {
				output.Subject = session.Claims.Subject
				output.Role = role.Short()
			}
			for _, view := range app.guard.NavigableViews(session) {
				output.Views = append(output.Views, sessionView{Name: view.Name, Path: view.Path})
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				encoded, err := json.MarshalIndent(output, "", "  ")
				if err != nil {
					return fmt.Errorf("encode session: %w", err)
				}
				_, err = fmt.Fprintln(out, string(encoded))
				return err
			}

			if _, err := fmt.Fprintf(out, "status: %s\n", output.Status); err != nil {
				return err
			}
			if output.Subject == "" {
				_, err := fmt.Fprintln(out, "Not signed in. Run `aeye login`.")
				return err
			}
			if _, err := fmt.Fprintf(out, "user: %s\nrole: %s\nviews:\n", output.Subject, output.Role); err != nil {
				return err
			}
			for _, view := range output.Views {
				if _, err := fmt.Fprintf(out, "  %-10s %s\n", view.Name, view.Path); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the session as JSON")

	return cmd
}

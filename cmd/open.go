package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/aeye-cli/internal/domain"
)

func newOpenCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Check whether the current session may open a view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decision := app.guard.Evaluate(app.sessions.Session(), args[0])

			out := cmd.OutOrStdout()
			switch decision.Kind {
			case domain.DecisionWait:
				_, err := fmt.Fprintln(out, "wait: session is still initializing")
				return err
			case domain.DecisionAllow:
				view, _ := app.guard.View(decision.Target)
				_, err := fmt.Fprintf(out, "allow %s (%s)\n", decision.Target, view.Name)
				return err
			default:
				_, err := fmt.Fprintf(out, "%s %s\n", decision.Kind, decision.Target)
				return err
			}
		},
	}
}

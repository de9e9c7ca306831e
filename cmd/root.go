package cmd

import (
	"github.com/spf13/cobra"
)

const skipWireAnnotation = "aeye.skip_wire"

func Execute() error {
	rootCmd, app := newRootCmd()
	defer app.close()

	return rootCmd.Execute()
}

// newRootCmd returns the command tree and the app it wires on first use.
// The caller closes the app once the command has run, whatever its outcome.
func newRootCmd() (*cobra.Command, *app) {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "aeye",
		Short:         "Aeye CCTV client: sign in, check access and watch live camera feeds",
		Long:          "aeye signs in to an Aeye backend, keeps the session credential locally, decides which views the signed-in role may open and polls camera feeds into a live terminal board.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipWireAnnotation] == "true" {
				return nil
			}
			if err := app.wire(cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
				return err
			}
			app.sessions.Restore(cmd.Context())
			return nil
		},
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newRegisterCmd(app),
		newLogoutCmd(app),
		newSessionCmd(app),
		newOpenCmd(app),
		newFeedCmd(app),
	)

	return rootCmd, app
}

package cli

import (
	"github.com/spf13/cobra"
)

// NewReconcileCommand creates the reconcile command, which runs one
// shopping-list reconciliation pass for a user.
func NewReconcileCommand(opts *RootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile a user's shopping list against plans and pantry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			items, err := app.Reconciler.AddMissingIngredients(cmd.Context(), userID)
			if err != nil {
				return WrapExitError(ExitFailure, "reconcile", err)
			}

			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return f.Success(items)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.MarkFlagRequired("user")

	return cmd
}

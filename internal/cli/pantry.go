package cli

import (
	"github.com/spf13/cobra"

	"github.com/grocerly/grocerly/internal/reconcile"
)

// NewPantryCommand creates the pantry command group.
func NewPantryCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pantry",
		Short: "Manage pantry stock",
	}
	cmd.AddCommand(newPantryAddCommand(opts))
	return cmd
}

// newPantryAddCommand records a newly acquired ingredient quantity and
// deducts it from outstanding shopping-list rows.
func newPantryAddCommand(opts *RootOptions) *cobra.Command {
	var (
		userID   string
		name     string
		quantity float64
		unit     string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an ingredient quantity to the pantry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			add := reconcile.PantryAdd{Name: name, Quantity: quantity, Unit: unit}
			if err := app.Reconciler.AddToPantry(cmd.Context(), userID, add); err != nil {
				return WrapExitError(ExitFailure, "add to pantry", err)
			}

			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return f.Success(map[string]any{
				"name":     name,
				"quantity": quantity,
				"unit":     unit,
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&name, "name", "", "ingredient name (required)")
	cmd.Flags().Float64Var(&quantity, "quantity", 0, "quantity acquired (required)")
	cmd.Flags().StringVar(&unit, "unit", "", "unit of measure")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("quantity")

	return cmd
}

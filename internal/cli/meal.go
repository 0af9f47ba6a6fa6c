package cli

import (
	"github.com/spf13/cobra"

	"github.com/grocerly/grocerly/internal/rowstore"
)

// NewMealCommand creates the meal command group.
func NewMealCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meal",
		Short: "Manage planned meals",
	}
	cmd.AddCommand(newMealDoneCommand(opts))
	return cmd
}

// newMealDoneCommand marks a planned meal as done: records it in meal
// history and consumes the recipe's ingredients from the pantry.
func newMealDoneCommand(opts *RootOptions) *cobra.Command {
	var (
		userID   string
		recipeID string
		date     string
		mealType string
	)

	cmd := &cobra.Command{
		Use:   "done",
		Short: "Mark a planned meal as done",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			row := rowstore.Row{
				"user_id":   userID,
				"recipe_id": recipeID,
				"meal_date": date,
				"meal_type": mealType,
			}
			if err := app.Store.InsertMany(cmd.Context(), "meal_history", []rowstore.Row{row}); err != nil {
				return WrapExitError(ExitFailure, "record meal history", err)
			}

			if err := app.Reconciler.DeductIngredientsForRecipe(cmd.Context(), userID, recipeID); err != nil {
				return WrapExitError(ExitFailure, "deduct ingredients", err)
			}

			f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return f.Success(map[string]string{
				"recipe_id": recipeID,
				"meal_date": date,
				"meal_type": mealType,
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&recipeID, "recipe", "", "recipe id (required)")
	cmd.Flags().StringVar(&date, "date", "", "meal date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&mealType, "type", "dinner", "meal type")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("recipe")
	cmd.MarkFlagRequired("date")

	return cmd
}

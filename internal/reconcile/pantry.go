package reconcile

import (
	"context"

	"github.com/grocerly/grocerly/internal/rowstore"
)

// PantryAdd is a new ingredient quantity reported by the user.
type PantryAdd struct {
	Name     string
	Quantity float64
	Unit     string
}

// AddToPantry records a newly acquired ingredient quantity.
//
// If a pantry row exists for the name (case-insensitive), its quantity is
// replaced with existing+added and its unit updated to the incoming unit
// when one is provided; otherwise a new row is inserted. Afterwards the
// same quantity is deducted from the shopping list, so adding to the pantry
// simultaneously reduces outstanding shopping need.
func (r *Reconciler) AddToPantry(ctx context.Context, userID string, add PantryAdd) error {
	rows, err := r.store.Select(ctx, tablePantry, rowstore.Eq("user_id", userID))
	if err != nil {
		return err
	}

	key := foldKey(add.Name)
	var existing *PantryItem
	for _, row := range rows {
		item := pantryItemFromRow(row)
		if foldKey(item.Name) == key {
			existing = &item
			break
		}
	}

	if existing != nil {
		patch := rowstore.Row{"quantity": existing.Quantity + add.Quantity}
		if add.Unit != "" {
			patch["unit"] = add.Unit
		}
		if err := r.store.UpdateWhere(ctx, tablePantry, patch,
			rowstore.Eq("id", existing.ID)); err != nil {
			return err
		}
	} else {
		row := rowstore.Row{
			"user_id":         userID,
			"ingredient_name": add.Name,
			"quantity":        add.Quantity,
			"unit":            add.Unit,
		}
		if err := r.store.InsertMany(ctx, tablePantry, []rowstore.Row{row}); err != nil {
			return err
		}
	}

	return r.DeductFromShoppingList(ctx, userID, add.Name, add.Quantity, add.Unit)
}

// DeductFromShoppingList consumes a newly acquired quantity against the
// user's outstanding shopping-list rows for the ingredient.
//
// Rows are walked in store order (oldest first). A row whose quantity fits
// entirely within the remaining amount is deleted; the first row that
// doesn't is reduced in place and the walk stops. Rows past that point are
// untouched. The unit parameter is carried for interface symmetry with
// AddToPantry; matching is by name only.
func (r *Reconciler) DeductFromShoppingList(ctx context.Context, userID, name string, quantity float64, unit string) error {
	_ = unit
	if quantity <= 0 {
		return nil
	}

	rows, err := r.store.Select(ctx, tableShopping, rowstore.Eq("user_id", userID))
	if err != nil {
		return err
	}

	key := foldKey(name)
	remaining := quantity
	var deleteIDs []any
	var reduceID int64
	var reduceTo float64
	reduce := false

	for _, row := range rows {
		if remaining <= epsilon {
			break
		}
		item := shoppingItemFromRow(row)
		if foldKey(item.Name) != key {
			continue
		}
		if item.Quantity <= remaining+epsilon {
			deleteIDs = append(deleteIDs, item.ID)
			remaining -= item.Quantity
			continue
		}
		reduceID = item.ID
		reduceTo = item.Quantity - remaining
		reduce = true
		remaining = 0
	}

	if len(deleteIDs) > 0 {
		if err := r.store.DeleteWhere(ctx, tableShopping,
			rowstore.Eq("user_id", userID), rowstore.In("id", deleteIDs...)); err != nil {
			return err
		}
	}
	if reduce {
		if err := r.store.UpdateWhere(ctx, tableShopping,
			rowstore.Row{"quantity": reduceTo}, rowstore.Eq("id", reduceID)); err != nil {
			return err
		}
	}

	return nil
}

// DeductIngredientsForRecipe consumes a recipe's requirements from the
// pantry when a meal is marked done.
//
// For every ingredient the recipe requires, the matching pantry row (by
// case-insensitive name) is reduced by the required quantity. A row whose
// quantity would drop to zero or below is deleted entirely; quantities
// never go negative. Ingredients with no pantry row are skipped.
func (r *Reconciler) DeductIngredientsForRecipe(ctx context.Context, userID, recipeID string) error {
	ingredientRows, err := r.store.Select(ctx, tableIngredients, rowstore.Eq("recipe_id", recipeID))
	if err != nil {
		return err
	}
	if len(ingredientRows) == 0 {
		return nil
	}

	pantryRows, err := r.store.Select(ctx, tablePantry, rowstore.Eq("user_id", userID))
	if err != nil {
		return err
	}
	byKey := make(map[string]PantryItem, len(pantryRows))
	for _, row := range pantryRows {
		item := pantryItemFromRow(row)
		byKey[foldKey(item.Name)] = item
	}

	for _, row := range ingredientRows {
		ing := ingredientFromRow(row)
		item, ok := byKey[foldKey(ing.Name)]
		if !ok {
			continue
		}
		left := item.Quantity - ing.Quantity
		if left > epsilon {
			if err := r.store.UpdateWhere(ctx, tablePantry,
				rowstore.Row{"quantity": left}, rowstore.Eq("id", item.ID)); err != nil {
				return err
			}
			item.Quantity = left
			byKey[foldKey(ing.Name)] = item
		} else {
			if err := r.store.DeleteWhere(ctx, tablePantry,
				rowstore.Eq("id", item.ID)); err != nil {
				return err
			}
			delete(byKey, foldKey(ing.Name))
		}
	}

	return nil
}

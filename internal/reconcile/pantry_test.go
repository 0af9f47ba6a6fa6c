package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerly/grocerly/internal/rowstore"
)

func TestAddToPantry_MergesIntoExistingRow(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	seedPantry(t, store, "u1", "Banana", 5, "pcs")

	err := r.AddToPantry(ctx, "u1", PantryAdd{Name: "banana", Quantity: 3, Unit: "pcs"})
	require.NoError(t, err)

	rows, err := store.Select(ctx, tablePantry, rowstore.Eq("user_id", "u1"))
	require.NoError(t, err)
	require.Len(t, rows, 1, "case-insensitive match must update, never insert a duplicate")

	item := pantryItemFromRow(rows[0])
	assert.Equal(t, "Banana", item.Name, "original spelling kept")
	assert.Equal(t, 8.0, item.Quantity)
}

func TestAddToPantry_InsertsWhenMissing(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	err := r.AddToPantry(ctx, "u1", PantryAdd{Name: "Milk", Quantity: 1, Unit: "l"})
	require.NoError(t, err)

	rows, err := store.Select(ctx, tablePantry, rowstore.Eq("user_id", "u1"))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	item := pantryItemFromRow(rows[0])
	assert.Equal(t, "Milk", item.Name)
	assert.Equal(t, 1.0, item.Quantity)
	assert.Equal(t, "l", item.Unit)
}

func TestAddToPantry_DoesNotTouchOtherUsers(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	seedPantry(t, store, "u2", "Banana", 5, "pcs")

	err := r.AddToPantry(ctx, "u1", PantryAdd{Name: "Banana", Quantity: 3, Unit: "pcs"})
	require.NoError(t, err)

	rows, err := store.Select(ctx, tablePantry, rowstore.Eq("user_id", "u2"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 5.0, pantryItemFromRow(rows[0]).Quantity)
}

func TestAddToPantry_DeductsFromShoppingList(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	require.NoError(t, store.InsertMany(ctx, tableShopping, []rowstore.Row{
		{"user_id": "u1", "ingredient_name": "Egg", "quantity": 2.0, "unit": "pcs", "meal_plan_id": "p1"},
		{"user_id": "u1", "ingredient_name": "Egg", "quantity": 3.0, "unit": "pcs", "meal_plan_id": "p2"},
	}))

	err := r.AddToPantry(ctx, "u1", PantryAdd{Name: "Egg", Quantity: 4, Unit: "pcs"})
	require.NoError(t, err)

	rows, err := store.Select(ctx, tableShopping, rowstore.Eq("user_id", "u1"))
	require.NoError(t, err)
	require.Len(t, rows, 1, "first row consumed whole, second reduced")

	item := shoppingItemFromRow(rows[0])
	assert.Equal(t, "p2", item.MealPlanID)
	assert.Equal(t, 1.0, item.Quantity)
}

func TestDeductFromShoppingList_StopsAtPartialRow(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	require.NoError(t, store.InsertMany(ctx, tableShopping, []rowstore.Row{
		{"user_id": "u1", "ingredient_name": "Egg", "quantity": 2.0, "unit": "pcs", "meal_plan_id": "p1"},
		{"user_id": "u1", "ingredient_name": "Egg", "quantity": 3.0, "unit": "pcs", "meal_plan_id": "p2"},
		{"user_id": "u1", "ingredient_name": "Egg", "quantity": 5.0, "unit": "pcs", "meal_plan_id": "p3"},
	}))

	require.NoError(t, r.DeductFromShoppingList(ctx, "u1", "egg", 3, "pcs"))

	rows, err := store.Select(ctx, tableShopping, rowstore.Eq("user_id", "u1"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := shoppingItemFromRow(rows[0])
	assert.Equal(t, "p2", first.MealPlanID)
	assert.Equal(t, 2.0, first.Quantity, "partial row reduced in place")

	second := shoppingItemFromRow(rows[1])
	assert.Equal(t, 5.0, second.Quantity, "rows past the stop point untouched")
}

func TestDeductFromShoppingList_SkipsOtherIngredients(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	require.NoError(t, store.InsertMany(ctx, tableShopping, []rowstore.Row{
		{"user_id": "u1", "ingredient_name": "Milk", "quantity": 1.0, "unit": "l", "meal_plan_id": ""},
		{"user_id": "u1", "ingredient_name": "Egg", "quantity": 2.0, "unit": "pcs", "meal_plan_id": ""},
	}))

	require.NoError(t, r.DeductFromShoppingList(ctx, "u1", "Egg", 2, "pcs"))

	rows, err := store.Select(ctx, tableShopping, rowstore.Eq("user_id", "u1"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Milk", shoppingItemFromRow(rows[0]).Name)
}

func TestDeductFromShoppingList_ZeroQuantityIsNoOp(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	require.NoError(t, store.InsertMany(ctx, tableShopping, []rowstore.Row{
		{"user_id": "u1", "ingredient_name": "Egg", "quantity": 2.0, "unit": "pcs", "meal_plan_id": ""},
	}))

	require.NoError(t, r.DeductFromShoppingList(ctx, "u1", "Egg", 0, "pcs"))

	rows, err := store.Select(ctx, tableShopping, rowstore.Eq("user_id", "u1"))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestDeductIngredientsForRecipe(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	seedPantry(t, store, "u1", "Egg", 3, "pcs")
	seedPantry(t, store, "u1", "Milk", 1, "l")
	seedIngredient(t, store, "pancakes", "Egg", 2, "pcs")
	seedIngredient(t, store, "pancakes", "Milk", 2, "l")
	seedIngredient(t, store, "pancakes", "Vanilla", 1, "pcs") // not in pantry

	require.NoError(t, r.DeductIngredientsForRecipe(ctx, "u1", "pancakes"))

	rows, err := store.Select(ctx, tablePantry, rowstore.Eq("user_id", "u1"))
	require.NoError(t, err)
	require.Len(t, rows, 1, "milk row drops to zero and is deleted, vanilla skipped")

	item := pantryItemFromRow(rows[0])
	assert.Equal(t, "Egg", item.Name)
	assert.Equal(t, 1.0, item.Quantity)
}

func TestDeductIngredientsForRecipe_UnknownRecipeIsNoOp(t *testing.T) {
	r, store := newTestReconciler(t)
	ctx := context.Background()

	seedPantry(t, store, "u1", "Egg", 3, "pcs")

	require.NoError(t, r.DeductIngredientsForRecipe(ctx, "u1", "no-such-recipe"))

	rows, err := store.Select(ctx, tablePantry, rowstore.Eq("user_id", "u1"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3.0, pantryItemFromRow(rows[0]).Quantity)
}

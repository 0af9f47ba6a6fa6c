package reconcile

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/grocerly/grocerly/internal/rowstore"
)

// Table names in the row store.
const (
	tablePantry      = "pantry_items"
	tableMealPlans   = "meal_plans"
	tableMealHistory = "meal_history"
	tableIngredients = "recipe_ingredients"
	tableShopping    = "shopping_list"
)

// PantryItem is one ingredient quantity a user has on hand.
type PantryItem struct {
	ID       int64
	UserID   string
	Name     string
	Quantity float64
	Unit     string
}

// MealPlan is one planned meal: a recipe on a date for a meal type.
type MealPlan struct {
	ID       string
	UserID   string
	RecipeID string
	Date     string // YYYY-MM-DD
	Type     string
}

// doneKey identifies a plan occurrence in meal history.
func (p MealPlan) doneKey() string {
	return p.RecipeID + "_" + p.Date + "_" + p.Type
}

// HistoryEntry records a meal already marked done.
type HistoryEntry struct {
	UserID   string
	RecipeID string
	Date     string
	Type     string
}

func (h HistoryEntry) doneKey() string {
	return h.RecipeID + "_" + h.Date + "_" + h.Type
}

// Ingredient is one requirement row of a recipe.
type Ingredient struct {
	RecipeID string
	Name     string
	Quantity float64
	Unit     string
}

// ShoppingItem is one row of a user's shopping list.
type ShoppingItem struct {
	ID         int64
	UserID     string
	Name       string
	Quantity   float64
	Unit       string
	MealPlanID string // empty for rows not tied to a plan
}

// ShoppingAdd is a shopping-list row the reconciler decided to create.
type ShoppingAdd struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	MealPlanID string  `json:"meal_plan_id"`
}

// Plan is the computed delta of one reconciliation pass: rows to insert and
// ids of outdated rows to delete. It exists only within the pass and is
// exposed for observability and snapshot tests.
type Plan struct {
	Adds      []ShoppingAdd `json:"adds"`
	RemoveIDs []int64       `json:"remove_ids"`
}

// foldKey canonicalizes an ingredient name for case-insensitive matching.
// cases.Caser carries state, so a fresh folder is built per call.
func foldKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Row decoding helpers. The row store returns driver-typed values
// (int64/float64/string); these normalize them onto the typed structs.

func rowString(row rowstore.Row, col string) string {
	switch v := row[col].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func rowFloat(row rowstore.Row, col string) float64 {
	switch v := row[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

func rowInt64(row rowstore.Row, col string) int64 {
	switch v := row[col].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

func pantryItemFromRow(row rowstore.Row) PantryItem {
	return PantryItem{
		ID:       rowInt64(row, "id"),
		UserID:   rowString(row, "user_id"),
		Name:     rowString(row, "ingredient_name"),
		Quantity: rowFloat(row, "quantity"),
		Unit:     rowString(row, "unit"),
	}
}

func mealPlanFromRow(row rowstore.Row) MealPlan {
	return MealPlan{
		ID:       rowString(row, "id"),
		UserID:   rowString(row, "user_id"),
		RecipeID: rowString(row, "recipe_id"),
		Date:     rowString(row, "meal_date"),
		Type:     rowString(row, "meal_type"),
	}
}

func historyFromRow(row rowstore.Row) HistoryEntry {
	return HistoryEntry{
		UserID:   rowString(row, "user_id"),
		RecipeID: rowString(row, "recipe_id"),
		Date:     rowString(row, "meal_date"),
		Type:     rowString(row, "meal_type"),
	}
}

func ingredientFromRow(row rowstore.Row) Ingredient {
	return Ingredient{
		RecipeID: rowString(row, "recipe_id"),
		Name:     rowString(row, "ingredient_name"),
		Quantity: rowFloat(row, "quantity"),
		Unit:     rowString(row, "unit"),
	}
}

func shoppingItemFromRow(row rowstore.Row) ShoppingItem {
	return ShoppingItem{
		ID:         rowInt64(row, "id"),
		UserID:     rowString(row, "user_id"),
		Name:       rowString(row, "ingredient_name"),
		Quantity:   rowFloat(row, "quantity"),
		Unit:       rowString(row, "unit"),
		MealPlanID: rowString(row, "meal_plan_id"),
	}
}

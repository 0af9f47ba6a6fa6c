package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// planFixture is one buildPlan input set whose computed delta is snapshotted.
type planFixture struct {
	pantry      []PantryItem
	active      []MealPlan
	ingredients []Ingredient
	shopping    []ShoppingItem
}

func TestBuildPlan_Golden(t *testing.T) {
	fixtures := map[string]planFixture{
		"egg_shortfall": {
			pantry: []PantryItem{
				{ID: 1, UserID: "u1", Name: "Egg", Quantity: 1, Unit: "pcs"},
			},
			active: []MealPlan{
				{ID: "p1", UserID: "u1", RecipeID: "omelette", Date: "2026-08-31", Type: "breakfast"},
			},
			ingredients: []Ingredient{
				{RecipeID: "omelette", Name: "Egg", Quantity: 2, Unit: "pcs"},
			},
		},
		"fully_stocked": {
			pantry: []PantryItem{
				{ID: 1, UserID: "u1", Name: "Egg", Quantity: 6, Unit: "pcs"},
			},
			active: []MealPlan{
				{ID: "p1", UserID: "u1", RecipeID: "omelette", Date: "2026-08-31", Type: "breakfast"},
			},
			ingredients: []Ingredient{
				{RecipeID: "omelette", Name: "Egg", Quantity: 2, Unit: "pcs"},
			},
		},
		"week_of_meals": {
			pantry: []PantryItem{
				{ID: 1, UserID: "u1", Name: "Egg", Quantity: 1, Unit: "pcs"},
				{ID: 2, UserID: "u1", Name: "Flour", Quantity: 200, Unit: "g"},
			},
			active: []MealPlan{
				{ID: "p1", UserID: "u1", RecipeID: "pancakes", Date: "2026-08-31", Type: "breakfast"},
				{ID: "p2", UserID: "u1", RecipeID: "omelette", Date: "2026-09-01", Type: "breakfast"},
				{ID: "p3", UserID: "u1", RecipeID: "pancakes", Date: "2026-09-02", Type: "breakfast"},
			},
			ingredients: []Ingredient{
				{RecipeID: "pancakes", Name: "Flour", Quantity: 500, Unit: "g"},
				{RecipeID: "pancakes", Name: "Milk", Quantity: 0.5, Unit: "l"},
				{RecipeID: "omelette", Name: "Egg", Quantity: 3, Unit: "pcs"},
				{RecipeID: "omelette", Name: "Milk", Quantity: 0.2, Unit: "l"},
			},
			shopping: []ShoppingItem{
				// Already covered by an earlier pass.
				{ID: 7, UserID: "u1", Name: "Milk", Quantity: 0.5, Unit: "l", MealPlanID: "p1"},
				// Tied to a plan that no longer exists.
				{ID: 9, UserID: "u1", Name: "Butter", Quantity: 1, Unit: "pcs", MealPlanID: "stale"},
			},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for name, fix := range fixtures {
		t.Run(name, func(t *testing.T) {
			valid := make(map[string]struct{}, len(fix.active))
			for _, plan := range fix.active {
				valid[plan.ID] = struct{}{}
			}

			plan := buildPlan(fix.pantry, fix.active, fix.ingredients, fix.shopping, valid)

			data, err := json.MarshalIndent(plan, "", "  ")
			require.NoError(t, err)
			g.Assert(t, name, append(data, '\n'))
		})
	}
}

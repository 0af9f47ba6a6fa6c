package reconcile

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/grocerly/grocerly/internal/rowstore"
)

// DefaultWindowDays is the forward-looking reconciliation window:
// today plus the next six calendar days, inclusive.
const DefaultWindowDays = 7

// quantity comparisons tolerate float noise from summing recipe rows
const epsilon = 1e-9

// Reconciler computes and applies shopping-list deltas against a row store.
type Reconciler struct {
	store  rowstore.Client
	log    *slog.Logger
	now    func() time.Time
	window int

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-user advisory locks
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the reconciler's logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Reconciler) { r.log = log }
}

// WithClock injects the time source that anchors the date window.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithWindowDays overrides the reconciliation window length.
func WithWindowDays(days int) Option {
	return func(r *Reconciler) {
		if days >= 1 {
			r.window = days
		}
	}
}

// New creates a Reconciler over the given row store.
func New(store rowstore.Client, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  store,
		log:    slog.Default(),
		now:    time.Now,
		window: DefaultWindowDays,
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// userLock returns the advisory lock serializing passes for one user.
func (r *Reconciler) userLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[userID] = lock
	}
	return lock
}

// windowDates returns the target dates in YYYY-MM-DD form:
// today, today+1, ..., today+window-1.
func (r *Reconciler) windowDates() []string {
	today := r.now()
	dates := make([]string, r.window)
	for i := range dates {
		dates[i] = today.AddDate(0, 0, i).Format("2006-01-02")
	}
	return dates
}

// AddMissingIngredients runs one reconciliation pass for the user and
// returns the refreshed shopping list.
//
// The pass aborts as a no-op (nil list, nil error) when any read phase
// shows there is nothing to do: no pantry data, no meal plans in the
// window, or no plans left after removing meals already marked done.
//
// Read or write failures abort the pass and surface to the caller; batched
// writes applied before the failure stay in place.
func (r *Reconciler) AddMissingIngredients(ctx context.Context, userID string) ([]ShoppingItem, error) {
	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	dates := r.windowDates()

	pantryRows, err := r.store.Select(ctx, tablePantry, rowstore.Eq("user_id", userID))
	if err != nil {
		return nil, err
	}
	if len(pantryRows) == 0 {
		r.log.Debug("reconcile: no pantry data", "user", userID)
		return nil, nil
	}
	pantry := make([]PantryItem, len(pantryRows))
	for i, row := range pantryRows {
		pantry[i] = pantryItemFromRow(row)
	}

	dateVals := make([]any, len(dates))
	for i, d := range dates {
		dateVals[i] = d
	}
	planRows, err := r.store.Select(ctx, tableMealPlans,
		rowstore.Eq("user_id", userID), rowstore.In("meal_date", dateVals...))
	if err != nil {
		return nil, err
	}
	if len(planRows) == 0 {
		r.log.Debug("reconcile: no meal plans in window", "user", userID)
		return nil, nil
	}
	plans := make([]MealPlan, len(planRows))
	for i, row := range planRows {
		plans[i] = mealPlanFromRow(row)
	}

	historyRows, err := r.store.Select(ctx, tableMealHistory, rowstore.Eq("user_id", userID))
	if err != nil {
		return nil, err
	}
	done := make(map[string]struct{}, len(historyRows))
	for _, row := range historyRows {
		done[historyFromRow(row).doneKey()] = struct{}{}
	}

	active := make([]MealPlan, 0, len(plans))
	for _, plan := range plans {
		if _, ok := done[plan.doneKey()]; !ok {
			active = append(active, plan)
		}
	}
	if len(active) == 0 {
		r.log.Debug("reconcile: all planned meals already done", "user", userID)
		return nil, nil
	}

	recipeIDs := distinctRecipeIDs(active)
	idVals := make([]any, len(recipeIDs))
	for i, id := range recipeIDs {
		idVals[i] = id
	}
	ingredientRows, err := r.store.Select(ctx, tableIngredients, rowstore.In("recipe_id", idVals...))
	if err != nil {
		return nil, err
	}
	ingredients := make([]Ingredient, len(ingredientRows))
	for i, row := range ingredientRows {
		ingredients[i] = ingredientFromRow(row)
	}

	shoppingRows, err := r.store.Select(ctx, tableShopping, rowstore.Eq("user_id", userID))
	if err != nil {
		return nil, err
	}
	shopping := make([]ShoppingItem, len(shoppingRows))
	for i, row := range shoppingRows {
		shopping[i] = shoppingItemFromRow(row)
	}

	validPlanIDs := make(map[string]struct{}, len(plans))
	for _, plan := range plans {
		validPlanIDs[plan.ID] = struct{}{}
	}

	plan := buildPlan(pantry, active, ingredients, shopping, validPlanIDs)

	if len(plan.Adds) > 0 {
		rows := make([]rowstore.Row, len(plan.Adds))
		for i, add := range plan.Adds {
			rows[i] = rowstore.Row{
				"user_id":         userID,
				"ingredient_name": add.Name,
				"quantity":        add.Quantity,
				"unit":            add.Unit,
				"meal_plan_id":    add.MealPlanID,
			}
		}
		if err := r.store.InsertMany(ctx, tableShopping, rows); err != nil {
			return nil, err
		}
	}

	if len(plan.RemoveIDs) > 0 {
		ids := make([]any, len(plan.RemoveIDs))
		for i, id := range plan.RemoveIDs {
			ids[i] = id
		}
		if err := r.store.DeleteWhere(ctx, tableShopping,
			rowstore.Eq("user_id", userID), rowstore.In("id", ids...)); err != nil {
			return nil, err
		}
	}

	r.log.Info("reconcile pass applied",
		"user", userID, "added", len(plan.Adds), "removed", len(plan.RemoveIDs))

	return r.shoppingList(ctx, userID)
}

// shoppingList re-fetches the user's current shopping list.
func (r *Reconciler) shoppingList(ctx context.Context, userID string) ([]ShoppingItem, error) {
	rows, err := r.store.Select(ctx, tableShopping, rowstore.Eq("user_id", userID))
	if err != nil {
		return nil, err
	}
	items := make([]ShoppingItem, len(rows))
	for i, row := range rows {
		items[i] = shoppingItemFromRow(row)
	}
	return items, nil
}

// distinctRecipeIDs returns the recipe ids referenced by the plans,
// first-occurrence order preserved.
func distinctRecipeIDs(plans []MealPlan) []string {
	seen := make(map[string]struct{}, len(plans))
	ids := make([]string, 0, len(plans))
	for _, plan := range plans {
		if _, ok := seen[plan.RecipeID]; ok {
			continue
		}
		seen[plan.RecipeID] = struct{}{}
		ids = append(ids, plan.RecipeID)
	}
	return ids
}

// ingredientNeed aggregates one recipe's requirement for one ingredient key.
type ingredientNeed struct {
	name     string // display name as written in the recipe
	quantity float64
	unit     string
}

// buildPlan computes the delta of one reconciliation pass. Pure function;
// the write phase applies its output.
//
// Demand is summed per active plan occurrence - an ingredient needed by two
// active plans is needed twice. For each ingredient key,
// toBuy = max(totalNeeded - onHand, 0). Rows are created greedily walking
// active plans in their given order; an (ingredient, plan) pair already
// represented in the shopping list contributes its existing row quantity
// toward toBuy instead of a new row, which is what makes back-to-back
// passes produce an empty delta.
func buildPlan(
	pantry []PantryItem,
	active []MealPlan,
	ingredients []Ingredient,
	shopping []ShoppingItem,
	validPlanIDs map[string]struct{},
) Plan {
	onHand := make(map[string]float64, len(pantry))
	for _, item := range pantry {
		onHand[foldKey(item.Name)] += item.Quantity
	}

	// Per-recipe requirements aggregated by folded ingredient key.
	needs := make(map[string]map[string]ingredientNeed)
	for _, ing := range ingredients {
		key := foldKey(ing.Name)
		recipe := needs[ing.RecipeID]
		if recipe == nil {
			recipe = make(map[string]ingredientNeed)
			needs[ing.RecipeID] = recipe
		}
		need := recipe[key]
		if need.name == "" {
			need.name = ing.Name
			need.unit = ing.Unit
		}
		need.quantity += ing.Quantity
		recipe[key] = need
	}

	// Total demand per ingredient key across all active plan occurrences.
	totalNeeded := make(map[string]float64)
	for _, plan := range active {
		for key, need := range needs[plan.RecipeID] {
			totalNeeded[key] += need.quantity
		}
	}

	// Existing (ingredient, plan) associations and their row quantities.
	covered := make(map[string]float64)
	for _, item := range shopping {
		if item.MealPlanID == "" {
			continue
		}
		covered[foldKey(item.Name)+"\x00"+item.MealPlanID] += item.Quantity
	}

	// Deterministic key order so identical inputs yield identical plans.
	keys := make([]string, 0, len(totalNeeded))
	for key := range totalNeeded {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var plan Plan
	for _, key := range keys {
		toBuy := totalNeeded[key] - onHand[key]
		if toBuy <= epsilon {
			continue
		}

		accumulated := 0.0
		for _, mealPlan := range active {
			if accumulated >= toBuy-epsilon {
				break
			}
			need, ok := needs[mealPlan.RecipeID][key]
			if !ok || need.quantity <= epsilon {
				continue
			}
			if existing, ok := covered[key+"\x00"+mealPlan.ID]; ok {
				accumulated += existing
				continue
			}
			add := need.quantity
			if remaining := toBuy - accumulated; add > remaining {
				add = remaining
			}
			plan.Adds = append(plan.Adds, ShoppingAdd{
				Name:       need.name,
				Quantity:   add,
				Unit:       need.unit,
				MealPlanID: mealPlan.ID,
			})
			accumulated += add
		}
	}

	// Rows tied to a plan that was deleted or fell outside the window.
	for _, item := range shopping {
		if item.MealPlanID == "" {
			continue
		}
		if _, ok := validPlanIDs[item.MealPlanID]; !ok {
			plan.RemoveIDs = append(plan.RemoveIDs, item.ID)
		}
	}

	return plan
}

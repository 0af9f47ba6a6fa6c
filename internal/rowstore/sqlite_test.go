package rowstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestInsertAndSelect(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.InsertMany(ctx, "pantry_items", []Row{
		{"user_id": "u1", "ingredient_name": "Egg", "quantity": 2.0, "unit": "pcs"},
		{"user_id": "u1", "ingredient_name": "Milk", "quantity": 1.0, "unit": "l"},
		{"user_id": "u2", "ingredient_name": "Flour", "quantity": 500.0, "unit": "g"},
	})
	require.NoError(t, err)

	rows, err := store.Select(ctx, "pantry_items", Eq("user_id", "u1"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Insertion order preserved (ORDER BY rowid).
	assert.Equal(t, "Egg", rows[0]["ingredient_name"])
	assert.Equal(t, "Milk", rows[1]["ingredient_name"])
	assert.Equal(t, 2.0, rows[0]["quantity"])
}

func TestSelect_NoMatchReturnsEmptySlice(t *testing.T) {
	store := openTestStore(t)

	rows, err := store.Select(context.Background(), "pantry_items", Eq("user_id", "nobody"))
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSelect_EqFoldMatchesCaseInsensitively(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertMany(ctx, "shopping_list", []Row{
		{"user_id": "u1", "ingredient_name": "Banana", "quantity": 3.0, "unit": "pcs", "meal_plan_id": ""},
	}))

	rows, err := store.Select(ctx, "shopping_list",
		Eq("user_id", "u1"), EqFold("ingredient_name", "bAnAnA"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestUpdateWhere(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertMany(ctx, "pantry_items", []Row{
		{"user_id": "u1", "ingredient_name": "Egg", "quantity": 2.0, "unit": "pcs"},
	}))

	err := store.UpdateWhere(ctx, "pantry_items", Row{"quantity": 8.0},
		Eq("user_id", "u1"), Eq("ingredient_name", "Egg"))
	require.NoError(t, err)

	rows, err := store.Select(ctx, "pantry_items", Eq("user_id", "u1"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 8.0, rows[0]["quantity"])
}

func TestDeleteWhere(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertMany(ctx, "shopping_list", []Row{
		{"user_id": "u1", "ingredient_name": "Egg", "quantity": 1.0, "unit": "pcs", "meal_plan_id": "p1"},
		{"user_id": "u1", "ingredient_name": "Milk", "quantity": 1.0, "unit": "l", "meal_plan_id": "p2"},
	}))

	err := store.DeleteWhere(ctx, "shopping_list", Eq("user_id", "u1"), In("meal_plan_id", "p1"))
	require.NoError(t, err)

	rows, err := store.Select(ctx, "shopping_list", Eq("user_id", "u1"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Milk", rows[0]["ingredient_name"])
}

func TestInsertMany_EmptyIsNoOp(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.InsertMany(context.Background(), "pantry_items", nil))
}

func TestErrorsAreRemoteErrors(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Select(ctx, "no_such_table")
	require.Error(t, err)
	assert.True(t, IsRemoteError(err), "select failure should be a RemoteError")

	err = store.InsertMany(ctx, "bad table name", []Row{{"a": 1}})
	require.Error(t, err)
	assert.True(t, IsRemoteError(err))

	err = store.UpdateWhere(ctx, "pantry_items", Row{})
	require.Error(t, err)
	assert.True(t, IsRemoteError(err), "empty patch should be rejected")
}

func TestInsertMany_RowMissingColumnFailsWholeBatch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.InsertMany(ctx, "pantry_items", []Row{
		{"user_id": "u1", "ingredient_name": "Egg", "quantity": 2.0, "unit": "pcs"},
		{"user_id": "u1", "ingredient_name": "Milk"}, // missing columns
	})
	require.Error(t, err)

	// Transactional batch: nothing persisted.
	rows, err := store.Select(ctx, "pantry_items", Eq("user_id", "u1"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

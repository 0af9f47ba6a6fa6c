// Package reconcile computes and applies the shopping-list delta for a
// user: given current meal plans, recipe requirements, pantry stock, and
// meals already marked done, it determines which shopping-list rows should
// exist and applies the minimal set of inserts and deletes.
//
// A reconciliation pass is read-many/compute-delta/write-back: several
// sequential read phases, one pure delta computation, then batched writes.
// Running a pass twice with no intervening state change produces zero new
// inserts and zero new deletes on the second run - already-covered
// (ingredient, meal plan) associations are detected against the existing
// shopping list, and current rows are never re-flagged as outdated.
//
// Passes for the same user are serialized by an in-process advisory lock;
// two rapid screen refreshes run one pass after the other instead of
// interleaving reads and writes. The pass itself is not atomic: a write
// failure mid-pass surfaces to the caller and leaves earlier batched writes
// in place.
//
// Ingredient names are matched case-insensitively via Unicode case folding.
package reconcile

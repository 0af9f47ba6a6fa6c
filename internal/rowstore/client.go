package rowstore

import (
	"context"
	"errors"
	"fmt"
)

// Row is a single table row keyed by column name.
//
// Values use the driver's natural Go types: int64, float64, string, bool,
// or nil. Callers needing typed access should go through the helpers in the
// packages that own the table layouts.
type Row map[string]any

// Op identifies a filter comparison operator.
type Op string

const (
	// OpEq matches rows where the column equals the value.
	OpEq Op = "eq"
	// OpEqFold matches rows where the column equals the value ignoring case.
	OpEqFold Op = "eq_fold"
	// OpIn matches rows where the column equals any element of the value,
	// which must be a []any. An empty list matches no rows.
	OpIn Op = "in"
	// OpGte matches rows where the column is >= the value.
	OpGte Op = "gte"
	// OpLte matches rows where the column is <= the value.
	OpLte Op = "lte"
)

// Filter is a single predicate on a column. Filters passed together are
// combined with AND.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Eq builds an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// EqFold builds a case-insensitive equality filter.
func EqFold(column string, value string) Filter {
	return Filter{Column: column, Op: OpEqFold, Value: value}
}

// In builds a membership filter over the given values.
func In(column string, values ...any) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

// Gte builds a >= filter.
func Gte(column string, value any) Filter {
	return Filter{Column: column, Op: OpGte, Value: value}
}

// Lte builds a <= filter.
func Lte(column string, value any) Filter {
	return Filter{Column: column, Op: OpLte, Value: value}
}

// Client is the row-store surface the core depends on.
//
// Implementations must return rows from Select in a deterministic order so
// that greedy algorithms walking them (shopping-list deduction, plan-order
// row creation) behave identically across runs.
type Client interface {
	// Select returns all rows of table matching every filter.
	// Returns an empty slice (not nil) when nothing matches.
	Select(ctx context.Context, table string, filters ...Filter) ([]Row, error)

	// InsertMany inserts the given rows in a single batch.
	// Inserting zero rows is a no-op.
	InsertMany(ctx context.Context, table string, rows []Row) error

	// UpdateWhere applies patch to every row matching the filters.
	UpdateWhere(ctx context.Context, table string, patch Row, filters ...Filter) error

	// DeleteWhere deletes every row matching the filters.
	DeleteWhere(ctx context.Context, table string, filters ...Filter) error
}

// RemoteError is the structured failure returned by every Client operation.
//
// StatusCode carries the backend's status when one exists; local stores
// leave it zero.
type RemoteError struct {
	Message    string
	StatusCode int
	Err        error // underlying cause, optional
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("rowstore: %s (status=%d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("rowstore: %s", e.Message)
}

// Unwrap returns the underlying cause.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsRemoteError reports whether err is (or wraps) a *RemoteError.
func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

func remoteErr(op string, err error) *RemoteError {
	return &RemoteError{Message: op, Err: err}
}

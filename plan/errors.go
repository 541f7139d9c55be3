/*
errors.go - Error types for the plan model

PURPOSE:
  Errors surfaced by plan editing and lookups. Metric derivation and table
  normalization never return errors; only editing and I/O boundaries do.

USAGE:
  if errors.Is(err, plan.ErrRowOutOfRange) {
      // 400 to the caller
  }

SEE ALSO:
  - legacy.go:  SetCell returns IndexError
  - session/:   Editing operations
*/
package plan

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a scenario, KPI, cost row or
	// configuration does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnknownTable is returned for a table name outside TableKinds.
	ErrUnknownTable = errors.New("unknown table")

	// ErrRowOutOfRange is returned when a row index does not exist.
	ErrRowOutOfRange = errors.New("row index out of range")

	// ErrColumnOutOfRange is returned when a column index is outside the
	// table's column layout.
	ErrColumnOutOfRange = errors.New("column index out of range")

	// ErrUnknownScenario is returned when a scenario key is not one of
	// ScenarioKeys.
	ErrUnknownScenario = errors.New("unknown scenario key")

	// ErrUnknownVariant is returned when selecting a variant the plan
	// does not contain.
	ErrUnknownVariant = errors.New("unknown variant")
)

// IndexError carries the offending index for a row/column lookup.
type IndexError struct {
	Table TableKind
	Index int
	Len   int
	err   error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: %v (index %d, length %d)", e.Table, e.err, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error {
	return e.err
}

func rowError(t TableKind, index, n int) error {
	return &IndexError{Table: t, Index: index, Len: n, err: ErrRowOutOfRange}
}

func columnError(t TableKind, index, n int) error {
	return &IndexError{Table: t, Index: index, Len: n, err: ErrColumnOutOfRange}
}

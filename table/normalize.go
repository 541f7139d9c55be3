/*
Package table coerces persisted, loosely-shaped table data into rows and cells.

PURPOSE:
  Plan tables are persisted as JSON written by several generations of the
  dashboard. A table may arrive as a list of lists, a list of keyed objects,
  a single object keyed by row index, null, or garbage. Downstream code
  (metrics, legacy adapters, the editing surfaces) only ever sees Table.

COERCION RULES (applied in order):
  Table level:
    nil                 -> empty table
    ordered sequence    -> used as-is, every element row-coerced
    keyed object        -> one-element table (LOSSY, logged): mapped by
                           header when any header key matches, else the
                           object's values in key order form the row
    anything else       -> empty table

  Row level:
    ordered sequence    -> used as-is
    keyed record        -> positional by header: normalized header key,
                           then the raw header, then ""
    anything else       -> len(headers) empty strings

GUARANTEES:
  - Never returns an error and never panics.
  - Normalizing an already-normalized table returns an identical table.
  - The only side effect is the WARN log line for the lossy object fallback.

SEE ALSO:
  - cell.go: ToNum / ToString / ToBool cell coercion
  - plan/legacy.go: Positional rows to named records
*/
package table

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Row is one positional row of cells.
type Row []any

// Table is an ordered list of rows.
type Table []Row

// Normalizer applies the coercion rules and reports lossy conversions.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer returns a Normalizer that logs through logger.
// A nil logger disables logging.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger.Named("normalizer")}
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize coerces value into a Table using a silent Normalizer.
func Normalize(value any, headers []string) Table {
	return defaultNormalizer.Normalize("", value, headers)
}

// Normalize coerces value into a Table. name identifies the table in logs.
func (n *Normalizer) Normalize(name string, value any, headers []string) Table {
	if value == nil {
		return Table{}
	}

	switch v := value.(type) {
	case Table:
		return n.rows(sliceOf(v), headers)
	case []Row:
		return n.rows(sliceOf(v), headers)
	case []any:
		return n.rows(v, headers)
	case map[string]any:
		n.logger.Warn("Table persisted as a single object, wrapping it as one row",
			zap.String("table", name),
			zap.Int("keys", len(v)),
		)
		return Table{loneRow(v, headers)}
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Table{}
		}
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return n.rows(items, headers)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Table{}
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return n.Normalize(name, m, headers)
	}

	return Table{}
}

func (n *Normalizer) rows(items []any, headers []string) Table {
	out := make(Table, len(items))
	for i, item := range items {
		out[i] = NormalizeRow(item, headers)
	}
	return out
}

// NormalizeRow coerces a single row value into a positional Row.
func NormalizeRow(value any, headers []string) Row {
	switch v := value.(type) {
	case Row:
		return v
	case []any:
		return Row(v)
	case map[string]any:
		return fromRecord(v, headers)
	case nil:
		return placeholders(len(headers))
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return placeholders(len(headers))
		}
		row := make(Row, rv.Len())
		for i := range row {
			row[i] = rv.Index(i).Interface()
		}
		return row
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return placeholders(len(headers))
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return fromRecord(m, headers)
	}

	return placeholders(len(headers))
}

// HeaderKey is the lookup key derived from a column header:
// lower-cased with all spaces removed.
func HeaderKey(header string) string {
	return strings.ToLower(strings.ReplaceAll(header, " ", ""))
}

func fromRecord(record map[string]any, headers []string) Row {
	row := make(Row, len(headers))
	for i, h := range headers {
		if v, ok := record[HeaderKey(h)]; ok {
			row[i] = v
			continue
		}
		if v, ok := record[h]; ok {
			row[i] = v
			continue
		}
		row[i] = ""
	}
	return row
}

// loneRow coerces an object that stands in for a whole table.
func loneRow(record map[string]any, headers []string) Row {
	for _, h := range headers {
		if _, ok := record[HeaderKey(h)]; ok {
			return fromRecord(record, headers)
		}
		if _, ok := record[h]; ok {
			return fromRecord(record, headers)
		}
	}
	return Row(orderedValues(record))
}

func placeholders(n int) Row {
	row := make(Row, n)
	for i := range row {
		row[i] = ""
	}
	return row
}

func sliceOf[T any](rows []T) []any {
	items := make([]any, len(rows))
	for i, r := range rows {
		items[i] = r
	}
	return items
}

// orderedValues returns map values with integer keys first in numeric
// order, then the remaining keys lexically.
func orderedValues(m map[string]any) []any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, errI := strconv.Atoi(keys[i])
		nj, errJ := strconv.Atoi(keys[j])
		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		}
		return keys[i] < keys[j]
	})

	values := make([]any, len(keys))
	for i, k := range keys {
		values[i] = m[k]
	}
	return values
}

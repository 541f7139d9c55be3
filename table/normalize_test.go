package table_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/warp/scaleup-planner/table"
)

var riskHeaders = []string{"ID", "Description", "Impact", "Probability", "Mitigation", "Owner", "Due Date", "Status"}

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

// =============================================================================
// TABLE-LEVEL COERCION
// =============================================================================

func TestNormalize_Nil_ReturnsEmptyTable(t *testing.T) {
	got := table.Normalize(nil, riskHeaders)
	require.NotNil(t, got)
	assert.Len(t, got, 0)
}

func TestNormalize_Scalars_ReturnEmptyTable(t *testing.T) {
	for _, v := range []any{"not a table", 42.0, true, json.Number("7")} {
		assert.Len(t, table.Normalize(v, riskHeaders), 0, "value %v", v)
	}
}

func TestNormalize_ListOfLists_UsedAsIs(t *testing.T) {
	v := decode(t, `[["R1","Supplier delay","H","M","Dual source","Ana","2026-03-01","Open"],["R2"]]`)

	got := table.Normalize(v, riskHeaders)

	require.Len(t, got, 2)
	assert.Equal(t, "Supplier delay", got[0][1])
	// Short rows are not padded.
	assert.Equal(t, table.Row{"R2"}, got[1])
}

func TestNormalize_ListOfRecords_MapsHeadersToPositions(t *testing.T) {
	// GIVEN: Rows persisted as keyed objects, one using the raw header
	v := decode(t, `[{"id":"R1","description":"Tooling wear","duedate":"2026-06-01","Status":"Open"}]`)

	// WHEN: Normalizing against the risk headers
	got := table.Normalize(v, riskHeaders)

	// THEN: Known keys land in position, missing keys become ""
	require.Len(t, got, 1)
	assert.Equal(t, table.Row{"R1", "Tooling wear", "", "", "", "", "2026-06-01", "Open"}, got[0])
}

func TestNormalize_NonRowElements_BecomePlaceholders(t *testing.T) {
	v := decode(t, `[null, 5, "x", ["ok"]]`)

	got := table.Normalize(v, riskHeaders)

	require.Len(t, got, 4)
	for i := 0; i < 3; i++ {
		assert.Len(t, got[i], len(riskHeaders))
		for _, cell := range got[i] {
			assert.Equal(t, "", cell)
		}
	}
	assert.Equal(t, table.Row{"ok"}, got[3])
}

func TestNormalize_SingleRecord_BecomesOneRowAndIsLogged(t *testing.T) {
	// GIVEN: A project table persisted as a single keyed record
	core, logs := observer.New(zapcore.WarnLevel)
	n := table.NewNormalizer(zap.New(core))
	headers := []string{"ID", "Name", "Budget CapEx", "Owner"}
	v := decode(t, `{"ID":"P1","Name":"Tooling","Budget CapEx":5000}`)

	// WHEN: Normalizing
	got := n.Normalize("projects", v, headers)

	// THEN: Exactly one row, mapped by header
	require.Len(t, got, 1)
	assert.Equal(t, table.Row{"P1", "Tooling", 5000.0, ""}, got[0])

	// AND: The lossy fallback is reported, not silent
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "projects", logs.All()[0].ContextMap()["table"])
}

func TestNormalize_SingleObjectWithoutHeaders_ValuesFormOneRow(t *testing.T) {
	// GIVEN: An object whose keys match no header
	v := decode(t, `{"10":"c","2":"b","0":"a","extra":"z"}`)

	// WHEN: Normalizing
	got := table.Normalize(v, riskHeaders)

	// THEN: One row of its values, numeric keys first in numeric order
	require.Len(t, got, 1)
	assert.Equal(t, table.Row{"a", "b", "c", "z"}, got[0])
}

func TestNormalize_TypedSlices_AreSequences(t *testing.T) {
	got := table.Normalize([][]string{{"a", "b"}, {"c"}}, []string{"A", "B"})

	require.Len(t, got, 2)
	assert.Equal(t, table.Row{"a", "b"}, got[0])
	assert.Equal(t, table.Row{"c"}, got[1])
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		`null`,
		`[["R1","x"],{"id":"R2"},7]`,
		`{"0":["a"],"1":{"description":"b"}}`,
	}
	for _, raw := range inputs {
		once := table.Normalize(decode(t, raw), riskHeaders)
		twice := table.Normalize(once, riskHeaders)
		assert.Equal(t, once, twice, "input %s", raw)
	}
}

func TestHeaderKey(t *testing.T) {
	assert.Equal(t, "duedate", table.HeaderKey("Due Date"))
	assert.Equal(t, "budget_capex", table.HeaderKey("Budget_CapEx"))
}

// =============================================================================
// CELL COERCION
// =============================================================================

func TestToNum(t *testing.T) {
	cases := []struct {
		in   any
		def  float64
		want float64
	}{
		{nil, 3, 3},
		{"", 3, 3},
		{"  12.5 ", 0, 12.5},
		{"abc", -1, -1},
		{42.0, 0, 42},
		{7, 0, 7},
		{true, 0, 1},
		{json.Number("9"), 0, 9},
		{math.NaN(), 5, 5},
		{math.Inf(1), 5, 5},
		{"Infinity", 5, 5},
		{[]any{1}, 2, 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, table.ToNum(tc.in, tc.def), "input %#v", tc.in)
	}
}

func TestToBool(t *testing.T) {
	assert.True(t, table.ToBool("Yes"))
	assert.True(t, table.ToBool("x"))
	assert.True(t, table.ToBool(true))
	assert.True(t, table.ToBool(1.0))
	assert.False(t, table.ToBool(""))
	assert.False(t, table.ToBool("no"))
	assert.False(t, table.ToBool(nil))
}

func TestRowCell_OutOfRange(t *testing.T) {
	r := table.Row{"a"}
	assert.Equal(t, "a", r.Cell(0))
	assert.Nil(t, r.Cell(5))
	assert.Nil(t, r.Cell(-1))
}

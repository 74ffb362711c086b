package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_AppendRow(t *testing.T) {
	f := New([]string{"a", "b", "c"})

	require.NoError(t, f.AppendRow([]string{"1", "2", "3"}))
	require.NoError(t, f.AppendRow([]string{"1"})) // short rows are padded

	err := f.AppendRow([]string{"1", "2", "3", "4"})
	require.Error(t, err)

	assert.Equal(t, 2, f.NumRows())
	assert.Equal(t, []string{"1", "", ""}, f.Row(1))
}

func TestFrame_CellAccess(t *testing.T) {
	f := New([]string{"name", "city"})
	require.NoError(t, f.AppendRow([]string{"Klinik Nord", "Hamburg"}))

	assert.Equal(t, "Hamburg", f.Cell(0, "city"))
	assert.Equal(t, "", f.Cell(0, "unknown"))

	require.NoError(t, f.SetCell(0, "city", "Berlin"))
	assert.Equal(t, "Berlin", f.Cell(0, "city"))

	require.Error(t, f.SetCell(0, "unknown", "x"))
}

func TestFrame_Rename(t *testing.T) {
	f := New([]string{"Strasse", "Ort"})
	require.NoError(t, f.AppendRow([]string{"Hauptstr. 1", "Kiel"}))

	f.Rename(map[string]string{"Strasse": "street", "Ort": "city", "missing": "x"})

	assert.Equal(t, []string{"street", "city"}, f.Columns())
	assert.Equal(t, "Kiel", f.Cell(0, "city"))
	assert.False(t, f.HasColumn("Ort"))
}

func TestFrame_Select(t *testing.T) {
	f := New([]string{"a", "b", "c"})
	require.NoError(t, f.AppendRow([]string{"1", "2", "3"}))

	out, err := f.Select([]string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, out.Columns())
	assert.Equal(t, []string{"3", "1"}, out.Row(0))

	_, err = f.Select([]string{"a", "nope"})
	require.Error(t, err)
}

func TestFrame_AddColumn(t *testing.T) {
	f := New([]string{"a"})
	require.NoError(t, f.AppendRow([]string{"1"}))

	require.NoError(t, f.AddColumn("b", "x"))
	assert.Equal(t, "x", f.Cell(0, "b"))

	require.Error(t, f.AddColumn("a", ""))
}

func TestFrame_Column(t *testing.T) {
	f := New([]string{"a", "b"})
	require.NoError(t, f.AppendRow([]string{"1", "x"}))
	require.NoError(t, f.AppendRow([]string{"2", "y"}))

	vals, err := f.Column("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, vals)

	_, err = f.Column("zzz")
	require.Error(t, err)
}

func TestFrame_Clone(t *testing.T) {
	f := New([]string{"a"})
	require.NoError(t, f.AppendRow([]string{"1"}))

	clone := f.Clone()
	require.NoError(t, clone.SetCell(0, "a", "changed"))

	assert.Equal(t, "1", f.Cell(0, "a"))
	assert.Equal(t, "changed", clone.Cell(0, "a"))
}

package writer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eudatnat/harvest-cli/internal/frame"
)

func placesFrame(t *testing.T) *frame.Frame {
	t.Helper()
	fr := frame.New([]string{"name", "city", "lat", "lon"})
	require.NoError(t, fr.AppendRow([]string{"Uniklinik", "Kiel", "54.3233", "10.1228"}))
	require.NoError(t, fr.AppendRow([]string{"St. Georg", "Hamburg", "53.5558", "10.0135"}))
	require.NoError(t, fr.AppendRow([]string{"Unlocated", "Nowhere", "", ""}))
	return fr
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()

	w, err := r.Get("CSV ")
	require.NoError(t, err)
	assert.Equal(t, "csv", w.Format())

	_, err = r.Get("parquet")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestRegistry_Formats(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"csv", "geojson", "json", "shp", "xlsx"}, r.Formats())
}

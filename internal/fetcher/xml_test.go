package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadXMLRecords_Basic(t *testing.T) {
	in := `<?xml version="1.0"?>
<facilities>
  <facility>
    <name>Ospedale A</name>
    <city>Roma</city>
  </facility>
  <facility>
    <name>Ospedale B</name>
    <beds>80</beds>
  </facility>
</facilities>`

	fr, err := ReadXMLRecords(strings.NewReader(in), "facility")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"name", "city", "beds"}, fr.Columns())
	require.Equal(t, 2, fr.NumRows())
	assert.Equal(t, "Roma", fr.Cell(0, "city"))
	assert.Equal(t, "80", fr.Cell(1, "beds"))
	assert.Equal(t, "", fr.Cell(1, "city"))
}

func TestReadXMLRecords_NoTag(t *testing.T) {
	_, err := ReadXMLRecords(strings.NewReader("<a/>"), "")
	require.Error(t, err)
}

func TestReadXMLRecords_NoRecords(t *testing.T) {
	_, err := ReadXMLRecords(strings.NewReader("<root><other/></root>"), "facility")
	require.Error(t, err)
}

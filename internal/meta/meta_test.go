package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMeta() *Meta {
	return &Meta{
		Category: "hospitals",
		Country:  "de",
		Lang:     "de",
		Source:   Source{URL: "https://example.org/data.csv", Format: "csv"},
		Columns: []Column{
			{Name: "Name", Target: "name", Required: true},
			{Name: "Ort", Target: "city", Role: RoleCity},
			{Name: "Betten", Target: "beds", Type: "int"},
		},
	}
}

func TestValidate_DerivesNameAndNormalisesCodes(t *testing.T) {
	m := validMeta()
	require.NoError(t, m.Validate())

	assert.Equal(t, "de.hospitals", m.Name)
	assert.Equal(t, "DE", m.Country)
	assert.Equal(t, "de", m.Lang)
	assert.Equal(t, "csv", m.Source.Format)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Meta)
	}{
		{"no name and no country", func(m *Meta) { m.Name = ""; m.Country = ""; m.Category = "" }},
		{"no source", func(m *Meta) { m.Source = Source{Format: "csv"} }},
		{"unknown format", func(m *Meta) { m.Source.Format = "parquet" }},
		{"unknown country", func(m *Meta) { m.Country = "XQZW" }},
		{"column without name", func(m *Meta) { m.Columns[0].Name = "" }},
		{"duplicate target", func(m *Meta) { m.Columns[1].Target = "name" }},
		{"unknown type", func(m *Meta) { m.Columns[2].Type = "decimal" }},
		{"unknown role", func(m *Meta) { m.Columns[1].Role = "region" }},
		{"geocode without address columns", func(m *Meta) {
			m.Geocode.Enabled = true
			m.Columns = []Column{{Name: "Name"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMeta()
			tt.mutate(m)
			assert.Error(t, m.Validate())
		})
	}
}

func TestValidate_GeocodeWithLatLon(t *testing.T) {
	m := validMeta()
	m.Geocode.Enabled = true
	m.Columns = []Column{
		{Name: "Name"},
		{Name: "y", Target: "lat", Type: "float", Role: RoleLat},
		{Name: "x", Target: "lon", Type: "float", Role: RoleLon},
	}
	require.NoError(t, m.Validate())
}

func TestColumnHelpers(t *testing.T) {
	m := &Meta{
		Columns: []Column{
			{Name: "Name", Target: "name", Required: true},
			{Name: "Typ", Target: "facility_type", Translate: true},
			{Name: "Strasse", Target: "street", Role: RoleStreet},
			{Name: "PLZ", Target: "postcode", Role: RolePostcode},
			{Name: "Ort", Target: "city", Role: RoleCity},
		},
	}

	assert.Equal(t, []string{"Name"}, m.RequiredColumns())
	assert.Equal(t, []string{"facility_type"}, m.TranslatedColumns())
	assert.Equal(t, "city", m.RoleColumn(RoleCity))
	assert.Equal(t, "", m.RoleColumn(RolePlace))
	assert.Equal(t, []string{"street", "postcode", "city"}, m.PlaceColumns())
}

func TestTargetName(t *testing.T) {
	assert.Equal(t, "name", Column{Name: "Name", Target: "name"}.TargetName())
	assert.Equal(t, "Name", Column{Name: "Name"}.TargetName())
}

func TestIsNoopFormat(t *testing.T) {
	assert.True(t, (&Meta{}).IsNoopFormat())
	assert.False(t, (&Meta{Geocode: GeocodeSpec{Enabled: true}}).IsNoopFormat())
	assert.False(t, (&Meta{Translate: TranslateSpec{Enabled: true}}).IsNoopFormat())
	assert.False(t, (&Meta{Columns: []Column{{Name: "a"}}}).IsNoopFormat())
}

// Package meta defines the declarative per-dataset metadata driving the
// harvest pipeline: where the source lives, how its columns map onto the
// harmonised schema, and which enrichment steps apply.
package meta

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/eudatnat/harvest-cli/internal/frame"
	"github.com/eudatnat/harvest-cli/internal/lang"
)

// Geocode roles a column can play.
const (
	RoleStreet   = "street"
	RoleCity     = "city"
	RolePostcode = "postcode"
	RolePlace    = "place"
	RoleLat      = "lat"
	RoleLon      = "lon"
)

// Harmonised column names produced by geocoding.
const (
	ColLat     = "lat"
	ColLon     = "lon"
	ColGeoQual = "geo_qual"
)

// Meta is the immutable metadata of one dataset.
type Meta struct {
	Name      string        `yaml:"name" json:"name"`
	Category  string        `yaml:"category" json:"category"`
	Country   string        `yaml:"country" json:"country"` // ISO 3166-1 alpha-2
	Lang      string        `yaml:"lang" json:"lang"`       // source language, ISO 639-1
	Source    Source        `yaml:"source" json:"source"`
	Columns   []Column      `yaml:"columns" json:"columns"`
	Geocode   GeocodeSpec   `yaml:"geocode" json:"geocode"`
	Translate TranslateSpec `yaml:"translate" json:"translate"`
	Output    OutputSpec    `yaml:"output" json:"output"`
}

// Source describes where and in which format the raw data lives.
type Source struct {
	URL       string `yaml:"url" json:"url"`   // http(s) or ftp
	Path      string `yaml:"path" json:"path"` // local file, alternative to URL
	Format    string `yaml:"format" json:"format"`
	Delimiter string `yaml:"delimiter" json:"delimiter"` // csv only
	Encoding  string `yaml:"encoding" json:"encoding"`   // e.g. "latin1", default utf-8
	Sheet     string `yaml:"sheet" json:"sheet"`         // xlsx only
	SkipRows  int    `yaml:"skip_rows" json:"skip_rows"`
	ZipEntry  string `yaml:"zip_entry" json:"zip_entry"` // file inside a zip archive
	RecordTag string `yaml:"record_tag" json:"record_tag"` // xml only
}

// Column maps one source column onto the harmonised schema.
type Column struct {
	Name      string `yaml:"name" json:"name"`     // header in the source
	Target    string `yaml:"target" json:"target"` // harmonised name, defaults to Name
	Type      string `yaml:"type" json:"type"`     // string|int|float|bool|date
	Required  bool   `yaml:"required" json:"required"`
	Translate bool   `yaml:"translate" json:"translate"`
	Role      string `yaml:"role" json:"role"` // geocode role, see Role* constants
}

// GeocodeSpec enables address geocoding for the dataset.
type GeocodeSpec struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Providers []string `yaml:"providers" json:"providers"` // overrides the global cascade order
}

// TranslateSpec enables value translation for flagged columns.
type TranslateSpec struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	TargetLang string `yaml:"target_lang" json:"target_lang"` // defaults to the global target
}

// OutputSpec selects the serialisation formats for save.
type OutputSpec struct {
	Formats []string `yaml:"formats" json:"formats"`
	Dir     string   `yaml:"dir" json:"dir"`
	File    string   `yaml:"file" json:"file"` // pattern with {name} and {fmt}
}

// Input formats the fetcher can parse.
var inputFormats = map[string]bool{
	"csv": true, "json": true, "xlsx": true, "xml": true, "shp": true,
}

// TargetName returns the harmonised name of a column.
func (c Column) TargetName() string {
	if c.Target != "" {
		return c.Target
	}
	return c.Name
}

// Validate checks the metadata for structural problems. It is called once
// when the metadata file is loaded; a Meta that passed validation is safe
// to drive a run.
func (m *Meta) Validate() error {
	if m.Name == "" {
		if m.Country == "" || m.Category == "" {
			return eris.New("meta: name is required (or country and category to derive it)")
		}
		m.Name = fmt.Sprintf("%s.%s", strings.ToLower(m.Country), strings.ToLower(m.Category))
	}

	if m.Country != "" {
		c, err := lang.ParseCountry(m.Country)
		if err != nil {
			return err
		}
		m.Country = c.Code
	}
	if m.Lang != "" {
		l, err := lang.ParseLanguage(m.Lang)
		if err != nil {
			return err
		}
		m.Lang = l.Code
	}

	if m.Source.URL == "" && m.Source.Path == "" {
		return eris.Errorf("meta %s: source url or path is required", m.Name)
	}
	fmtKey := strings.ToLower(m.Source.Format)
	if !inputFormats[fmtKey] {
		return eris.Errorf("meta %s: unknown source format %q", m.Name, m.Source.Format)
	}
	m.Source.Format = fmtKey

	seen := make(map[string]bool, len(m.Columns))
	for i, col := range m.Columns {
		if col.Name == "" {
			return eris.Errorf("meta %s: column %d has no name", m.Name, i)
		}
		target := col.TargetName()
		if seen[target] {
			return eris.Errorf("meta %s: duplicate target column %q", m.Name, target)
		}
		seen[target] = true

		if _, err := frame.ParseKind(col.Type); err != nil {
			return eris.Wrapf(err, "meta %s: column %q", m.Name, col.Name)
		}
		switch col.Role {
		case "", RoleStreet, RoleCity, RolePostcode, RolePlace, RoleLat, RoleLon:
		default:
			return eris.Errorf("meta %s: column %q has unknown role %q", m.Name, col.Name, col.Role)
		}
	}

	if m.Geocode.Enabled {
		hasLatLon := m.hasRole(RoleLat) && m.hasRole(RoleLon)
		hasPlace := m.hasRole(RoleStreet) || m.hasRole(RoleCity) || m.hasRole(RolePlace) || m.hasRole(RolePostcode)
		if !hasLatLon && !hasPlace {
			return eris.Errorf("meta %s: geocoding enabled but no address or lat/lon columns declared", m.Name)
		}
	}

	return nil
}

// RequiredColumns returns the source names of columns marked required.
func (m *Meta) RequiredColumns() []string {
	var out []string
	for _, c := range m.Columns {
		if c.Required {
			out = append(out, c.Name)
		}
	}
	return out
}

// TranslatedColumns returns the harmonised names of columns flagged for
// translation.
func (m *Meta) TranslatedColumns() []string {
	var out []string
	for _, c := range m.Columns {
		if c.Translate {
			out = append(out, c.TargetName())
		}
	}
	return out
}

// RoleColumn returns the harmonised name of the first column with the given
// geocode role, or "" if none is declared.
func (m *Meta) RoleColumn(role string) string {
	for _, c := range m.Columns {
		if c.Role == role {
			return c.TargetName()
		}
	}
	return ""
}

// PlaceColumns returns the harmonised names of address-part columns in the
// order street, postcode, city, place.
func (m *Meta) PlaceColumns() []string {
	var out []string
	for _, role := range []string{RoleStreet, RolePostcode, RoleCity, RolePlace} {
		if col := m.RoleColumn(role); col != "" {
			out = append(out, col)
		}
	}
	return out
}

// IsNoopFormat reports whether format_data would change nothing, which
// allows save directly after load.
func (m *Meta) IsNoopFormat() bool {
	if m.Geocode.Enabled || m.Translate.Enabled {
		return false
	}
	for _, c := range m.Columns {
		if c.Target != "" && c.Target != c.Name {
			return false
		}
		if kind, _ := frame.ParseKind(c.Type); kind != frame.KindString {
			return false
		}
	}
	return len(m.Columns) == 0
}

func (m *Meta) hasRole(role string) bool {
	return m.RoleColumn(role) != ""
}

package dataset

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eudatnat/harvest-cli/internal/fetcher"
	"github.com/eudatnat/harvest-cli/internal/meta"
	"github.com/eudatnat/harvest-cli/internal/writer"
	"github.com/eudatnat/harvest-cli/pkg/geocode"
	"github.com/eudatnat/harvest-cli/pkg/translate"
)

func init() {
	// Replace global logger with a no-op to avoid nil pointer panics in tests.
	zap.ReplaceGlobals(zap.NewNop())
}

const hospitalsCSV = "Name,Traeger,Ort,Betten\n" +
	"Uniklinik Kiel,Universitaet,Kiel,1200\n" +
	"St. Georg,Kirche,Hamburg,450\n" +
	"Kreisklinik,Landkreis,Nowhere,unknown\n"

func writeSourceFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func hospitalsMeta(t *testing.T, sourcePath string) *meta.Meta {
	t.Helper()
	m := &meta.Meta{
		Name:     "de.hospitals",
		Category: "health",
		Country:  "DE",
		Lang:     "de",
		Source:   meta.Source{Path: sourcePath, Format: "csv"},
		Columns: []meta.Column{
			{Name: "Name", Target: "name", Required: true},
			{Name: "Traeger", Target: "operator_type", Translate: true},
			{Name: "Ort", Target: "city", Role: meta.RoleCity},
			{Name: "Betten", Target: "beds", Type: "int"},
		},
	}
	require.NoError(t, m.Validate())
	return m
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	return Deps{
		Writers:   writer.NewRegistry(),
		TempDir:   t.TempDir(),
		OutputDir: t.TempDir(),
	}
}

// fakeGeoClient geocodes from a fixed map keyed by city name.
type fakeGeoClient struct {
	results map[string]geocode.Result
}

func (f fakeGeoClient) Geocode(_ context.Context, addr geocode.AddressInput) (*geocode.Result, error) {
	if r, ok := f.results[addr.City]; ok {
		return &r, nil
	}
	return &geocode.Result{}, nil
}

func (f fakeGeoClient) BatchGeocode(ctx context.Context, addrs []geocode.AddressInput) ([]geocode.Result, error) {
	out := make([]geocode.Result, len(addrs))
	for i, a := range addrs {
		r, err := f.Geocode(ctx, a)
		if err != nil {
			return nil, err
		}
		out[i] = *r
	}
	return out, nil
}

func TestCoordinator_LoadFormatSave(t *testing.T) {
	src := writeSourceFile(t, "hospitals.csv", hospitalsCSV)
	m := hospitalsMeta(t, src)
	deps := testDeps(t)
	c := New(m, deps)

	assert.Equal(t, StateUninitialized, c.State())

	fr, err := c.LoadData(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, StateLoaded, c.State())
	assert.Equal(t, 3, fr.NumRows())

	report, err := c.FormatData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateFormatted, c.State())
	assert.Equal(t, 3, report.Rows)

	got := c.Frame()
	assert.Equal(t, []string{"name", "operator_type", "city", "beds"}, got.Columns())
	assert.Equal(t, "Uniklinik Kiel", got.Cell(0, "name"))
	assert.Equal(t, "1200", got.Cell(0, "beds"))

	// "unknown" does not parse as int and lands in the report.
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "cast", report.Issues[0].Kind)
	assert.Equal(t, "beds", report.Issues[0].Column)
	assert.Equal(t, 2, report.Issues[0].Row)

	path, err := c.SaveData(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, StateSaved, c.State())
	assert.Equal(t, filepath.Join(deps.OutputDir, "de.hospitals.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	reloaded, err := fetcher.ReadCSV(f, fetcher.CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, got.Columns(), reloaded.Columns())
	assert.Equal(t, got.NumRows(), reloaded.NumRows())
}

func TestCoordinator_MissingRequiredColumn(t *testing.T) {
	src := writeSourceFile(t, "hospitals.csv", "Einrichtung,Ort\nUniklinik,Kiel\n")
	m := hospitalsMeta(t, src)
	c := New(m, testDeps(t))

	_, err := c.LoadData(context.Background(), "")
	require.NoError(t, err)

	_, err = c.FormatData(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaViolation))
}

func TestCoordinator_FormatMismatch(t *testing.T) {
	src := writeSourceFile(t, "hospitals.json", "this is not json")
	m := hospitalsMeta(t, src)
	m.Source.Format = "json"
	c := New(m, testDeps(t))

	_, err := c.LoadData(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormatMismatch))
}

func TestCoordinator_SourceUnavailable(t *testing.T) {
	m := hospitalsMeta(t, "/no/such/file.csv")
	c := New(m, testDeps(t))

	_, err := c.LoadData(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestCoordinator_InvalidStateTransitions(t *testing.T) {
	src := writeSourceFile(t, "hospitals.csv", hospitalsCSV)
	m := hospitalsMeta(t, src)
	c := New(m, testDeps(t))

	_, err := c.FormatData(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidState))

	_, err = c.SaveData(context.Background(), "csv")
	assert.True(t, errors.Is(err, ErrInvalidState))

	// Renames and casts are declared, so save straight after load is
	// still premature.
	_, err = c.LoadData(context.Background(), "")
	require.NoError(t, err)
	_, err = c.SaveData(context.Background(), "csv")
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestCoordinator_SaveUnsupportedFormat(t *testing.T) {
	src := writeSourceFile(t, "hospitals.csv", hospitalsCSV)
	m := hospitalsMeta(t, src)
	c := New(m, testDeps(t))

	_, err := c.LoadData(context.Background(), "")
	require.NoError(t, err)
	_, err = c.FormatData(context.Background())
	require.NoError(t, err)

	_, err = c.SaveData(context.Background(), "parquet")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestCoordinator_SaveAfterLoadWhenFormatIsNoop(t *testing.T) {
	src := writeSourceFile(t, "plain.csv", "a,b\n1,2\n")
	m := &meta.Meta{
		Name:     "xx.plain",
		Category: "misc",
		Source:   meta.Source{Path: src, Format: "csv"},
	}
	require.NoError(t, m.Validate())
	require.True(t, m.IsNoopFormat())

	c := New(m, testDeps(t))
	_, err := c.LoadData(context.Background(), "")
	require.NoError(t, err)

	path, err := c.SaveData(context.Background(), "json")
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestCoordinator_CoordinatePassthrough(t *testing.T) {
	src := writeSourceFile(t, "sites.csv",
		"Name,Breitengrad,Laengengrad\nUniklinik,54.3233,10.1228\n")
	m := &meta.Meta{
		Name:     "de.sites",
		Category: "health",
		Country:  "DE",
		Source:   meta.Source{Path: src, Format: "csv"},
		Columns: []meta.Column{
			{Name: "Name", Target: "name"},
			{Name: "Breitengrad", Target: "latitude", Type: "float", Role: meta.RoleLat},
			{Name: "Laengengrad", Target: "longitude", Type: "float", Role: meta.RoleLon},
		},
		Geocode: meta.GeocodeSpec{Enabled: true},
	}
	require.NoError(t, m.Validate())

	c := New(m, testDeps(t))
	_, err := c.LoadData(context.Background(), "")
	require.NoError(t, err)
	report, err := c.FormatData(context.Background())
	require.NoError(t, err)

	fr := c.Frame()
	assert.Equal(t, "54.3233", fr.Cell(0, meta.ColLat))
	assert.Equal(t, "10.1228", fr.Cell(0, meta.ColLon))
	assert.Equal(t, "1", fr.Cell(0, meta.ColGeoQual))
	assert.Equal(t, 1, report.Geocoded)
	assert.Equal(t, 0, report.Unmatched)
}

func TestCoordinator_GeocodeAddresses(t *testing.T) {
	src := writeSourceFile(t, "hospitals.csv", hospitalsCSV)
	m := hospitalsMeta(t, src)
	m.Geocode = meta.GeocodeSpec{Enabled: true}
	require.NoError(t, m.Validate())

	deps := testDeps(t)
	deps.Geocoder = fakeGeoClient{results: map[string]geocode.Result{
		"Kiel":    {Latitude: 54.3233, Longitude: 10.1228, Quality: "rooftop", Matched: true},
		"Hamburg": {Latitude: 53.5558, Longitude: 10.0135, Quality: "centroid", Matched: true},
	}}

	c := New(m, deps)
	_, err := c.LoadData(context.Background(), "")
	require.NoError(t, err)
	report, err := c.FormatData(context.Background())
	require.NoError(t, err)

	fr := c.Frame()
	assert.Equal(t, "54.3233", fr.Cell(0, meta.ColLat))
	assert.Equal(t, "1", fr.Cell(0, meta.ColGeoQual))
	assert.Equal(t, "3", fr.Cell(1, meta.ColGeoQual))
	assert.Equal(t, "", fr.Cell(2, meta.ColLat))

	assert.Equal(t, 2, report.Geocoded)
	assert.Equal(t, 1, report.Unmatched)

	var geocodeIssues int
	for _, issue := range report.Issues {
		if issue.Kind == "geocode" {
			geocodeIssues++
			assert.Equal(t, 2, issue.Row)
		}
	}
	assert.Equal(t, 1, geocodeIssues)
}

func TestCoordinator_TranslateColumns(t *testing.T) {
	src := writeSourceFile(t, "hospitals.csv", hospitalsCSV)
	m := hospitalsMeta(t, src)
	m.Translate = meta.TranslateSpec{Enabled: true, TargetLang: "en"}

	deps := testDeps(t)
	deps.Translator = translate.NewStatic(map[string]string{
		"Universitaet": "university",
		"Kirche":       "church",
		"Landkreis":    "district",
	})

	c := New(m, deps)
	_, err := c.LoadData(context.Background(), "")
	require.NoError(t, err)
	report, err := c.FormatData(context.Background())
	require.NoError(t, err)

	fr := c.Frame()
	assert.Equal(t, "university", fr.Cell(0, "operator_type"))
	assert.Equal(t, "church", fr.Cell(1, "operator_type"))
	assert.Equal(t, 3, report.Translated)
}

func TestCoordinator_TranslateSkippedWhenTargetIsSourceLang(t *testing.T) {
	src := writeSourceFile(t, "hospitals.csv", hospitalsCSV)
	m := hospitalsMeta(t, src)
	m.Translate = meta.TranslateSpec{Enabled: true, TargetLang: "de"}

	deps := testDeps(t)
	deps.Translator = translate.NewStatic(map[string]string{"Kirche": "church"})

	c := New(m, deps)
	_, err := c.LoadData(context.Background(), "")
	require.NoError(t, err)
	report, err := c.FormatData(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Kirche", c.Frame().Cell(1, "operator_type"))
	assert.Equal(t, 0, report.Translated)
}

func TestCoordinator_AbsentOptionalColumnBecomesEmpty(t *testing.T) {
	src := writeSourceFile(t, "hospitals.csv", "Name,Ort\nUniklinik,Kiel\n")
	m := hospitalsMeta(t, src)
	c := New(m, testDeps(t))

	_, err := c.LoadData(context.Background(), "")
	require.NoError(t, err)
	_, err = c.FormatData(context.Background())
	require.NoError(t, err)

	fr := c.Frame()
	assert.Equal(t, []string{"name", "operator_type", "city", "beds"}, fr.Columns())
	assert.Equal(t, "", fr.Cell(0, "beds"))
}

func TestCoordinator_LoadFromZip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "hospitals.zip")

	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	entry, err := zw.Create("data/etablissements.csv")
	require.NoError(t, err)
	_, err = entry.Write([]byte(hospitalsCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	m := hospitalsMeta(t, zipPath)
	m.Source.ZipEntry = "data/etablissements.csv"

	c := New(m, testDeps(t))
	fr, err := c.LoadData(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, fr.NumRows())
	assert.Equal(t, "Uniklinik Kiel", fr.Cell(0, "Name"))
}

func TestExpandPattern(t *testing.T) {
	assert.Equal(t, "de.hospitals.csv", expandPattern("{name}.{fmt}", "de.hospitals", "csv"))
	assert.Equal(t, "out-geojson/de.hospitals", expandPattern("out-{fmt}/{name}", "de.hospitals", "geojson"))
}

func TestQualityRank(t *testing.T) {
	assert.Equal(t, "1", qualityRank("rooftop"))
	assert.Equal(t, "2", qualityRank("range"))
	assert.Equal(t, "3", qualityRank("centroid"))
	assert.Equal(t, "4", qualityRank("approximate"))
	assert.Equal(t, "4", qualityRank(""))
}

// Package dataset drives the load, format, and save lifecycle of one
// harvested dataset, as declared by its metadata.
package dataset

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/eudatnat/harvest-cli/internal/fetcher"
	"github.com/eudatnat/harvest-cli/internal/frame"
	"github.com/eudatnat/harvest-cli/internal/meta"
	"github.com/eudatnat/harvest-cli/internal/writer"
	"github.com/eudatnat/harvest-cli/pkg/geocode"
	"github.com/eudatnat/harvest-cli/pkg/translate"
)

// State tracks the pipeline position of a Coordinator.
type State int

const (
	StateUninitialized State = iota
	StateLoaded
	StateFormatted
	StateSaved
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateFormatted:
		return "formatted"
	case StateSaved:
		return "saved"
	default:
		return "uninitialized"
	}
}

// Deps are the collaborators a Coordinator works with. The zero value of
// optional fields (Geocoder, Translator) disables the matching step.
type Deps struct {
	HTTP       fetcher.Fetcher
	FTP        fetcher.Fetcher
	Geocoder   geocode.Client
	Translator translate.Translator
	Writers    *writer.Registry

	TempDir    string // scratch space for downloads and zip extraction
	OutputDir  string // default output directory
	OutputFile string // default file pattern with {name} and {fmt}
	TargetLang string // default translation target language
}

// Issue records a non-fatal per-row or per-column problem found while
// formatting.
type Issue struct {
	Row    int    `json:"row"` // -1 for column-level issues
	Column string `json:"column"`
	Kind   string `json:"kind"` // "cast", "translate", "geocode"
	Detail string `json:"detail"`
}

// Report summarises a format pass.
type Report struct {
	Rows       int     `json:"rows"`
	Translated int     `json:"translated"`
	Geocoded   int     `json:"geocoded"`
	Unmatched  int     `json:"unmatched"`
	Issues     []Issue `json:"issues,omitempty"`
}

// Coordinator runs the load, format, save pipeline for one dataset.
// Instances are not safe for concurrent use; each run gets its own.
type Coordinator struct {
	meta  *meta.Meta
	deps  Deps
	state State

	data   *frame.Frame
	report *Report
}

// New creates a Coordinator for the given dataset metadata.
func New(m *meta.Meta, deps Deps) *Coordinator {
	return &Coordinator{meta: m, deps: deps}
}

// Meta returns the dataset metadata.
func (c *Coordinator) Meta() *meta.Meta { return c.meta }

// State returns the current pipeline state.
func (c *Coordinator) State() State { return c.state }

// Frame returns the current data, or nil before load.
func (c *Coordinator) Frame() *frame.Frame { return c.data }

// LoadData fetches and parses the dataset source. An empty source uses
// the location declared in the metadata. Loading again resets the
// pipeline to the loaded state.
func (c *Coordinator) LoadData(ctx context.Context, source string) (*frame.Frame, error) {
	if source == "" {
		source = c.meta.Source.URL
		if source == "" {
			source = c.meta.Source.Path
		}
	}

	fr, err := c.load(ctx, source)
	if err != nil {
		return nil, err
	}

	c.data = fr
	c.report = nil
	c.state = StateLoaded
	zap.L().Info("dataset loaded",
		zap.String("dataset", c.meta.Name),
		zap.String("source", source),
		zap.Int("rows", fr.NumRows()),
	)
	return fr, nil
}

func (c *Coordinator) load(ctx context.Context, source string) (*frame.Frame, error) {
	src := c.meta.Source
	f := fetcher.ForSource(source, c.deps.HTTP, c.deps.FTP)

	zipped := src.ZipEntry != "" || strings.HasSuffix(strings.ToLower(sourcePath(source)), ".zip")

	// Shapefiles and zip archives need a file on disk.
	if src.Format == "shp" || zipped {
		path, err := c.materialize(ctx, f, source, zipped)
		if err != nil {
			return nil, err
		}
		if src.Format == "shp" {
			fr, err := fetcher.ReadSHP(path)
			if err != nil {
				return nil, eris.Wrapf(ErrFormatMismatch, "dataset %s: %v", c.meta.Name, err)
			}
			return fr, nil
		}
		body, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(ErrSourceUnavailable, "dataset %s: %v", c.meta.Name, err)
		}
		defer body.Close() //nolint:errcheck
		return c.parse(body)
	}

	body, err := f.Download(ctx, source)
	if err != nil {
		return nil, eris.Wrapf(ErrSourceUnavailable, "dataset %s: %v", c.meta.Name, err)
	}
	defer body.Close() //nolint:errcheck
	return c.parse(body)
}

// materialize downloads the source into the temp dir and, for zip
// archives, extracts the data file. Returns the path to parse.
func (c *Coordinator) materialize(ctx context.Context, f fetcher.Fetcher, source string, zipped bool) (string, error) {
	tempDir := c.deps.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	scratch := filepath.Join(tempDir, c.meta.Name)
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return "", eris.Wrap(err, "dataset: create temp dir")
	}

	local := filepath.Join(scratch, filepath.Base(sourcePath(source)))
	if _, err := f.DownloadToFile(ctx, source, local); err != nil {
		return "", eris.Wrapf(ErrSourceUnavailable, "dataset %s: %v", c.meta.Name, err)
	}

	if !zipped {
		return local, nil
	}

	if c.meta.Source.Format == "shp" {
		// A shapefile needs its .dbf and .shx siblings; extract everything.
		paths, err := fetcher.ExtractZIP(local, scratch)
		if err != nil {
			return "", eris.Wrapf(ErrFormatMismatch, "dataset %s: %v", c.meta.Name, err)
		}
		for _, p := range paths {
			if strings.EqualFold(filepath.Ext(p), ".shp") {
				if c.meta.Source.ZipEntry == "" || filepath.Base(p) == c.meta.Source.ZipEntry {
					return p, nil
				}
			}
		}
		return "", eris.Wrapf(ErrFormatMismatch, "dataset %s: no shapefile in archive", c.meta.Name)
	}

	path, err := fetcher.ExtractZIPFile(local, c.meta.Source.ZipEntry, scratch)
	if err != nil {
		return "", eris.Wrapf(ErrFormatMismatch, "dataset %s: %v", c.meta.Name, err)
	}
	return path, nil
}

func (c *Coordinator) parse(r io.Reader) (*frame.Frame, error) {
	src := c.meta.Source

	var (
		fr  *frame.Frame
		err error
	)
	switch src.Format {
	case "csv":
		fr, err = fetcher.ReadCSV(r, fetcher.CSVOptions{
			Delimiter: delimiterRune(src.Delimiter),
			Encoding:  src.Encoding,
			SkipRows:  src.SkipRows,
		})
	case "json":
		fr, err = fetcher.ReadJSONArray(r)
	case "xlsx":
		fr, err = fetcher.ReadXLSX(r, fetcher.XLSXOptions{
			Sheet:    src.Sheet,
			SkipRows: src.SkipRows,
		})
	case "xml":
		fr, err = fetcher.ReadXMLRecords(r, src.RecordTag)
	default:
		return nil, eris.Wrapf(ErrFormatMismatch, "dataset %s: unknown input format %q", c.meta.Name, src.Format)
	}
	if err != nil {
		return nil, eris.Wrapf(ErrFormatMismatch, "dataset %s: %v", c.meta.Name, err)
	}
	return fr, nil
}

// FormatData harmonises the loaded data: renames source columns to their
// targets, selects the declared schema, casts types, translates flagged
// columns, and geocodes address roles. Per-row failures land in the
// report, not in the error.
func (c *Coordinator) FormatData(ctx context.Context) (*Report, error) {
	if c.state != StateLoaded {
		return nil, eris.Wrapf(ErrInvalidState, "dataset %s: format in state %s", c.meta.Name, c.state)
	}

	fr := c.data
	report := &Report{}

	for _, name := range c.meta.RequiredColumns() {
		if !fr.HasColumn(name) {
			return nil, eris.Wrapf(ErrSchemaViolation, "dataset %s: column %q", c.meta.Name, name)
		}
	}

	if len(c.meta.Columns) > 0 {
		rename := make(map[string]string)
		targets := make([]string, 0, len(c.meta.Columns))
		for _, col := range c.meta.Columns {
			target := col.TargetName()
			targets = append(targets, target)
			if fr.HasColumn(col.Name) && target != col.Name {
				rename[col.Name] = target
			}
		}
		fr.Rename(rename)

		// Declared but absent optional columns become empty columns so
		// the output schema is stable across source revisions.
		for _, target := range targets {
			if !fr.HasColumn(target) {
				if err := fr.AddColumn(target, ""); err != nil {
					return nil, err
				}
			}
		}

		selected, err := fr.Select(targets)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset %s: select schema", c.meta.Name)
		}
		fr = selected
	}

	for _, col := range c.meta.Columns {
		kind, err := frame.ParseKind(col.Type)
		if err != nil || kind == frame.KindString {
			continue
		}
		badRows, err := fr.CastColumn(col.TargetName(), kind)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset %s: cast %q", c.meta.Name, col.TargetName())
		}
		for _, row := range badRows {
			report.Issues = append(report.Issues, Issue{
				Row: row, Column: col.TargetName(), Kind: "cast",
				Detail: "value does not parse as " + col.Type,
			})
		}
	}

	if err := c.translateColumns(ctx, fr, report); err != nil {
		return nil, err
	}
	if err := c.geocodeRows(ctx, fr, report); err != nil {
		return nil, err
	}

	report.Rows = fr.NumRows()
	c.data = fr
	c.report = report
	c.state = StateFormatted
	zap.L().Info("dataset formatted",
		zap.String("dataset", c.meta.Name),
		zap.Int("rows", report.Rows),
		zap.Int("translated", report.Translated),
		zap.Int("geocoded", report.Geocoded),
		zap.Int("unmatched", report.Unmatched),
		zap.Int("issues", len(report.Issues)),
	)
	return report, nil
}

// Report returns the report of the last format pass, or nil.
func (c *Coordinator) Report() *Report { return c.report }

func (c *Coordinator) translateColumns(ctx context.Context, fr *frame.Frame, report *Report) error {
	if !c.meta.Translate.Enabled || c.deps.Translator == nil || !c.deps.Translator.Available() {
		return nil
	}

	target := c.meta.Translate.TargetLang
	if target == "" {
		target = c.deps.TargetLang
	}
	if target == "" || target == c.meta.Lang {
		return nil
	}

	for _, col := range c.meta.TranslatedColumns() {
		values, err := fr.Column(col)
		if err != nil {
			return eris.Wrapf(err, "dataset %s: translate", c.meta.Name)
		}
		translated, err := c.deps.Translator.Translate(ctx, values, c.meta.Lang, target)
		if err != nil {
			zap.L().Warn("translation failed, keeping source values",
				zap.String("dataset", c.meta.Name),
				zap.String("column", col),
				zap.Error(err),
			)
			report.Issues = append(report.Issues, Issue{
				Row: -1, Column: col, Kind: "translate", Detail: err.Error(),
			})
			continue
		}
		for i, v := range translated {
			if err := fr.SetCell(i, col, v); err != nil {
				return err
			}
		}
		report.Translated += len(translated)
	}
	return nil
}

func (c *Coordinator) geocodeRows(ctx context.Context, fr *frame.Frame, report *Report) error {
	if !c.meta.Geocode.Enabled {
		return nil
	}

	latCol := c.meta.RoleColumn(meta.RoleLat)
	lonCol := c.meta.RoleColumn(meta.RoleLon)

	// Coordinates already in the source pass through untouched.
	if latCol != "" && lonCol != "" && fr.HasColumn(latCol) && fr.HasColumn(lonCol) {
		rename := make(map[string]string)
		if latCol != meta.ColLat {
			rename[latCol] = meta.ColLat
		}
		if lonCol != meta.ColLon {
			rename[lonCol] = meta.ColLon
		}
		fr.Rename(rename)
		if err := fr.AddColumn(meta.ColGeoQual, "1"); err != nil {
			return err
		}
		report.Geocoded = fr.NumRows()
		return nil
	}

	if c.deps.Geocoder == nil {
		return nil
	}

	addrs := make([]geocode.AddressInput, fr.NumRows())
	for i := range addrs {
		addrs[i] = geocode.AddressInput{
			Street:      fr.Cell(i, c.meta.RoleColumn(meta.RoleStreet)),
			City:        fr.Cell(i, c.meta.RoleColumn(meta.RoleCity)),
			Postcode:    fr.Cell(i, c.meta.RoleColumn(meta.RolePostcode)),
			Place:       fr.Cell(i, c.meta.RoleColumn(meta.RolePlace)),
			CountryCode: c.meta.Country,
		}
	}

	results, err := c.deps.Geocoder.BatchGeocode(ctx, addrs)
	if err != nil {
		return eris.Wrapf(err, "dataset %s: geocode", c.meta.Name)
	}

	for _, col := range []string{meta.ColLat, meta.ColLon, meta.ColGeoQual} {
		if !fr.HasColumn(col) {
			if err := fr.AddColumn(col, ""); err != nil {
				return err
			}
		}
	}

	for i, r := range results {
		if !r.Matched {
			report.Unmatched++
			report.Issues = append(report.Issues, Issue{
				Row: i, Column: meta.ColLat, Kind: "geocode", Detail: "no match",
			})
			continue
		}
		_ = fr.SetCell(i, meta.ColLat, formatCoord(r.Latitude))
		_ = fr.SetCell(i, meta.ColLon, formatCoord(r.Longitude))
		_ = fr.SetCell(i, meta.ColGeoQual, qualityRank(r.Quality))
		report.Geocoded++
	}
	return nil
}

// SaveData serialises the formatted frame in the given output format and
// returns the path written. Allowed after format, or directly after load
// when the metadata declares no formatting steps.
func (c *Coordinator) SaveData(_ context.Context, format string) (string, error) {
	switch c.state {
	case StateFormatted, StateSaved:
	case StateLoaded:
		if !c.meta.IsNoopFormat() {
			return "", eris.Wrapf(ErrInvalidState, "dataset %s: save before format", c.meta.Name)
		}
	default:
		return "", eris.Wrapf(ErrInvalidState, "dataset %s: save in state %s", c.meta.Name, c.state)
	}

	w, err := c.deps.Writers.Get(format)
	if err != nil {
		return "", err
	}

	dir := c.meta.Output.Dir
	if dir == "" {
		dir = c.deps.OutputDir
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrap(err, "dataset: create output dir")
	}

	pattern := c.meta.Output.File
	if pattern == "" {
		pattern = c.deps.OutputFile
	}
	if pattern == "" {
		pattern = "{name}.{fmt}"
	}
	path := filepath.Join(dir, expandPattern(pattern, c.meta.Name, w.Format()))

	if err := w.Save(c.data, path, writer.Options{}); err != nil {
		return "", err
	}

	c.state = StateSaved
	zap.L().Info("dataset saved",
		zap.String("dataset", c.meta.Name),
		zap.String("format", w.Format()),
		zap.String("path", path),
		zap.Int("rows", c.data.NumRows()),
	)
	return path, nil
}

// expandPattern substitutes {name} and {fmt} in an output file pattern.
func expandPattern(pattern, name, format string) string {
	out := strings.ReplaceAll(pattern, "{name}", name)
	return strings.ReplaceAll(out, "{fmt}", format)
}

// sourcePath strips query and fragment from a URL so extension checks
// and basenames work for both URLs and local paths.
func sourcePath(source string) string {
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		return u.Path
	}
	return source
}

func delimiterRune(s string) rune {
	if s == "" {
		return 0
	}
	return []rune(s)[0]
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// qualityRank maps provider quality labels to the numeric geo_qual scale
// (1 best).
func qualityRank(quality string) string {
	switch quality {
	case "rooftop":
		return "1"
	case "range":
		return "2"
	case "centroid":
		return "3"
	default:
		return "4"
	}
}

package writer

import (
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/eudatnat/harvest-cli/internal/frame"
	"github.com/eudatnat/harvest-cli/internal/meta"
)

// dbfFieldLen is the attribute width used for every column. DBF has no
// variable-length strings, so longer values are truncated.
const dbfFieldLen = 254

// SHPWriter serialises a frame as a point shapefile. Rows without
// parseable coordinates are skipped, since shapes and attribute records
// must stay aligned.
type SHPWriter struct{}

// Format implements Writer.
func (SHPWriter) Format() string { return "shp" }

// Save implements Writer.
func (SHPWriter) Save(fr *frame.Frame, path string, opts Options) error {
	latCol, lonCol := opts.LatCol, opts.LonCol
	if latCol == "" {
		latCol = meta.ColLat
	}
	if lonCol == "" {
		lonCol = meta.ColLon
	}
	if !fr.HasColumn(latCol) || !fr.HasColumn(lonCol) {
		return eris.Errorf("writer: shp needs %q and %q columns", latCol, lonCol)
	}

	attrCols := make([]string, 0, len(fr.Columns()))
	for _, c := range fr.Columns() {
		if c != latCol && c != lonCol {
			attrCols = append(attrCols, c)
		}
	}

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrap(err, "writer: create shapefile")
	}
	defer w.Close() //nolint:errcheck

	fields := make([]shp.Field, len(attrCols))
	for i, c := range attrCols {
		fields[i] = shp.StringField(dbfFieldName(c), dbfFieldLen)
	}
	w.SetFields(fields)

	skipped := 0
	for i := 0; i < fr.NumRows(); i++ {
		lat, latErr := strconv.ParseFloat(fr.Cell(i, latCol), 64)
		lon, lonErr := strconv.ParseFloat(fr.Cell(i, lonCol), 64)
		if latErr != nil || lonErr != nil {
			skipped++
			continue
		}

		n := w.Write(&shp.Point{X: lon, Y: lat})
		for j, c := range attrCols {
			v := fr.Cell(i, c)
			if len(v) > dbfFieldLen {
				v = v[:dbfFieldLen]
			}
			if err := w.WriteAttribute(int(n), j, v); err != nil {
				return eris.Wrapf(err, "writer: shp attribute row %d column %q", i, c)
			}
		}
	}
	if skipped > 0 {
		zap.L().Debug("shp rows without coordinates skipped", zap.Int("rows", skipped))
	}

	return nil
}

// dbfFieldName truncates a column name to the 10-character DBF limit.
func dbfFieldName(name string) string {
	name = strings.ToUpper(name)
	if len(name) > 10 {
		return name[:10]
	}
	return name
}

package writer

import (
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/eudatnat/harvest-cli/internal/frame"
	"github.com/eudatnat/harvest-cli/internal/meta"
)

// GeoJSONWriter serialises a frame as a FeatureCollection of points. The
// non-coordinate columns become feature properties. Rows without parseable
// coordinates are skipped.
type GeoJSONWriter struct{}

// Format implements Writer.
func (GeoJSONWriter) Format() string { return "geojson" }

// Save implements Writer.
func (w GeoJSONWriter) Save(fr *frame.Frame, path string, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "writer: create geojson file")
	}
	defer f.Close() //nolint:errcheck

	if err := w.Encode(fr, f, opts); err != nil {
		return err
	}
	return eris.Wrap(f.Close(), "writer: close geojson file")
}

// Encode writes the frame to an io.Writer.
func (GeoJSONWriter) Encode(fr *frame.Frame, out io.Writer, opts Options) error {
	latCol, lonCol := opts.LatCol, opts.LonCol
	if latCol == "" {
		latCol = meta.ColLat
	}
	if lonCol == "" {
		lonCol = meta.ColLon
	}
	if !fr.HasColumn(latCol) || !fr.HasColumn(lonCol) {
		return eris.Errorf("writer: geojson needs %q and %q columns", latCol, lonCol)
	}

	propCols := make([]string, 0, len(fr.Columns()))
	for _, c := range fr.Columns() {
		if c != latCol && c != lonCol {
			propCols = append(propCols, c)
		}
	}

	fc := &geojson.FeatureCollection{}
	skipped := 0
	for i := 0; i < fr.NumRows(); i++ {
		lat, latErr := strconv.ParseFloat(fr.Cell(i, latCol), 64)
		lon, lonErr := strconv.ParseFloat(fr.Cell(i, lonCol), 64)
		if latErr != nil || lonErr != nil {
			skipped++
			continue
		}

		props := make(map[string]interface{}, len(propCols))
		for _, c := range propCols {
			props[c] = fr.Cell(i, c)
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   geom.NewPointFlat(geom.XY, []float64{lon, lat}),
			Properties: props,
		})
	}
	if skipped > 0 {
		zap.L().Debug("geojson rows without coordinates skipped", zap.Int("rows", skipped))
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "writer: encode geojson")
	}
	if _, err := out.Write(data); err != nil {
		return eris.Wrap(err, "writer: write geojson")
	}
	return nil
}

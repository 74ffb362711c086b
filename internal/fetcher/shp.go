package fetcher

import (
	"strconv"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/eudatnat/harvest-cli/internal/frame"
	"github.com/eudatnat/harvest-cli/internal/meta"
)

// ReadSHP parses a point shapefile into a frame. DBF attributes become
// columns; point coordinates are appended as lat/lon columns. Non-point
// shapes keep their attributes with empty coordinates.
func ReadSHP(path string) (*frame.Frame, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "shp: open %s", path)
	}
	defer reader.Close() //nolint:errcheck

	fields := reader.Fields()
	cols := make([]string, 0, len(fields)+2)
	for _, f := range fields {
		cols = append(cols, f.String())
	}
	cols = append(cols, meta.ColLat, meta.ColLon)

	fr := frame.New(cols)
	skipped := 0

	for reader.Next() {
		n, shape := reader.Shape()

		row := make([]string, 0, len(cols))
		for i := range fields {
			row = append(row, reader.ReadAttribute(n, i))
		}

		if pt, ok := shape.(*shp.Point); ok {
			row = append(row,
				strconv.FormatFloat(pt.Y, 'f', -1, 64),
				strconv.FormatFloat(pt.X, 'f', -1, 64),
			)
		} else {
			row = append(row, "", "")
			skipped++
		}

		if err := fr.AppendRow(row); err != nil {
			return nil, err
		}
	}

	if err := reader.Err(); err != nil {
		return nil, eris.Wrap(err, "shp: read")
	}

	if skipped > 0 {
		zap.L().Debug("shp: non-point shapes without coordinates",
			zap.Int("count", skipped),
			zap.String("path", path),
		)
	}
	return fr, nil
}

package writer

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/eudatnat/harvest-cli/internal/frame"
)

// CSVWriter serialises a frame as delimiter-separated values with a
// header row.
type CSVWriter struct{}

// Format implements Writer.
func (CSVWriter) Format() string { return "csv" }

// Save implements Writer.
func (w CSVWriter) Save(fr *frame.Frame, path string, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "writer: create csv file")
	}
	defer f.Close() //nolint:errcheck

	if err := w.Encode(fr, f, opts); err != nil {
		return err
	}
	return eris.Wrap(f.Close(), "writer: close csv file")
}

// Encode writes the frame to an io.Writer.
func (CSVWriter) Encode(fr *frame.Frame, out io.Writer, opts Options) error {
	cw := csv.NewWriter(out)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}

	if err := cw.Write(fr.Columns()); err != nil {
		return eris.Wrap(err, "writer: write csv header")
	}
	for i := 0; i < fr.NumRows(); i++ {
		if err := cw.Write(fr.Row(i)); err != nil {
			return eris.Wrapf(err, "writer: write csv row %d", i)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "writer: flush csv")
}

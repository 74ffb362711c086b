package writer

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/eudatnat/harvest-cli/internal/frame"
)

// JSONWriter serialises a frame as an array of flat objects, one per row.
type JSONWriter struct{}

// Format implements Writer.
func (JSONWriter) Format() string { return "json" }

// Save implements Writer.
func (w JSONWriter) Save(fr *frame.Frame, path string, _ Options) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "writer: create json file")
	}
	defer f.Close() //nolint:errcheck

	if err := w.Encode(fr, f); err != nil {
		return err
	}
	return eris.Wrap(f.Close(), "writer: close json file")
}

// Encode writes the frame to an io.Writer.
func (JSONWriter) Encode(fr *frame.Frame, out io.Writer) error {
	cols := fr.Columns()
	records := make([]map[string]string, 0, fr.NumRows())
	for i := 0; i < fr.NumRows(); i++ {
		rec := make(map[string]string, len(cols))
		for _, c := range cols {
			rec[c] = fr.Cell(i, c)
		}
		records = append(records, rec)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(records), "writer: encode json")
}

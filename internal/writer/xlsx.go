package writer

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/eudatnat/harvest-cli/internal/frame"
)

// XLSXWriter serialises a frame as a single-sheet Excel workbook.
type XLSXWriter struct{}

// Format implements Writer.
func (XLSXWriter) Format() string { return "xlsx" }

// Save implements Writer.
func (w XLSXWriter) Save(fr *frame.Frame, path string, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "writer: create xlsx file")
	}
	defer f.Close() //nolint:errcheck

	if err := w.Encode(fr, f, opts); err != nil {
		return err
	}
	return eris.Wrap(f.Close(), "writer: close xlsx file")
}

// Encode writes the frame to an io.Writer.
func (XLSXWriter) Encode(fr *frame.Frame, out io.Writer, _ Options) error {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("data")
	if err != nil {
		return eris.Wrap(err, "writer: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, c := range fr.Columns() {
		header.AddCell().SetString(c)
	}
	for i := 0; i < fr.NumRows(); i++ {
		row := sheet.AddRow()
		for _, v := range fr.Row(i) {
			row.AddCell().SetString(v)
		}
	}

	return eris.Wrap(wb.Write(out), "writer: write xlsx")
}

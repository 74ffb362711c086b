package fetcher

import (
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/eudatnat/harvest-cli/internal/frame"
)

// XLSXOptions configures the XLSX reader.
type XLSXOptions struct {
	Sheet    string // sheet name; empty means first sheet
	SkipRows int    // rows to skip before the header
}

// ReadXLSX parses a spreadsheet into a frame. The first row (after
// SkipRows) is the header.
func ReadXLSX(r io.Reader, opts XLSXOptions) (*frame.Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: read")
	}

	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open")
	}

	sheet, err := pickSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}

	var fr *frame.Frame
	for i, row := range sheet.Rows {
		if i < opts.SkipRows {
			continue
		}
		cells := rowToStrings(row)
		if fr == nil {
			fr = frame.New(cells)
			continue
		}
		if len(cells) > len(fr.Columns()) {
			cells = cells[:len(fr.Columns())]
		}
		if err := fr.AppendRow(cells); err != nil {
			return nil, err
		}
	}

	if fr == nil {
		return nil, eris.New("xlsx: no header row")
	}
	return fr, nil
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: file has no sheets")
	}
	if name == "" {
		return f.Sheets[0], nil
	}
	if sheet, ok := f.Sheet[name]; ok {
		return sheet, nil
	}
	// Allow a numeric sheet index as well.
	if idx, err := strconv.Atoi(name); err == nil && idx >= 0 && idx < len(f.Sheets) {
		return f.Sheets[idx], nil
	}
	return nil, eris.Errorf("xlsx: sheet %q not found", name)
}

func rowToStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		out[i] = cell.String()
	}
	return out
}

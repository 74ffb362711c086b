package fetcher

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/eudatnat/harvest-cli/internal/frame"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter rune   // default ','
	Encoding  string // IANA charset name, default utf-8
	SkipRows  int    // rows to skip before the header
}

// ReadCSV parses delimited text into a frame. The first row (after
// SkipRows) is the header.
func ReadCSV(r io.Reader, opts CSVOptions) (*frame.Frame, error) {
	decoded, err := decodeCharset(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable fields

	var fr *frame.Frame
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}

		if row < opts.SkipRows {
			row++
			continue
		}
		row++

		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}

		if fr == nil {
			fr = frame.New(record)
			continue
		}
		if len(record) > len(fr.Columns()) {
			record = record[:len(fr.Columns())]
		}
		if err := fr.AppendRow(record); err != nil {
			return nil, err
		}
	}

	if fr == nil {
		return nil, eris.New("csv: no header row")
	}
	return fr, nil
}

// decodeCharset wraps r so that it yields UTF-8, decoding from the named
// charset when one is declared.
func decodeCharset(r io.Reader, charset string) (io.Reader, error) {
	charset = strings.TrimSpace(strings.ToLower(charset))
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return r, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}

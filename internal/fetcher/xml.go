package fetcher

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/eudatnat/harvest-cli/internal/frame"
)

// ReadXMLRecords parses repeated XML record elements into a frame. Each
// element with the given local name becomes a row; its child elements'
// text content become the columns.
func ReadXMLRecords(r io.Reader, recordTag string) (*frame.Frame, error) {
	if recordTag == "" {
		return nil, eris.New("xml: record tag is required")
	}

	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "xml: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var cols []string
	seen := make(map[string]bool)
	var records []map[string]string

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "xml: read token")
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != recordTag {
			continue
		}

		rec, err := decodeRecord(decoder, se)
		if err != nil {
			return nil, err
		}
		for key := range rec {
			if !seen[key] {
				seen[key] = true
				cols = append(cols, key)
			}
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, eris.Errorf("xml: no %q elements found", recordTag)
	}

	fr := frame.New(cols)
	for _, rec := range records {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = rec[c]
		}
		if err := fr.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return fr, nil
}

// decodeRecord reads the children of a record element into a field map.
// Nested elements are flattened to their text content.
func decodeRecord(decoder *xml.Decoder, start xml.StartElement) (map[string]string, error) {
	rec := make(map[string]string)
	var field string
	var text strings.Builder
	depth := 0

	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, eris.Wrap(err, "xml: read record token")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				field = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if depth >= 1 {
				text.Write(t)
			}
		case xml.EndElement:
			if depth == 0 {
				// End of the record element itself.
				if t.Name.Local != start.Name.Local {
					return nil, eris.Errorf("xml: unexpected end element %q", t.Name.Local)
				}
				return rec, nil
			}
			if depth == 1 {
				rec[field] = strings.TrimSpace(text.String())
			}
			depth--
		}
	}
}

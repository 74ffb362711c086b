package dataset

import (
	"github.com/rotisserie/eris"

	"github.com/eudatnat/harvest-cli/internal/writer"
)

// Sentinel errors for the pipeline stages. Callers match them with
// errors.Is after eris wrapping.
var (
	// ErrSourceUnavailable means the raw source could not be fetched or
	// opened.
	ErrSourceUnavailable = eris.New("dataset: source unavailable")

	// ErrFormatMismatch means the fetched content does not parse as the
	// declared input format.
	ErrFormatMismatch = eris.New("dataset: content does not match declared format")

	// ErrSchemaViolation means a column marked required is absent from
	// the loaded data.
	ErrSchemaViolation = eris.New("dataset: required column missing")

	// ErrUnsupportedFormat is returned by save for unknown output formats.
	ErrUnsupportedFormat = writer.ErrUnsupportedFormat

	// ErrInvalidState means a stage was invoked out of order.
	ErrInvalidState = eris.New("dataset: operation not allowed in current state")
)

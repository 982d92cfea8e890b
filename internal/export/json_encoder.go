package export

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/joacominatel/tdskit/tdsclient"
)

// JSONEncoder implements RowEncoder for JSON Lines. Each row is one object
// keyed by column name. The NULL literal is written as JSON null.
type JSONEncoder struct {
	enc     *json.Encoder
	columns []string
	err     error
}

// NewJSONEncoder creates a new JSON Lines encoder.
func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{enc: json.NewEncoder(w)}
}

// WriteHeader captures the column names used as object keys.
func (e *JSONEncoder) WriteHeader(columns []string) error {
	e.columns = columns
	return nil
}

func (e *JSONEncoder) WriteRow(values []string) error {
	if e.err != nil {
		return e.err
	}

	row := make(map[string]any, len(values))
	for i, v := range values {
		key := "column_" + strconv.Itoa(i+1)
		if i < len(e.columns) && e.columns[i] != "" {
			key = e.columns[i]
		}
		if v == tdsclient.NullText {
			row[key] = nil
			continue
		}
		row[key] = v
	}

	if err := e.enc.Encode(row); err != nil {
		e.err = err
	}
	return e.err
}

func (e *JSONEncoder) Flush() error {
	return e.err
}

func (e *JSONEncoder) Error() error {
	return e.err
}

func (e *JSONEncoder) Close() error {
	return e.Flush()
}

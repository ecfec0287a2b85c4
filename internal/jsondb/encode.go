package jsondb

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// marshalJSON is json.Marshal without HTML escaping so that the reserved
// "<TABLE_SCHEMA>" and "<TABLE_ROW>" keys stay readable on disk.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Encode writes the document to w, indenting nested levels with indent
// spaces. An indent of 0 writes compact JSON.
func (db *Database) Encode(w io.Writer, indent int) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	return enc.Encode(db)
}

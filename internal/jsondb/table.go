package jsondb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
)

const (
	schemaKey = "<TABLE_SCHEMA>"
	rowsKey   = "<TABLE_ROW>"
)

// Table holds a schema and the rows conforming to it.
type Table struct {
	schema Schema
	rows   rowSet
}

// Schema returns the table's schema.
func (t *Table) Schema() Schema { return t.schema }

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows.len() }

// Rows returns an iterator over clones of the rows with their position.
func (t *Table) Rows() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i := range t.rows.len() {
			if !yield(i, t.rows.at(i).Clone()) {
				return
			}
		}
	}
}

// nextID returns the identity value of the next appended row.
func (t *Table) nextID() Value {
	return Integer(int64(t.rows.len()) + 1)
}

// check validates r against the schema. row is reported in errors.
func (t *Table) check(name string, row int, r Row) error {
	if len(r) != t.schema.Len() {
		return &RowWidthError{Row: row, Got: len(r) - 1, Want: t.schema.Len() - 1}
	}
	for i, v := range r {
		c := t.schema.Column(i)
		if v.Type() != c.Type {
			return &TypeMismatchError{Table: name, Column: c.Name, Row: row, Want: c.Type, Value: v}
		}
	}
	return nil
}

// column resolves a column name to its position.
func (t *Table) column(table, name string) (int, error) {
	i, ok := t.schema.Index(name)
	if !ok {
		return 0, &ColumnNotFoundError{Table: table, Column: name}
	}
	return i, nil
}

// MarshalJSON implements json.Marshaler. The reserved keys are written
// verbatim instead of going through encoding/json's HTML escaping.
func (t *Table) MarshalJSON() ([]byte, error) {
	schema, err := marshalJSON(t.schema)
	if err != nil {
		return nil, err
	}
	rows := t.rows.rows
	if rows == nil {
		rows = []Row{}
	}
	data, err := marshalJSON(rows)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"` + schemaKey + `":`)
	buf.Write(schema)
	buf.WriteString(`,"` + rowsKey + `":`)
	buf.Write(data)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler. Every row is validated against
// the schema.
func (t *Table) UnmarshalJSON(b []byte) error {
	var raw struct {
		Schema *Schema `json:"<TABLE_SCHEMA>"`
		Rows   []Row   `json:"<TABLE_ROW>"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Schema == nil {
		return fmt.Errorf("missing %s", schemaKey)
	}
	out := Table{schema: *raw.Schema}
	for i, r := range raw.Rows {
		if err := out.check("", i, r); err != nil {
			return fmt.Errorf("%s: %w", rowsKey, err)
		}
		out.rows.append(r)
	}
	*t = out
	return nil
}

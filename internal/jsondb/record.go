package jsondb

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is a projected row: an ordered mapping of column name to value.
type Record struct {
	columns []string
	values  []Value
}

// NewRecord builds a Record. columns and values must have the same length.
func NewRecord(columns []string, values []Value) Record {
	return Record{columns: columns, values: values}
}

// Len returns the number of columns.
func (r Record) Len() int { return len(r.columns) }

// Columns returns the column names in order.
func (r Record) Columns() []string { return append([]string(nil), r.columns...) }

// Values returns the values in column order.
func (r Record) Values() []Value { return append([]Value(nil), r.values...) }

// Get returns the value of the named column.
func (r Record) Get(column string) (Value, bool) {
	for i, c := range r.columns {
		if c == column {
			return r.values[i], true
		}
	}
	return Value{}, false
}

// Map returns the record as plain Go values.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i].Any()
	}
	return m
}

func (r Record) ordered() *orderedmap.OrderedMap[string, Value] {
	m := orderedmap.New[string, Value](len(r.columns))
	for i, c := range r.columns {
		m.Set(c, r.values[i])
	}
	return m
}

// MarshalJSON writes the record as an object in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ordered())
}

// UnmarshalJSON reads an object, keeping key order.
func (r *Record) UnmarshalJSON(b []byte) error {
	m := orderedmap.New[string, Value]()
	if err := json.Unmarshal(b, m); err != nil {
		return err
	}
	out := Record{}
	for p := m.Oldest(); p != nil; p = p.Next() {
		out.columns = append(out.columns, p.Key)
		out.values = append(out.values, p.Value)
	}
	*r = out
	return nil
}

// MarshalYAML implements yaml.Marshaler, keeping column order.
func (r Record) MarshalYAML() (any, error) {
	return r.ordered(), nil
}

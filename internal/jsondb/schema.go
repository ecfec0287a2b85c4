// Handles schema definition and the identity column.

package jsondb

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// IdentityColumn is the reserved first column of every table.
const IdentityColumn = "OBJECT_ID"

// Column is a named, typed column.
type Column struct {
	Name string `json:"name" yaml:"name"`
	Type Type   `json:"type" yaml:"type"`
}

// ColumnSpec is a caller supplied column declaration. Type is the raw tag so
// that unknown tags can be reported instead of failing to parse.
type ColumnSpec struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema is the ordered column set of a table. Column 0 is IdentityColumn.
type Schema struct {
	columns []Column
	index   map[string]int
}

func newSchema() Schema {
	s := Schema{index: map[string]int{}}
	s.add(Column{Name: IdentityColumn, Type: TypeInteger})
	return s
}

func (s *Schema) add(c Column) {
	s.index[c.Name] = len(s.columns)
	s.columns = append(s.columns, c)
}

// Len returns the number of columns including the identity column.
func (s Schema) Len() int { return len(s.columns) }

// Column returns the i-th column.
func (s Schema) Column(i int) Column { return s.columns[i] }

// Columns returns a copy of the columns in order.
func (s Schema) Columns() []Column {
	return append([]Column(nil), s.columns...)
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the named column.
func (s Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// MarshalJSON writes the schema as an ordered object of name to type tag.
func (s Schema) MarshalJSON() ([]byte, error) {
	m := orderedmap.New[string, Type](len(s.columns))
	for _, c := range s.columns {
		m.Set(c.Name, c.Type)
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads an ordered object of name to type tag. The first entry
// must be the identity column.
func (s *Schema) UnmarshalJSON(b []byte) error {
	if k, ok := duplicateKey(b); ok {
		return fmt.Errorf("column %q: %w", k, ErrDuplicateColumn)
	}
	m := orderedmap.New[string, Type]()
	if err := json.Unmarshal(b, m); err != nil {
		return err
	}
	first := m.Oldest()
	if first == nil || first.Key != IdentityColumn || first.Value != TypeInteger {
		return fmt.Errorf("schema must start with %s INTEGER", IdentityColumn)
	}
	out := Schema{index: make(map[string]int, m.Len())}
	for p := first; p != nil; p = p.Next() {
		out.add(Column{Name: p.Key, Type: p.Value})
	}
	*s = out
	return nil
}

// duplicateKey returns the first key repeated in the JSON object b. Decoding
// into a map silently keeps the last one.
func duplicateKey(b []byte) (string, bool) {
	seen := map[string]struct{}{}
	dup, found := "", false
	gjson.ParseBytes(b).ForEach(func(k, _ gjson.Result) bool {
		if _, ok := seen[k.String()]; ok {
			dup, found = k.String(), true
			return false
		}
		seen[k.String()] = struct{}{}
		return true
	})
	return dup, found
}

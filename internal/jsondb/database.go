package jsondb

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Persister stores a whole Database.
type Persister interface {
	Save(db *Database) error
}

// Database is the whole document: tables keyed by name, in creation order.
type Database struct {
	tables *orderedmap.OrderedMap[string, *Table]
}

// New returns an empty Database.
func New() *Database {
	return &Database{tables: orderedmap.New[string, *Table]()}
}

// Tables returns the table names in creation order.
func (db *Database) Tables() []string {
	out := make([]string, 0, db.tables.Len())
	for p := db.tables.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

// Table returns the named table.
func (db *Database) Table(name string) (*Table, bool) {
	return db.tables.Get(name)
}

func (db *Database) table(name string) (*Table, error) {
	t, ok := db.tables.Get(name)
	if !ok {
		return nil, &TableNotFoundError{Table: name}
	}
	return t, nil
}

// CreateTable creates the named table, replacing any table with that name.
//
// The identity column is always added first. Specs are then added in order
// until the first one that cannot be added (unknown type tag, reserved or
// duplicate name): that spec is recorded in Result.Rejected and the remaining
// specs are dropped. The table is created in every case.
func (db *Database) CreateTable(name string, specs []ColumnSpec) (Result, error) {
	if name == "" {
		return Result{}, ErrEmptyTableName
	}
	res := Result{Op: OpCreate, Table: name}
	t := &Table{schema: newSchema()}
	for _, spec := range specs {
		typ, err := ParseType(spec.Type)
		if err != nil {
			res.reject(&InvalidTypeError{Column: spec.Name, Type: spec.Type})
			break
		}
		if spec.Name == IdentityColumn {
			res.reject(fmt.Errorf("column %q: %w", spec.Name, ErrIdentityColumn))
			break
		}
		if _, dup := t.schema.Index(spec.Name); dup {
			res.reject(fmt.Errorf("column %q: %w", spec.Name, ErrDuplicateColumn))
			break
		}
		t.schema.add(Column{Name: spec.Name, Type: typ})
		res.Count++
	}
	db.tables.Set(name, t)
	return res, nil
}

// MarshalJSON implements json.Marshaler.
func (db *Database) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for p := db.tables.Oldest(); p != nil; p = p.Next() {
		if p != db.tables.Oldest() {
			buf.WriteByte(',')
		}
		key, err := marshalJSON(p.Key)
		if err != nil {
			return nil, err
		}
		data, err := p.Value.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", p.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (db *Database) UnmarshalJSON(b []byte) error {
	if k, ok := duplicateKey(b); ok {
		return fmt.Errorf("table %q is defined twice", k)
	}
	tables := orderedmap.New[string, *Table]()
	if err := json.Unmarshal(b, tables); err != nil {
		return err
	}
	for p := tables.Oldest(); p != nil; p = p.Next() {
		if p.Value == nil {
			return fmt.Errorf("table %q: null definition", p.Key)
		}
	}
	db.tables = tables
	return nil
}

// Option configures a mutation.
type Option func(*options)

type options struct {
	persister Persister
}

// WithCommit saves the Database through p once the mutation is applied.
func WithCommit(p Persister) Option {
	return func(o *options) { o.persister = p }
}

func (db *Database) commit(res Result, opts []Option) (Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.persister == nil {
		return res, nil
	}
	if err := o.persister.Save(db); err != nil {
		return res, fmt.Errorf("failed to commit %s on %q: %w", res.Op, res.Table, err)
	}
	return res, nil
}

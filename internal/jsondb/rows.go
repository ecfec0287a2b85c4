package jsondb

import "slices"

// Row is one record, positionally aligned with its table's schema. Element 0
// is the identity value.
type Row []Value

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	return slices.Clone(r)
}

// ID returns the identity value.
func (r Row) ID() int64 {
	if len(r) == 0 {
		return 0
	}
	return r[0].Int()
}

// rowSet holds rows in insertion order.
type rowSet struct {
	rows []Row
}

func (s *rowSet) len() int { return len(s.rows) }

func (s *rowSet) at(i int) Row { return s.rows[i] }

func (s *rowSet) append(r Row) { s.rows = append(s.rows, r) }

func (s *rowSet) replaceAt(i int, r Row) { s.rows[i] = r }

func (s *rowSet) removeAt(i int) {
	s.rows = slices.Delete(s.rows, i, i+1)
}

// Implements insert, update and delete.

package jsondb

import "fmt"

// Insert appends rows to the named table.
//
// Each candidate row holds the values of the non-identity columns in schema
// order. Its identity is the table's row count plus one at the time the row is
// examined. A row with the wrong width or a value whose type differs from its
// column is skipped whole and recorded in Result.Rejected; the other rows are
// appended in order.
func (db *Database) Insert(table string, rows ...[]Value) (Result, error) {
	t, err := db.table(table)
	if err != nil {
		return Result{}, err
	}
	res := Result{Op: OpInsert, Table: table}
	for i, values := range rows {
		r := make(Row, 0, len(values)+1)
		r = append(r, t.nextID())
		r = append(r, values...)
		if err := t.check(table, i, r); err != nil {
			res.reject(err)
			continue
		}
		t.rows.append(r)
		res.Count++
	}
	return res, nil
}

// UpdateOne applies set to the first row matching filter.
//
// Every assigned column and the filter column must exist, and OBJECT_ID cannot
// be assigned; otherwise nothing is modified and an error is returned. Only the
// first matching row is examined: if one of the assignments has the wrong type
// the row is left untouched, the mismatch is recorded in Result.Rejected and
// later matching rows are not considered.
func (db *Database) UpdateOne(table string, filter Eq, set []Assignment, opts ...Option) (Result, error) {
	t, err := db.table(table)
	if err != nil {
		return Result{}, err
	}
	idx := make([]int, len(set))
	for i, a := range set {
		if idx[i], err = t.column(table, a.Column); err != nil {
			return Result{}, err
		}
		if idx[i] == 0 {
			return Result{}, fmt.Errorf("cannot update %q: %w", a.Column, ErrIdentityColumn)
		}
	}
	col, err := t.column(table, filter.Column())
	if err != nil {
		return Result{}, err
	}
	res := Result{Op: OpUpdate, Table: table}
	for i := range t.rows.len() {
		r := t.rows.at(i)
		if !filter.Match(r[col]) {
			continue
		}
		if err := checkAssignments(table, t.schema, set, idx); err != nil {
			res.reject(err)
			break
		}
		updated := r.Clone()
		for j, a := range set {
			updated[idx[j]] = a.Value
		}
		t.rows.replaceAt(i, updated)
		res.Count++
		break
	}
	return db.commit(res, opts)
}

func checkAssignments(table string, s Schema, set []Assignment, idx []int) error {
	for j, a := range set {
		c := s.Column(idx[j])
		if a.Value.Type() != c.Type {
			return &TypeMismatchError{Table: table, Column: c.Name, Row: -1, Want: c.Type, Value: a.Value}
		}
	}
	return nil
}

// DeleteOne removes every row whose filter column equals the filter value.
//
// Despite its name it does not stop at the first match.
func (db *Database) DeleteOne(table string, filter Eq, opts ...Option) (Result, error) {
	return db.delete(table, filter, opts)
}

// DeleteMany removes every row whose filter column is one of the filter
// values.
func (db *Database) DeleteMany(table string, filter In, opts ...Option) (Result, error) {
	return db.delete(table, filter, opts)
}

func (db *Database) delete(table string, filter Filter, opts []Option) (Result, error) {
	t, err := db.table(table)
	if err != nil {
		return Result{}, err
	}
	col, err := t.column(table, filter.Column())
	if err != nil {
		return Result{}, err
	}
	res := Result{Op: OpDelete, Table: table}
	for i := 0; i < t.rows.len(); {
		if filter.Match(t.rows.at(i)[col]) {
			t.rows.removeAt(i)
			res.Count++
			continue
		}
		i++
	}
	return db.commit(res, opts)
}

package jsondb

// FetchOne returns the rows whose filter column is one of the filter values,
// projected to fields. Every matching row is returned, in table order.
func (db *Database) FetchOne(table string, filter In, fields ...string) ([]Record, error) {
	t, err := db.table(table)
	if err != nil {
		return nil, err
	}
	col, err := t.column(table, filter.Column())
	if err != nil {
		return nil, err
	}
	proj, err := t.projection(table, fields)
	if err != nil {
		return nil, err
	}
	out := []Record{}
	for i := range t.rows.len() {
		if r := t.rows.at(i); filter.Match(r[col]) {
			out = append(out, proj.record(r))
		}
	}
	return out, nil
}

// FetchAll returns every row of the table projected to fields.
func (db *Database) FetchAll(table string, fields ...string) ([]Record, error) {
	t, err := db.table(table)
	if err != nil {
		return nil, err
	}
	proj, err := t.projection(table, fields)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, t.rows.len())
	for i := range t.rows.len() {
		out = append(out, proj.record(t.rows.at(i)))
	}
	return out, nil
}

// projection is the ordered subset of columns returned by a query.
type projection struct {
	names []string
	idx   []int
}

// projection resolves fields against the schema. Columns keep schema order
// regardless of the order of fields; no fields selects every column.
func (t *Table) projection(table string, fields []string) (projection, error) {
	keep := make([]bool, t.schema.Len())
	if len(fields) == 0 {
		for i := range keep {
			keep[i] = true
		}
	}
	for _, f := range fields {
		i, err := t.column(table, f)
		if err != nil {
			return projection{}, err
		}
		keep[i] = true
	}
	var p projection
	for i, k := range keep {
		if k {
			p.names = append(p.names, t.schema.Column(i).Name)
			p.idx = append(p.idx, i)
		}
	}
	return p, nil
}

func (p projection) record(r Row) Record {
	values := make([]Value, len(p.idx))
	for i, j := range p.idx {
		values[i] = r[j]
	}
	return Record{columns: p.names, values: values}
}

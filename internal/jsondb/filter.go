package jsondb

// Filter selects rows by the value of a single column.
type Filter interface {
	// Column returns the filtered column name.
	Column() string
	// Match reports whether a column value is selected.
	Match(v Value) bool
}

// Eq selects rows whose column equals Value.
type Eq struct {
	Col   string
	Value Value
}

// Column implements Filter.
func (f Eq) Column() string { return f.Col }

// Match implements Filter.
func (f Eq) Match(v Value) bool { return v.Equal(f.Value) }

// In selects rows whose column equals any of Values.
type In struct {
	Col    string
	Values []Value
}

// Column implements Filter.
func (f In) Column() string { return f.Col }

// Match implements Filter.
func (f In) Match(v Value) bool {
	for _, x := range f.Values {
		if v.Equal(x) {
			return true
		}
	}
	return false
}

// Assignment sets a column to a value in UpdateOne.
type Assignment struct {
	Column string
	Value  Value
}

// Set is a shorthand for an Assignment.
func Set(column string, v Value) Assignment {
	return Assignment{Column: column, Value: v}
}

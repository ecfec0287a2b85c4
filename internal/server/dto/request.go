package dto

import (
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/maruel/jsondb/internal/jsondb"
)

// Validatable is implemented by request types that can validate their fields.
// Wrap uses it as a type constraint so every request is validated before its
// handler runs.
type Validatable interface {
	Validate() error
}

// HealthRequest is a request to check server health.
type HealthRequest struct{}

// Validate is a no-op for HealthRequest.
func (r *HealthRequest) Validate() error {
	return nil
}

// --- Tables ---

// ListTablesRequest is a request to list all tables.
type ListTablesRequest struct{}

// Validate is a no-op for ListTablesRequest.
func (r *ListTablesRequest) Validate() error {
	return nil
}

// ColumnSpec declares a column in CreateTableRequest.
type ColumnSpec struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CreateTableRequest is a request to create or replace a table.
type CreateTableRequest struct {
	Name    string       `json:"name"`
	Columns []ColumnSpec `json:"columns"`
}

// Validate validates the create table request fields.
func (r *CreateTableRequest) Validate() error {
	if r.Name == "" {
		return MissingField("name")
	}
	for i, c := range r.Columns {
		if c.Name == "" {
			return MissingField("columns[" + strconv.Itoa(i) + "].name")
		}
	}
	return nil
}

// Specs returns the columns in the engine's representation.
func (r *CreateTableRequest) Specs() []jsondb.ColumnSpec {
	out := make([]jsondb.ColumnSpec, len(r.Columns))
	for i, c := range r.Columns {
		out[i] = jsondb.ColumnSpec{Name: c.Name, Type: c.Type}
	}
	return out
}

// GetTableRequest is a request to describe a table.
type GetTableRequest struct {
	Table string `path:"table"`
}

// Validate validates the get table request fields.
func (r *GetTableRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	return nil
}

// --- Rows ---

// ListRowsRequest is a request to fetch every row of a table.
type ListRowsRequest struct {
	Table string `path:"table"`
	// Fields is a comma separated projection. Empty means every column.
	Fields string `query:"fields"`
}

// Validate validates the list rows request fields.
func (r *ListRowsRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	for _, f := range r.FieldList() {
		if f == "" {
			return InvalidField("fields", "empty column name")
		}
	}
	return nil
}

// FieldList returns the projected columns.
func (r *ListRowsRequest) FieldList() []string {
	if r.Fields == "" {
		return nil
	}
	fields := strings.Split(r.Fields, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// InsertRowsRequest is a request to append rows to a table.
//
// Each row holds the values of the non-identity columns in schema order.
type InsertRowsRequest struct {
	Table string           `path:"table"`
	Rows  [][]jsondb.Value `json:"rows"`
}

// Validate validates the insert rows request fields.
func (r *InsertRowsRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	if len(r.Rows) == 0 {
		return MissingField("rows")
	}
	return nil
}

// QueryRowsRequest is a request to fetch the rows whose column value is one
// of Values.
type QueryRowsRequest struct {
	Table  string         `path:"table"`
	Column string         `json:"column"`
	Values []jsondb.Value `json:"values"`
	Fields []string       `json:"fields,omitempty"`
}

// Validate validates the query rows request fields.
func (r *QueryRowsRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	if r.Column == "" {
		return MissingField("column")
	}
	if len(r.Values) == 0 {
		return MissingField("values")
	}
	return nil
}

// Filter returns the membership filter.
func (r *QueryRowsRequest) Filter() jsondb.In {
	return jsondb.In{Col: r.Column, Values: r.Values}
}

// UpdateRowRequest is a request to update the first row whose column equals
// Value.
type UpdateRowRequest struct {
	Table  string                                       `path:"table"`
	Column string                                       `json:"column"`
	Value  *jsondb.Value                                `json:"value"`
	Set    *orderedmap.OrderedMap[string, jsondb.Value] `json:"set"`
}

// Validate validates the update row request fields.
func (r *UpdateRowRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	if r.Column == "" {
		return MissingField("column")
	}
	if r.Value == nil {
		return MissingField("value")
	}
	if r.Set == nil || r.Set.Len() == 0 {
		return MissingField("set")
	}
	return nil
}

// Filter returns the equality filter.
func (r *UpdateRowRequest) Filter() jsondb.Eq {
	return jsondb.Eq{Col: r.Column, Value: *r.Value}
}

// Assignments returns the assignments in request order.
func (r *UpdateRowRequest) Assignments() []jsondb.Assignment {
	out := make([]jsondb.Assignment, 0, r.Set.Len())
	for p := r.Set.Oldest(); p != nil; p = p.Next() {
		out = append(out, jsondb.Set(p.Key, p.Value))
	}
	return out
}

// DeleteRowsRequest is a request to delete rows.
//
// Exactly one of Value (every row equal to it) and Values (every row equal to
// one of them) must be set.
type DeleteRowsRequest struct {
	Table  string         `path:"table"`
	Column string         `json:"column"`
	Value  *jsondb.Value  `json:"value,omitempty"`
	Values []jsondb.Value `json:"values,omitempty"`
}

// Validate validates the delete rows request fields.
func (r *DeleteRowsRequest) Validate() error {
	if r.Table == "" {
		return MissingField("table")
	}
	if r.Column == "" {
		return MissingField("column")
	}
	if r.Value == nil && len(r.Values) == 0 {
		return MissingField("value")
	}
	if r.Value != nil && len(r.Values) != 0 {
		return BadRequest("value and values are mutually exclusive")
	}
	return nil
}

// --- Document ---

// JSONSchemaRequest is a request for the JSON Schema of the document.
type JSONSchemaRequest struct{}

// Validate is a no-op for JSONSchemaRequest.
func (r *JSONSchemaRequest) Validate() error {
	return nil
}

// HistoryRequest is a request for the commits of the document.
type HistoryRequest struct {
	Limit int `query:"limit"`
}

// Validate validates the history request fields.
func (r *HistoryRequest) Validate() error {
	if r.Limit < 0 || r.Limit > 1000 {
		return InvalidField("limit", "must be between 0 and 1000")
	}
	return nil
}

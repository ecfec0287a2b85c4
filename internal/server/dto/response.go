package dto

import (
	"time"

	"github.com/maruel/jsondb/internal/jsondb"
)

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// --- Tables ---

// TableSummary is a brief representation of a table for list responses.
type TableSummary struct {
	Name    string `json:"name"`
	Columns int    `json:"columns"`
	Rows    int    `json:"rows"`
}

// ListTablesResponse lists the tables in creation order.
type ListTablesResponse struct {
	Tables []TableSummary `json:"tables"`
}

// ColumnResponse describes one column.
type ColumnResponse struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableResponse describes a table's schema.
type TableResponse struct {
	Name    string           `json:"name"`
	Columns []ColumnResponse `json:"columns"`
	Rows    int              `json:"rows"`
}

// NewTableResponse describes t.
func NewTableResponse(name string, t *jsondb.Table) *TableResponse {
	cols := t.Schema().Columns()
	out := &TableResponse{Name: name, Columns: make([]ColumnResponse, len(cols)), Rows: t.Len()}
	for i, c := range cols {
		out.Columns[i] = ColumnResponse{Name: c.Name, Type: c.Type.String()}
	}
	return out
}

// --- Mutations ---

// ResultResponse reports the outcome of a mutation.
type ResultResponse struct {
	Op       string   `json:"op"`
	Table    string   `json:"table"`
	Count    int      `json:"count"`
	Status   string   `json:"status"`
	Rejected []string `json:"rejected,omitempty"`
}

// NewResultResponse converts a jsondb.Result.
func NewResultResponse(res jsondb.Result) *ResultResponse {
	out := &ResultResponse{Op: string(res.Op), Table: res.Table, Count: res.Count, Status: res.String()}
	for _, err := range res.Rejected {
		out.Rejected = append(out.Rejected, err.Error())
	}
	return out
}

// --- Queries ---

// RecordsResponse holds query results. Each record keeps schema column order.
type RecordsResponse struct {
	Records []jsondb.Record `json:"records"`
	Count   int             `json:"count"`
}

// NewRecordsResponse wraps records, never returning a null list.
func NewRecordsResponse(records []jsondb.Record) *RecordsResponse {
	if records == nil {
		records = []jsondb.Record{}
	}
	return &RecordsResponse{Records: records, Count: len(records)}
}

// --- Document ---

// CommitResponse describes one commit of the document.
type CommitResponse struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
	Author  string `json:"author"`
	Date    string `json:"date"` // RFC3339
}

// HistoryResponse lists commits, newest first.
type HistoryResponse struct {
	Commits []CommitResponse `json:"commits"`
}

// FormatTime formats a timestamp for API responses.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

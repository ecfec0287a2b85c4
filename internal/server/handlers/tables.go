// Handles table and row endpoints.

package handlers

import (
	"context"

	"github.com/maruel/jsondb/internal/jsondb"
	"github.com/maruel/jsondb/internal/server/dto"
)

// TableHandler handles table and row requests.
type TableHandler struct {
	store *Store
}

// NewTableHandler creates a new table handler.
func NewTableHandler(store *Store) *TableHandler {
	return &TableHandler{store: store}
}

// ListTables returns every table in creation order.
func (h *TableHandler) ListTables(ctx context.Context, _ *dto.ListTablesRequest) (*dto.ListTablesResponse, error) {
	resp := &dto.ListTablesResponse{Tables: []dto.TableSummary{}}
	err := h.store.View(func(db *jsondb.Database) error {
		for _, name := range db.Tables() {
			t, _ := db.Table(name)
			resp.Tables = append(resp.Tables, dto.TableSummary{Name: name, Columns: t.Schema().Len(), Rows: t.Len()})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateTable creates or replaces a table.
func (h *TableHandler) CreateTable(ctx context.Context, req *dto.CreateTableRequest) (*dto.ResultResponse, error) {
	res, err := h.store.Update(ctx, func(db *jsondb.Database) (jsondb.Result, error) {
		return db.CreateTable(req.Name, req.Specs())
	})
	if err != nil {
		return nil, err
	}
	return dto.NewResultResponse(res), nil
}

// GetTable describes a table.
func (h *TableHandler) GetTable(ctx context.Context, req *dto.GetTableRequest) (*dto.TableResponse, error) {
	var resp *dto.TableResponse
	err := h.store.View(func(db *jsondb.Database) error {
		t, ok := db.Table(req.Table)
		if !ok {
			return &jsondb.TableNotFoundError{Table: req.Table}
		}
		resp = dto.NewTableResponse(req.Table, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ListRows returns every row of a table, projected on the requested fields.
func (h *TableHandler) ListRows(ctx context.Context, req *dto.ListRowsRequest) (*dto.RecordsResponse, error) {
	var records []jsondb.Record
	err := h.store.View(func(db *jsondb.Database) error {
		var err error
		records, err = db.FetchAll(req.Table, req.FieldList()...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto.NewRecordsResponse(records), nil
}

// InsertRows appends rows to a table. Rejected rows are listed in the
// response.
func (h *TableHandler) InsertRows(ctx context.Context, req *dto.InsertRowsRequest) (*dto.ResultResponse, error) {
	res, err := h.store.Update(ctx, func(db *jsondb.Database) (jsondb.Result, error) {
		return db.Insert(req.Table, req.Rows...)
	})
	if err != nil {
		return nil, err
	}
	return dto.NewResultResponse(res), nil
}

// QueryRows returns the rows whose column value is one of the requested
// values.
func (h *TableHandler) QueryRows(ctx context.Context, req *dto.QueryRowsRequest) (*dto.RecordsResponse, error) {
	var records []jsondb.Record
	err := h.store.View(func(db *jsondb.Database) error {
		var err error
		records, err = db.FetchOne(req.Table, req.Filter(), req.Fields...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto.NewRecordsResponse(records), nil
}

// UpdateRow updates the first row matching the filter.
func (h *TableHandler) UpdateRow(ctx context.Context, req *dto.UpdateRowRequest) (*dto.ResultResponse, error) {
	res, err := h.store.Update(ctx, func(db *jsondb.Database) (jsondb.Result, error) {
		return db.UpdateOne(req.Table, req.Filter(), req.Assignments())
	})
	if err != nil {
		return nil, err
	}
	return dto.NewResultResponse(res), nil
}

// DeleteRows deletes every row equal to value, or equal to one of values.
func (h *TableHandler) DeleteRows(ctx context.Context, req *dto.DeleteRowsRequest) (*dto.ResultResponse, error) {
	res, err := h.store.Update(ctx, func(db *jsondb.Database) (jsondb.Result, error) {
		if req.Value != nil {
			return db.DeleteOne(req.Table, jsondb.Eq{Col: req.Column, Value: *req.Value})
		}
		return db.DeleteMany(req.Table, jsondb.In{Col: req.Column, Values: req.Values})
	})
	if err != nil {
		return nil, err
	}
	return dto.NewResultResponse(res), nil
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/maruel/jsondb/internal/jsondb"
	"github.com/maruel/jsondb/internal/server/dto"
	"github.com/maruel/jsondb/internal/storage"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.json")
	fs, err := storage.NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewStore(fs)
	if err != nil {
		t.Fatal(err)
	}
	return s, path
}

func TestHealthHandler_Health(t *testing.T) {
	for _, version := range []string{"1.0.0", "dev", ""} {
		t.Run(version, func(t *testing.T) {
			handler := NewHealthHandler(&Config{Version: version})
			resp, err := handler.Health(context.Background(), &dto.HealthRequest{})
			if err != nil {
				t.Fatalf("Health() error = %v", err)
			}
			if resp.Status != "ok" {
				t.Errorf("Status = %q, want ok", resp.Status)
			}
			if resp.Version != version {
				t.Errorf("Version = %q, want %q", resp.Version, version)
			}
		})
	}
}

func TestTableHandler(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)
	h := NewTableHandler(s)

	res, err := h.CreateTable(ctx, &dto.CreateTableRequest{
		Name:    "USERS",
		Columns: []dto.ColumnSpec{{Name: "NAME", Type: "STRING"}, {Name: "AGE", Type: "INTEGER"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Count != 2 {
		t.Errorf("Count = %d, want 2", res.Count)
	}
	res, err = h.InsertRows(ctx, &dto.InsertRowsRequest{
		Table: "USERS",
		Rows:  [][]jsondb.Value{jsondb.MustValues("Amy", 30), jsondb.MustValues("Bo", "x")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Count != 1 || len(res.Rejected) != 1 {
		t.Errorf("insert = %+v", res)
	}

	list, err := h.ListTables(ctx, &dto.ListTablesRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]dto.TableSummary{{Name: "USERS", Columns: 3, Rows: 1}}, list.Tables); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}

	// Every mutation is saved.
	fs, err := storage.NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	db, err := fs.Load()
	if err != nil {
		t.Fatal(err)
	}
	records, err := db.FetchAll("USERS", "NAME")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("persisted %d rows, want 1", len(records))
	}

	age := jsondb.Integer(30)
	if _, err := h.DeleteRows(ctx, &dto.DeleteRowsRequest{Table: "USERS", Column: "AGE", Value: &age}); err != nil {
		t.Fatal(err)
	}
	rows, err := h.ListRows(ctx, &dto.ListRowsRequest{Table: "USERS"})
	if err != nil {
		t.Fatal(err)
	}
	if rows.Count != 0 || rows.Records == nil {
		t.Errorf("rows = %+v", rows)
	}

	_, err = h.GetTable(ctx, &dto.GetTableRequest{Table: "MISSING"})
	var ews dto.ErrorWithStatus
	if !errors.As(err, &ews) || ews.StatusCode() != http.StatusNotFound {
		t.Errorf("GetTable(MISSING) = %v", err)
	}
}

func TestStore_Reload(t *testing.T) {
	s, path := newTestStore(t)
	if err := os.WriteFile(path, []byte(`{"T":{"<TABLE_SCHEMA>":{"OBJECT_ID":"INTEGER"},"<TABLE_ROW>":[[1]]}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err != nil {
		t.Fatal(err)
	}
	err := s.View(func(db *jsondb.Database) error {
		if got := db.Tables(); len(got) != 1 || got[0] != "T" {
			t.Errorf("Tables() = %v", got)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(`{`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err == nil {
		t.Error("expected reload error")
	}
}

func TestStore_UpdateSaveFailure(t *testing.T) {
	s, path := newTestStore(t)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(path, 0o700); err != nil {
		t.Fatal(err)
	}
	_, err := s.Update(t.Context(), func(db *jsondb.Database) (jsondb.Result, error) {
		return db.CreateTable("T", nil)
	})
	var ews dto.ErrorWithStatus
	if !errors.As(err, &ews) || ews.Code() != dto.ErrorCodeStorageError {
		t.Fatalf("Update() = %v, want a storage error", err)
	}

	// Another writer replaces the document while T is only in memory.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"OTHER":{"<TABLE_SCHEMA>":{"OBJECT_ID":"INTEGER"},"<TABLE_ROW>":[]}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); !errors.Is(err, ErrUnsaved) {
		t.Fatalf("Reload() = %v, want ErrUnsaved", err)
	}
	tables := func() []string {
		var got []string
		if err := s.View(func(db *jsondb.Database) error {
			got = db.Tables()
			return nil
		}); err != nil {
			t.Fatal(err)
		}
		return got
	}
	if diff := cmp.Diff([]string{"T"}, tables()); diff != "" {
		t.Errorf("Tables() after Reload mismatch (-want +got):\n%s", diff)
	}

	// The next successful save writes the kept change and allows reloads again.
	if _, err := s.Update(t.Context(), func(db *jsondb.Database) (jsondb.Result, error) {
		return db.CreateTable("U", nil)
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"T", "U"}, tables()); diff != "" {
		t.Errorf("Tables() after save mismatch (-want +got):\n%s", diff)
	}
}

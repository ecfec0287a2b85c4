package jsondb

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func specs(pairs ...string) []ColumnSpec {
	out := make([]ColumnSpec, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, ColumnSpec{Name: pairs[i], Type: pairs[i+1]})
	}
	return out
}

// newUsers returns a database with a USERS(NAME STRING, AGE INTEGER) table.
func newUsers(t *testing.T, rows ...[]Value) *Database {
	t.Helper()
	db := New()
	if _, err := db.CreateTable("USERS", specs("NAME", "STRING", "AGE", "INTEGER")); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	if len(rows) > 0 {
		res, err := db.Insert("USERS", rows...)
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if res.Count != len(rows) {
			t.Fatalf("Insert count = %d, want %d: %v", res.Count, len(rows), res.Err())
		}
	}
	return db
}

func TestCreateTable(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		tests := []struct {
			name      string
			specs     []ColumnSpec
			wantCount int
			wantCols  []Column
		}{
			{
				name:      "no columns",
				wantCount: 0,
				wantCols:  []Column{{IdentityColumn, TypeInteger}},
			},
			{
				name:      "all types in order",
				specs:     specs("NAME", "STRING", "AGE", "INTEGER", "ACTIVE", "BOOL", "SCORE", "FLOAT"),
				wantCount: 4,
				wantCols: []Column{
					{IdentityColumn, TypeInteger},
					{"NAME", TypeString},
					{"AGE", TypeInteger},
					{"ACTIVE", TypeBool},
					{"SCORE", TypeFloat},
				},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				db := New()
				res, err := db.CreateTable("T", tt.specs)
				if err != nil {
					t.Fatal(err)
				}
				if res.Count != tt.wantCount || len(res.Rejected) != 0 {
					t.Errorf("Result = %+v, want Count %d and no rejections", res, tt.wantCount)
				}
				tbl, ok := db.Table("T")
				if !ok {
					t.Fatal("table not created")
				}
				if diff := cmp.Diff(tt.wantCols, tbl.Schema().Columns()); diff != "" {
					t.Errorf("columns mismatch (-want +got):\n%s", diff)
				}
				if tbl.Len() != 0 {
					t.Errorf("Len() = %d, want 0", tbl.Len())
				}
			})
		}
	})

	t.Run("stops at first rejected column", func(t *testing.T) {
		tests := []struct {
			name      string
			specs     []ColumnSpec
			wantNames []string
			wantErr   error
		}{
			{"invalid type", specs("A", "STRING", "B", "DATE", "C", "BOOL"), []string{IdentityColumn, "A"}, ErrInvalidType},
			{"invalid first", specs("A", "string", "B", "BOOL"), []string{IdentityColumn}, ErrInvalidType},
			{"identity name", specs("A", "STRING", IdentityColumn, "INTEGER", "C", "BOOL"), []string{IdentityColumn, "A"}, ErrIdentityColumn},
			{"duplicate", specs("A", "STRING", "A", "FLOAT", "C", "BOOL"), []string{IdentityColumn, "A"}, ErrDuplicateColumn},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				db := New()
				res, err := db.CreateTable("T", tt.specs)
				if err != nil {
					t.Fatal(err)
				}
				if res.Count != len(tt.wantNames)-1 {
					t.Errorf("Count = %d, want %d", res.Count, len(tt.wantNames)-1)
				}
				if len(res.Rejected) != 1 || !errors.Is(res.Rejected[0], tt.wantErr) {
					t.Errorf("Rejected = %v, want one %v", res.Rejected, tt.wantErr)
				}
				tbl, _ := db.Table("T")
				if got := tbl.Schema().Names(); !slices.Equal(got, tt.wantNames) {
					t.Errorf("Names() = %v, want %v", got, tt.wantNames)
				}
			})
		}
	})

	t.Run("overwrites existing table", func(t *testing.T) {
		db := newUsers(t, MustValues("Amy", 30))
		db.CreateTable("OTHER", nil)
		res, err := db.CreateTable("USERS", specs("EMAIL", "STRING"))
		if err != nil {
			t.Fatal(err)
		}
		if res.Count != 1 {
			t.Errorf("Count = %d, want 1", res.Count)
		}
		tbl, _ := db.Table("USERS")
		if tbl.Len() != 0 {
			t.Errorf("Len() = %d, want 0 after re-creation", tbl.Len())
		}
		if got := db.Tables(); !slices.Equal(got, []string{"USERS", "OTHER"}) {
			t.Errorf("Tables() = %v, want creation order kept", got)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		db := New()
		if _, err := db.CreateTable("", nil); !errors.Is(err, ErrEmptyTableName) {
			t.Errorf("error = %v, want ErrEmptyTableName", err)
		}
		if len(db.Tables()) != 0 {
			t.Errorf("Tables() = %v, want none", db.Tables())
		}
	})

	t.Run("status", func(t *testing.T) {
		db := New()
		res, _ := db.CreateTable("T", specs("A", "STRING", "B", "FLOAT"))
		if got, want := res.String(), "Change applied: 2 column added."; got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	})
}

func TestDatabaseJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		db := newUsers(t, MustValues("Amy", 30), MustValues("Bo", 25))
		db.CreateTable("METRICS", specs("OK", "BOOL", "RATIO", "FLOAT"))
		db.Insert("METRICS", MustValues(true, 2.0), MustValues(false, 0.25))

		b, err := json.Marshal(db)
		if err != nil {
			t.Fatal(err)
		}
		got := New()
		if err := json.Unmarshal(b, got); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(snapshot(db), snapshot(got)); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("format", func(t *testing.T) {
		db := newUsers(t, MustValues("Amy", 30))
		var buf bytes.Buffer
		if err := db.Encode(&buf, 0); err != nil {
			t.Fatal(err)
		}
		want := `{"USERS":{"<TABLE_SCHEMA>":{"OBJECT_ID":"INTEGER","NAME":"STRING","AGE":"INTEGER"},"<TABLE_ROW>":[[1,"Amy",30]]}}` + "\n"
		if got := buf.String(); got != want {
			t.Errorf("Encode =\n%s\nwant\n%s", got, want)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			in   string
			want string
		}{
			{"missing schema", `{"T":{"<TABLE_ROW>":[]}}`, "missing"},
			{"no identity", `{"T":{"<TABLE_SCHEMA>":{"A":"STRING"},"<TABLE_ROW>":[]}}`, "OBJECT_ID"},
			{"unknown tag", `{"T":{"<TABLE_SCHEMA>":{"OBJECT_ID":"INTEGER","A":"DATE"},"<TABLE_ROW>":[]}}`, "DATE"},
			{"short row", `{"T":{"<TABLE_SCHEMA>":{"OBJECT_ID":"INTEGER","A":"STRING"},"<TABLE_ROW>":[[1]]}}`, "values"},
			{"wrong type", `{"T":{"<TABLE_SCHEMA>":{"OBJECT_ID":"INTEGER","A":"STRING"},"<TABLE_ROW>":[[1,2]]}}`, "not valid"},
			{"null table", `{"T":null}`, "null"},
			{"duplicate column", `{"T":{"<TABLE_SCHEMA>":{"OBJECT_ID":"INTEGER","A":"STRING","A":"INTEGER"},"<TABLE_ROW>":[[1,5]]}}`, "duplicate column"},
			{"duplicate table", `{"T":{"<TABLE_SCHEMA>":{"OBJECT_ID":"INTEGER"},"<TABLE_ROW>":[]},"T":{"<TABLE_SCHEMA>":{"OBJECT_ID":"INTEGER"},"<TABLE_ROW>":[]}}`, "defined twice"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				db := New()
				err := json.Unmarshal([]byte(tt.in), db)
				if err == nil {
					t.Fatal("Unmarshal succeeded")
				}
				if !strings.Contains(err.Error(), tt.want) {
					t.Errorf("error = %v, want it to mention %q", err, tt.want)
				}
			})
		}
	})
}

// snapshot flattens a database for comparison.
func snapshot(db *Database) map[string][]string {
	out := map[string][]string{}
	for _, name := range db.Tables() {
		tbl, _ := db.Table(name)
		var lines []string
		for _, c := range tbl.Schema().Columns() {
			lines = append(lines, c.Name+":"+c.Type.String())
		}
		for _, r := range tbl.Rows() {
			var cells []string
			for _, v := range r {
				cells = append(cells, v.Type().String()+"="+v.String())
			}
			lines = append(lines, strings.Join(cells, ","))
		}
		out[name] = lines
	}
	return out
}

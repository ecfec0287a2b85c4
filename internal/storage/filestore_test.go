package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/goleak"

	"github.com/maruel/jsondb/internal/jsondb"
	"github.com/maruel/jsondb/internal/storage/git"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newUsers(t *testing.T) *jsondb.Database {
	t.Helper()
	db := jsondb.New()
	if _, err := db.CreateTable("USERS", []jsondb.ColumnSpec{
		{Name: "NAME", Type: "STRING"},
		{Name: "AGE", Type: "INTEGER"},
		{Name: "SCORE", Type: "FLOAT"},
	}); err != nil {
		t.Fatal(err)
	}
	res, err := db.Insert("USERS",
		[]jsondb.Value{jsondb.String("Amy"), jsondb.Integer(30), jsondb.Float(2)},
		[]jsondb.Value{jsondb.String("Bo"), jsondb.Integer(25), jsondb.Float(1.5)},
	)
	if err != nil || res.Count != 2 {
		t.Fatalf("Insert() = %v, %v", res, err)
	}
	return db
}

func TestFileStore(t *testing.T) {
	t.Run("LoadMissing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sub", "db.json")
		fs, err := NewFileStore(path)
		if err != nil {
			t.Fatalf("NewFileStore() failed: %v", err)
		}
		db, err := fs.Load()
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if n := len(db.Tables()); n != 0 {
			t.Errorf("Load() returned %d tables, want 0", n)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("file not created: %v", err)
		}
		if got := strings.TrimSpace(string(data)); got != "{}" {
			t.Errorf("created file = %q, want {}", got)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db.json")
		fs, err := NewFileStore(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := fs.Save(newUsers(t)); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "\n    \"USERS\": {") {
			t.Errorf("document not indented with 4 spaces:\n%s", data)
		}
		if !strings.Contains(string(data), "2.0") {
			t.Errorf("whole float not written as FLOAT:\n%s", data)
		}
		doc := string(data)
		if got := gjson.Get(doc, `USERS.<TABLE_SCHEMA>.OBJECT_ID`).String(); got != "INTEGER" {
			t.Errorf("OBJECT_ID type = %q, want INTEGER", got)
		}
		if got := gjson.Get(doc, `USERS.<TABLE_ROW>.#`).Int(); got != 2 {
			t.Errorf("row count = %d, want 2", got)
		}
		if got := gjson.Get(doc, `USERS.<TABLE_ROW>.1.1`).String(); got != "Bo" {
			t.Errorf("second row NAME = %q, want Bo", got)
		}

		db, err := fs.Load()
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		recs, err := db.FetchOne("USERS", jsondb.In{Col: "NAME", Values: []jsondb.Value{jsondb.String("Amy")}}, "SCORE")
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 1 {
			t.Fatalf("FetchOne() = %d records, want 1", len(recs))
		}
		if v, _ := recs[0].Get("SCORE"); v.Type() != jsondb.TypeFloat || v.Float() != 2 {
			t.Errorf("SCORE = %v (%s), want FLOAT 2.0", v, v.Type())
		}
	})

	t.Run("Compact", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db.json")
		fs, err := NewFileStore(path, WithIndent(0))
		if err != nil {
			t.Fatal(err)
		}
		if err := fs.Save(newUsers(t)); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if got := strings.Count(string(data), "\n"); got != 1 {
			t.Errorf("compact document has %d newlines, want 1", got)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db.json")
		if err := os.WriteFile(path, []byte(`{"USERS": {"<TABLE_ROW>": []}}`), 0o600); err != nil {
			t.Fatal(err)
		}
		fs, err := NewFileStore(path)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fs.Load(); err == nil {
			t.Error("Load() of a table without schema succeeded")
		}
	})

	t.Run("InvalidIndent", func(t *testing.T) {
		if _, err := NewFileStore(filepath.Join(t.TempDir(), "db.json"), WithIndent(-1)); err == nil {
			t.Error("NewFileStore(WithIndent(-1)) succeeded")
		}
	})

	t.Run("Commit", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db.json")
		fs, err := NewFileStore(path)
		if err != nil {
			t.Fatal(err)
		}
		db := newUsers(t)
		res, err := db.DeleteOne("USERS", jsondb.Eq{Col: "NAME", Value: jsondb.String("Bo")}, jsondb.WithCommit(fs))
		if err != nil || res.Count != 1 {
			t.Fatalf("DeleteOne() = %v, %v", res, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if got := gjson.GetBytes(data, `USERS.<TABLE_ROW>.#`).Int(); got != 1 {
			t.Errorf("persisted row count = %d, want 1", got)
		}
	})

	t.Run("CommitFailure", func(t *testing.T) {
		dir := t.TempDir()
		fs, err := NewFileStore(filepath.Join(dir, "db.json"))
		if err != nil {
			t.Fatal(err)
		}
		// A directory in place of the document makes the rename fail.
		if err := os.Mkdir(fs.Path(), 0o700); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(fs.Path(), "x"), nil, 0o600); err != nil {
			t.Fatal(err)
		}
		db := newUsers(t)
		_, err = db.DeleteOne("USERS", jsondb.Eq{Col: "NAME", Value: jsondb.String("Bo")}, jsondb.WithCommit(fs))
		if err == nil {
			t.Fatal("DeleteOne() succeeded with an unwritable document")
		}
		if !strings.Contains(err.Error(), "failed to commit delete on \"USERS\"") {
			t.Errorf("unexpected error: %v", err)
		}
		if tbl, _ := db.Table("USERS"); tbl.Len() != 1 {
			t.Errorf("in-memory mutation was not kept: %d rows", tbl.Len())
		}
	})
}

func TestFileStoreHistory(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.Open(dir, "jsondb", "jsondb@localhost")
	if err != nil {
		t.Fatal(err)
	}
	fs, err := NewFileStore(filepath.Join(dir, "db.json"), WithHistory(repo, git.Author{Name: "Amy", Email: "amy@example.com"}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Load(); err != nil {
		t.Fatal(err)
	}
	if err := fs.Save(newUsers(t)); err != nil {
		t.Fatal(err)
	}
	history, err := repo.History(t.Context(), "db.json", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("History() = %d commits, want 2", len(history))
	}
	if history[0].Message != "update db.json" || history[0].Author != "Amy" {
		t.Errorf("History()[0] = %+v", history[0])
	}

	// A per call author overrides the default one. The email falls back.
	db := newUsers(t)
	if _, err := db.Insert("USERS", jsondb.MustValues("Cy", 40, 3.5)); err != nil {
		t.Fatal(err)
	}
	if err := fs.SaveAs(t.Context(), db, git.Author{Name: "Bo"}); err != nil {
		t.Fatal(err)
	}
	latest, err := repo.History(t.Context(), "db.json", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(latest) != 1 || latest[0].Author != "Bo" || latest[0].AuthorEmail != "amy@example.com" {
		t.Errorf("History()[0] = %+v", latest)
	}

	old, err := repo.FileAt(t.Context(), history[1].Hash, "db.json")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(old)); got != "{}" {
		t.Errorf("first revision = %q, want {}", got)
	}

	if _, err := NewFileStore(filepath.Join(t.TempDir(), "db.json"), WithHistory(repo, git.Author{})); err == nil {
		t.Error("NewFileStore() accepted a document outside of the repository")
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Load(); err != nil {
		t.Fatal(err)
	}
	changed := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	if err := Watch(ctx, path, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("Watch() failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := fs.Save(newUsers(t)); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification after Save")
	}
	cancel()
}

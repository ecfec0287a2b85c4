package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/maruel/jsondb/internal/config"
)

// run executes the CLI on the document at path and returns stdout and stderr.
func run(t *testing.T, path string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd(&slog.LevelVar{})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--data", path}, args...))
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, path string, args ...string) string {
	t.Helper()
	out, stderr, err := run(t, path, args...)
	if err != nil {
		t.Fatalf("jsondb %s: %v\n%s", strings.Join(args, " "), err, stderr)
	}
	return out
}

func TestCLI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	if got := mustRun(t, path, "create", "USERS", "NAME:STRING", "AGE:INTEGER", "SCORE:FLOAT"); got != "Change applied: 3 column added.\n" {
		t.Errorf("create = %q", got)
	}
	mustRun(t, path, "insert", "USERS", "Amy", "30", "2.0")
	if got := mustRun(t, path, "insert", "USERS", "--rows", `[["Bo",25,1.5],["Cy","old",1.0]]`); got != "Change applied: 1 row inserted.\n" {
		t.Errorf("insert = %q", got)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := gjson.GetBytes(raw, "USERS.<TABLE_ROW>.0.3").Raw; got != "2.0" {
		t.Errorf("persisted SCORE = %s", got)
	}

	out := mustRun(t, path, "fetch", "USERS", "--format", "json")
	if got := gjson.Get(out, "#.NAME").Raw; got != `["Amy","Bo"]` {
		t.Errorf("names = %s", got)
	}
	out = mustRun(t, path, "fetch", "USERS", "--where", "NAME=Bo", "--where", "NAME=Zed", "--fields", "AGE,NAME", "--format", "json")
	if got := gjson.Get(out, "0.AGE").Int(); got != 25 {
		t.Errorf("AGE = %d: %s", got, out)
	}
	out = mustRun(t, path, "fetch", "USERS", "--where", "AGE=30", "--format", "yaml")
	if !strings.Contains(out, "NAME: Amy") {
		t.Errorf("yaml = %q", out)
	}
	out = mustRun(t, path, "fetch", "USERS")
	if !strings.Contains(out, "Amy") || !strings.HasSuffix(out, "(2 rows)\n") {
		t.Errorf("table = %q", out)
	}

	if got := mustRun(t, path, "update", "USERS", "--where", "NAME=Amy", "--set", "AGE=31"); got != "Change applied: 1 row updated.\n" {
		t.Errorf("update = %q", got)
	}
	out = mustRun(t, path, "fetch", "USERS", "--where", "NAME=Amy", "--fields", "AGE", "--format", "json")
	if got := gjson.Get(out, "0.AGE").Int(); got != 31 {
		t.Errorf("AGE = %d, want 31", got)
	}

	out = mustRun(t, path, "describe", "USERS")
	for _, want := range []string{"Table: USERS", "OBJECT_ID", "SCORE", "FLOAT"} {
		if !strings.Contains(out, want) {
			t.Errorf("describe missing %q:\n%s", want, out)
		}
	}
	out = mustRun(t, path, "tables")
	if !strings.Contains(out, "USERS") || !strings.Contains(out, "(1 row)") {
		t.Errorf("tables = %q", out)
	}
	out = mustRun(t, path, "jsonschema")
	if !gjson.Valid(out) {
		t.Errorf("jsonschema is not JSON: %s", out)
	}

	if got := mustRun(t, path, "delete-many", "USERS", "--where", "NAME=Amy", "--where", "NAME=Bo"); got != "Change applied: 2 row deleted.\n" {
		t.Errorf("delete-many = %q", got)
	}
	if got := mustRun(t, path, "delete", "USERS", "--where", "NAME=Amy"); got != "Change applied: 0 row deleted.\n" {
		t.Errorf("delete = %q", got)
	}
}

func TestCLIRejections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	_, stderr, err := run(t, path, "create", "T", "A:STRING", "B:DATE")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "rejected:") || !strings.Contains(stderr, "DATE") {
		t.Errorf("stderr = %q", stderr)
	}
	_, stderr, err = run(t, path, "insert", "T", "42")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "rejected:") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestCLIErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	mustRun(t, path, "create", "USERS", "NAME:STRING")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown table", []string{"fetch", "MISSING"}, "MISSING"},
		{"unknown column", []string{"fetch", "USERS", "--fields", "AGE"}, "AGE"},
		{"bad where", []string{"delete", "USERS", "--where", "NAME"}, "COLUMN=VALUE"},
		{"mixed where", []string{"delete-many", "USERS", "--where", "NAME=a", "--where", "X=b"}, "single column"},
		{"bad format", []string{"fetch", "USERS", "--format", "xml"}, "xml"},
		{"bad column spec", []string{"create", "T", "NAME"}, "COLUMN:TYPE"},
		{"nothing to insert", []string{"insert", "USERS"}, "nothing"},
		{"integer overflow", []string{"insert", "USERS", "9223372036854775808"}, "out of range"},
		{"set overflow", []string{"update", "USERS", "--where", "NAME=a", "--set", "NAME=99999999999999999999"}, "out of range"},
		{"no history", []string{"history"}, "--history"},
		{"bad indent", []string{"--indent", "99", "tables"}, "indent"},
		{"describe missing", []string{"describe", "NOPE"}, "NOPE"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := run(t, path, tc.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want it to contain %q", err, tc.want)
			}
		})
	}
}

func TestCLIHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	mustRun(t, path, "--history", "create", "USERS", "NAME:STRING")
	mustRun(t, path, "--history", "insert", "USERS", "Amy")
	out := mustRun(t, path, "--history", "history")
	// The empty document, the table and the row.
	if !strings.Contains(out, "(3 rows)") || !strings.Contains(out, "update db.json") {
		t.Errorf("history = %q", out)
	}
	out = mustRun(t, path, "--history", "history", "--show", "HEAD")
	if got := gjson.Get(out, "USERS.<TABLE_ROW>.#").Int(); got != 1 {
		t.Errorf("document at HEAD = %s", out)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "jsondb ") {
		t.Errorf("version = %q", out)
	}
}

func TestCLIInitConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	cfgPath := filepath.Join(dir, "jsondb.yaml")
	if got := mustRun(t, path, "--indent", "2", "init-config", cfgPath); got != "Wrote "+cfgPath+"\n" {
		t.Errorf("init-config = %q", got)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Data.Path != path || cfg.Data.Indent != 2 {
		t.Errorf("Data = %+v", cfg.Data)
	}

	if _, _, err := run(t, path, "init-config", cfgPath); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("init-config over an existing file = %v", err)
	}
	mustRun(t, path, "--indent", "0", "init-config", "--force", cfgPath)
	if cfg, err = config.Load(cfgPath); err != nil || cfg.Data.Indent != 0 {
		t.Errorf("Load() = %+v, %v", cfg, err)
	}
	if _, _, err := run(t, path, "init-config"); err == nil {
		t.Error("init-config without a path succeeded")
	}
}

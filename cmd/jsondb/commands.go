package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maruel/jsondb/internal/config"
	"github.com/maruel/jsondb/internal/jsondb"
	"github.com/maruel/jsondb/internal/report"
	"github.com/maruel/jsondb/internal/server"
	"github.com/maruel/jsondb/internal/storage"
	"github.com/maruel/jsondb/internal/storage/git"
)

// app holds the global flags and the state derived from them.
type app struct {
	level *slog.LevelVar

	configPath string
	dataPath   string
	indent     int
	history    bool
	logLevel   string

	cfg *config.Config
	fs  *storage.FileStore
}

func newRootCmd(level *slog.LevelVar) *cobra.Command {
	a := &app{level: level}
	root := &cobra.Command{
		Use:   "jsondb",
		Short: "Schema enforced tables stored in a JSON document",
		Long: `jsondb stores typed tables in a single JSON document.

Values on the command line are JSON literals: 30 is an INTEGER, 2.0 a FLOAT,
true a BOOL and "30" a STRING. Text that is not a JSON literal is a STRING.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&a.dataPath, "data", "", "JSON document, overrides data.path")
	pf.IntVar(&a.indent, "indent", config.Default().Data.Indent, "Spaces per indentation level, 0 for compact JSON")
	pf.BoolVar(&a.history, "history", false, "Commit every save to a git repository next to the document")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		a.createCmd(),
		a.insertCmd(),
		a.fetchCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.deleteManyCmd(),
		a.describeCmd(),
		a.tablesCmd(),
		a.jsonSchemaCmd(),
		a.historyCmd(),
		a.serveCmd(),
		a.initConfigCmd(),
		versionCmd(),
	)
	return root
}

// setup loads the configuration and applies the flags that were set.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data.Path = a.dataPath
	}
	if flags.Changed("indent") {
		cfg.Data.Indent = a.indent
	}
	if flags.Changed("history") {
		cfg.Data.History = a.history
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return err
	}
	a.level.Set(l)
	a.cfg = cfg
	return nil
}

// store opens the document described by the configuration.
func (a *app) store() (*storage.FileStore, error) {
	if a.fs != nil {
		return a.fs, nil
	}
	opts := []storage.FileStoreOption{storage.WithIndent(a.cfg.Data.Indent)}
	if a.cfg.Data.History {
		path, err := filepath.Abs(a.cfg.Data.Path)
		if err != nil {
			return nil, err
		}
		repo, err := git.Open(filepath.Dir(path), a.cfg.Data.AuthorName, a.cfg.Data.AuthorEmail)
		if err != nil {
			return nil, err
		}
		opts = append(opts, storage.WithHistory(repo, git.Author{Name: a.cfg.Data.AuthorName, Email: a.cfg.Data.AuthorEmail}))
	}
	fs, err := storage.NewFileStore(a.cfg.Data.Path, opts...)
	if err != nil {
		return nil, err
	}
	a.fs = fs
	return fs, nil
}

// load opens the store and loads the document.
func (a *app) load() (*storage.FileStore, *jsondb.Database, error) {
	fs, err := a.store()
	if err != nil {
		return nil, nil, err
	}
	db, err := fs.Load()
	if err != nil {
		return nil, nil, err
	}
	return fs, db, nil
}

// printResult prints the status line of a mutation and its rejections.
func printResult(cmd *cobra.Command, res jsondb.Result) {
	fmt.Fprintln(cmd.OutOrStdout(), res.String())
	for _, err := range res.Rejected {
		fmt.Fprintf(cmd.ErrOrStderr(), "rejected: %v\n", err)
	}
}

// parseAssignment parses COLUMN=VALUE.
func parseAssignment(s string) (string, jsondb.Value, error) {
	col, lit, ok := strings.Cut(s, "=")
	if !ok || col == "" {
		return "", jsondb.Value{}, fmt.Errorf("expected COLUMN=VALUE, got %q", s)
	}
	v, err := jsondb.ParseLiteral(lit)
	if err != nil {
		return "", jsondb.Value{}, fmt.Errorf("invalid value for %s: %w", col, err)
	}
	return col, v, nil
}

// parseWhere parses repeated COLUMN=VALUE filters on a single column.
func parseWhere(where []string) (jsondb.In, error) {
	if len(where) == 0 {
		return jsondb.In{}, errors.New("--where is required")
	}
	var f jsondb.In
	for _, w := range where {
		col, v, err := parseAssignment(w)
		if err != nil {
			return jsondb.In{}, err
		}
		if f.Col != "" && f.Col != col {
			return jsondb.In{}, fmt.Errorf("--where must use a single column, got %q and %q", f.Col, col)
		}
		f.Col = col
		f.Values = append(f.Values, v)
	}
	return f, nil
}

func splitFields(s string) []string {
	if s == "" {
		return nil
	}
	fields := strings.Split(s, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func (a *app) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create TABLE [COLUMN:TYPE...]",
		Short: "Create or replace a table",
		Long: `Create or replace a table. Types are STRING, INTEGER, FLOAT and BOOL.

Columns are added in order until the first invalid one; the table is created
with the columns before it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := make([]jsondb.ColumnSpec, 0, len(args)-1)
			for _, arg := range args[1:] {
				name, typ, ok := strings.Cut(arg, ":")
				if !ok {
					return fmt.Errorf("expected COLUMN:TYPE, got %q", arg)
				}
				specs = append(specs, jsondb.ColumnSpec{Name: name, Type: typ})
			}
			fs, db, err := a.load()
			if err != nil {
				return err
			}
			res, err := db.CreateTable(args[0], specs)
			if err != nil {
				return err
			}
			if err := fs.Save(db); err != nil {
				return err
			}
			printResult(cmd, res)
			return nil
		},
	}
}

func (a *app) insertCmd() *cobra.Command {
	var rows string
	cmd := &cobra.Command{
		Use:   "insert TABLE [VALUE...]",
		Short: "Append rows to a table",
		Long: `Append one row made of VALUE arguments, or the rows of --rows, a JSON
array of arrays. OBJECT_ID is assigned automatically.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var candidates [][]jsondb.Value
			switch {
			case rows != "" && len(args) > 1:
				return errors.New("use either VALUE arguments or --rows")
			case rows != "":
				if err := json.Unmarshal([]byte(rows), &candidates); err != nil {
					return fmt.Errorf("invalid --rows: %w", err)
				}
			case len(args) > 1:
				row := make([]jsondb.Value, len(args)-1)
				for i, arg := range args[1:] {
					v, err := jsondb.ParseLiteral(arg)
					if err != nil {
						return err
					}
					row[i] = v
				}
				candidates = append(candidates, row)
			default:
				return errors.New("nothing to insert")
			}
			fs, db, err := a.load()
			if err != nil {
				return err
			}
			res, err := db.Insert(args[0], candidates...)
			if err != nil {
				return err
			}
			if err := fs.Save(db); err != nil {
				return err
			}
			printResult(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&rows, "rows", "", `Rows as JSON, e.g. [["Amy",30],["Bo",25]]`)
	return cmd
}

func (a *app) fetchCmd() *cobra.Command {
	var where []string
	var fields, format string
	cmd := &cobra.Command{
		Use:   "fetch TABLE",
		Short: "Print rows of a table",
		Long: `Print every row of a table, or the rows matching --where. Repeat --where
with the same column to match any of the values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := a.load()
			if err != nil {
				return err
			}
			var records []jsondb.Record
			if len(where) == 0 {
				records, err = db.FetchAll(args[0], splitFields(fields)...)
			} else {
				var f jsondb.In
				if f, err = parseWhere(where); err != nil {
					return err
				}
				records, err = db.FetchOne(args[0], f, splitFields(fields)...)
			}
			if err != nil {
				return err
			}
			return writeRecords(cmd.OutOrStdout(), format, records)
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "COLUMN=VALUE filter, repeatable")
	cmd.Flags().StringVar(&fields, "fields", "", "Comma separated columns to print, shown in table order")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json or yaml")
	return cmd
}

func writeRecords(w io.Writer, format string, records []jsondb.Record) error {
	switch format {
	case "table":
		return report.Records(w, records)
	case "json":
		if records == nil {
			records = []jsondb.Record{}
		}
		e := json.NewEncoder(w)
		e.SetEscapeHTML(false)
		e.SetIndent("", "  ")
		return e.Encode(records)
	case "yaml":
		return report.YAML(w, records)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func (a *app) updateCmd() *cobra.Command {
	var where string
	var set []string
	cmd := &cobra.Command{
		Use:   "update TABLE --where COLUMN=VALUE --set COLUMN=VALUE...",
		Short: "Update the first row matching a filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, v, err := parseAssignment(where)
			if err != nil {
				return err
			}
			if len(set) == 0 {
				return errors.New("--set is required")
			}
			assign := make([]jsondb.Assignment, len(set))
			for i, s := range set {
				c, x, err := parseAssignment(s)
				if err != nil {
					return err
				}
				assign[i] = jsondb.Set(c, x)
			}
			fs, db, err := a.load()
			if err != nil {
				return err
			}
			res, err := db.UpdateOne(args[0], jsondb.Eq{Col: col, Value: v}, assign, jsondb.WithCommit(fs))
			if err != nil {
				return err
			}
			printResult(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "COLUMN=VALUE filter")
	cmd.Flags().StringArrayVar(&set, "set", nil, "COLUMN=VALUE assignment, repeatable")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	var where string
	cmd := &cobra.Command{
		Use:   "delete TABLE --where COLUMN=VALUE",
		Short: "Delete the rows equal to a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, v, err := parseAssignment(where)
			if err != nil {
				return err
			}
			fs, db, err := a.load()
			if err != nil {
				return err
			}
			res, err := db.DeleteOne(args[0], jsondb.Eq{Col: col, Value: v}, jsondb.WithCommit(fs))
			if err != nil {
				return err
			}
			printResult(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "COLUMN=VALUE filter")
	return cmd
}

func (a *app) deleteManyCmd() *cobra.Command {
	var where []string
	cmd := &cobra.Command{
		Use:   "delete-many TABLE --where COLUMN=VALUE...",
		Short: "Delete the rows equal to any of the values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseWhere(where)
			if err != nil {
				return err
			}
			fs, db, err := a.load()
			if err != nil {
				return err
			}
			res, err := db.DeleteMany(args[0], f, jsondb.WithCommit(fs))
			if err != nil {
				return err
			}
			printResult(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "COLUMN=VALUE filter, repeatable")
	return cmd
}

func (a *app) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe TABLE",
		Short: "Print the schema of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := a.load()
			if err != nil {
				return err
			}
			t, ok := db.Table(args[0])
			if !ok {
				return &jsondb.TableNotFoundError{Table: args[0]}
			}
			return report.Schema(cmd.OutOrStdout(), args[0], t.Schema())
		},
	}
}

func (a *app) tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := a.load()
			if err != nil {
				return err
			}
			var records []jsondb.Record
			for _, name := range db.Tables() {
				t, _ := db.Table(name)
				records = append(records, jsondb.NewRecord(
					[]string{"TABLE", "COLUMNS", "ROWS"},
					[]jsondb.Value{jsondb.String(name), jsondb.Integer(int64(t.Schema().Len())), jsondb.Integer(int64(t.Len()))},
				))
			}
			return report.Records(cmd.OutOrStdout(), records)
		},
	}
}

func (a *app) jsonSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jsonschema",
		Short: "Print the JSON Schema the document satisfies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := a.load()
			if err != nil {
				return err
			}
			e := json.NewEncoder(cmd.OutOrStdout())
			e.SetIndent("", "  ")
			return e.Encode(db.JSONSchema())
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	var limit int
	var show string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the commits of the document",
		Long:  `List the commits of the document, newest first. Requires --history.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs, err := a.store()
			if err != nil {
				return err
			}
			repo := fs.History()
			if repo == nil {
				return errors.New("history is not enabled, use --history")
			}
			rel, err := filepath.Rel(repo.Dir(), fs.Path())
			if err != nil {
				return err
			}
			if show != "" {
				data, err := repo.FileAt(cmd.Context(), show, rel)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			commits, err := repo.History(cmd.Context(), rel, limit)
			if err != nil {
				return err
			}
			var records []jsondb.Record
			for _, c := range commits {
				records = append(records, jsondb.NewRecord(
					[]string{"HASH", "DATE", "AUTHOR", "MESSAGE"},
					[]jsondb.Value{
						jsondb.String(c.Hash[:min(len(c.Hash), 12)]),
						jsondb.String(c.AuthorDate.UTC().Format("2006-01-02 15:04:05")),
						jsondb.String(c.Author),
						jsondb.String(c.Message),
					},
				))
			}
			return report.Records(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of commits")
	cmd.Flags().StringVar(&show, "show", "", "Print the document at this commit instead")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var addr, jwtSecret string
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the document over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			if flags.Changed("watch") {
				a.cfg.Server.Watch = watch
			}
			if flags.Changed("jwt-secret") {
				a.cfg.Server.JWTSecret = jwtSecret
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			fs, err := a.store()
			if err != nil {
				return err
			}
			version, _, _, _ := getBuildInfo()
			return server.Run(cmd.Context(), a.cfg, fs, version)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on, overrides server.addr")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload the document when it changes on disk")
	cmd.Flags().StringVar(&jwtSecret, "jwt-secret", "", "Require HS256 bearer tokens signed with this secret")
	return cmd
}

func (a *app) initConfigCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config [PATH]",
		Short: "Write the effective configuration as YAML",
		Long: `Write the configuration in effect, defaults plus --config and the global
flags, to PATH or to the --config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.New("PATH or --config is required")
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := a.cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		// The configuration is not needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			version, goVersion, revision, dirty := getBuildInfo()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "jsondb %s\n", version)
			fmt.Fprintf(w, "  Go version: %s\n", goVersion)
			fmt.Fprintf(w, "  Revision:   %s\n", revision)
			if dirty {
				fmt.Fprintf(w, "  Modified:   true\n")
			}
		},
	}
}

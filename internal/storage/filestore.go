// Package storage persists a jsondb.Database as a single JSON document.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/maruel/jsondb/internal/jsondb"
	"github.com/maruel/jsondb/internal/storage/git"
)

// DefaultIndent is the indentation used when saving the document.
const DefaultIndent = 4

// FileStore reads and writes the whole document at one path.
type FileStore struct {
	path    string
	indent  int
	history *git.Repo
	author  git.Author
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithIndent sets the number of spaces per nesting level. 0 writes compact
// JSON.
func WithIndent(n int) FileStoreOption {
	return func(fs *FileStore) { fs.indent = n }
}

// WithHistory commits every Save to repo as author. The document must live
// inside the repository's working tree.
func WithHistory(repo *git.Repo, author git.Author) FileStoreOption {
	return func(fs *FileStore) {
		fs.history = repo
		fs.author = author
	}
}

// NewFileStore returns a FileStore for path, creating its parent directory.
func NewFileStore(path string, opts ...FileStoreOption) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("storage path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	fs := &FileStore{path: abs, indent: DefaultIndent}
	for _, opt := range opts {
		opt(fs)
	}
	if fs.indent < 0 {
		return nil, fmt.Errorf("invalid indent %d", fs.indent)
	}
	if fs.history != nil {
		if _, err := fs.relPath(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil { //nolint:gosec // G301: data directory
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return fs, nil
}

// Path returns the absolute path of the document.
func (fs *FileStore) Path() string {
	return fs.path
}

// History returns the repository Save commits to, if any.
func (fs *FileStore) History() *git.Repo {
	return fs.history
}

// Load reads the document.
//
// When the file does not exist it is created holding an empty document.
func (fs *FileStore) Load() (*jsondb.Database, error) {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		db := jsondb.New()
		if err := fs.Save(db); err != nil {
			return nil, err
		}
		slog.Debug("storage: created empty document", "path", fs.path)
		return db, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fs.path, err)
	}
	db := jsondb.New()
	if err := db.UnmarshalJSON(bytes.TrimSpace(data)); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fs.path, err)
	}
	return db, nil
}

// Save overwrites the document with db.
//
// The content is written to a temporary file in the same directory which then
// replaces the document, so readers never see a partial write.
func (fs *FileStore) Save(db *jsondb.Database) error {
	return fs.SaveAs(context.Background(), db, git.Author{})
}

// SaveAs is Save with author recorded on the history commit. Empty fields of
// author fall back to the author given to WithHistory.
func (fs *FileStore) SaveAs(ctx context.Context, db *jsondb.Database, author git.Author) error {
	if fs.history == nil {
		return fs.write(db)
	}
	rel, err := fs.relPath()
	if err != nil {
		return err
	}
	if author.Name == "" {
		author.Name = fs.author.Name
	}
	if author.Email == "" {
		author.Email = fs.author.Email
	}
	return fs.history.CommitTx(ctx, author, func() (string, []string, error) {
		if err := fs.write(db); err != nil {
			return "", nil, err
		}
		return "update " + rel, []string{rel}, nil
	})
}

func (fs *FileStore) write(db *jsondb.Database) error {
	dir := filepath.Dir(fs.path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(fs.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if err := db.Encode(f, fs.indent); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode %s: %w", fs.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil { //nolint:gosec // G302: document is not secret
		return fmt.Errorf("failed to chmod %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", fs.path, err)
	}
	slog.Debug("storage: saved", "path", fs.path, "tables", len(db.Tables()))
	return nil
}

func (fs *FileStore) relPath() (string, error) {
	root, err := filepath.Abs(fs.history.Dir())
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, fs.path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside of repository %s", fs.path, root)
	}
	return rel, nil
}

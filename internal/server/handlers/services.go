// Package handlers implements the HTTP API on top of the jsondb engine.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/maruel/jsondb/internal/jsondb"
	"github.com/maruel/jsondb/internal/server/dto"
	"github.com/maruel/jsondb/internal/server/reqctx"
	"github.com/maruel/jsondb/internal/storage"
	"github.com/maruel/jsondb/internal/storage/git"
)

// Config holds configuration values needed by handlers.
type Config struct {
	Version string
	// JWTSecret enables bearer token authentication when not empty.
	JWTSecret           []byte
	MaxRequestBodyBytes int64
}

// ErrUnsaved is returned by Reload while the in-memory Database holds a
// change that could not be saved.
var ErrUnsaved = errors.New("document has unsaved changes")

// Store serializes access to the Database shared by all requests and saves
// it after every mutation.
type Store struct {
	mu sync.Mutex
	db *jsondb.Database
	fs *storage.FileStore
	// dirty is set when the last save failed.
	dirty bool
}

// NewStore loads the document of fs.
func NewStore(fs *storage.FileStore) (*Store, error) {
	db, err := fs.Load()
	if err != nil {
		return nil, err
	}
	return &Store{db: db, fs: fs}, nil
}

// View runs fn with the Database locked. fn must not keep db.
func (s *Store) View(fn func(db *jsondb.Database) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dto.FromError(fn(s.db))
}

// Update runs fn with the Database locked then saves it. The token subject of
// ctx, if any, is the author of the history commit.
//
// A failed save is reported as a storage error. The in-memory change is kept
// and Reload refuses to discard it until a later save succeeds.
func (s *Store) Update(ctx context.Context, fn func(db *jsondb.Database) (jsondb.Result, error)) (jsondb.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := fn(s.db)
	if err != nil {
		return res, dto.FromError(err)
	}
	if err := s.fs.SaveAs(context.WithoutCancel(ctx), s.db, git.Author{Name: reqctx.Subject(ctx)}); err != nil {
		s.dirty = true
		return res, dto.NewAPIError(http.StatusInternalServerError, dto.ErrorCodeStorageError, "failed to save document").Wrap(err)
	}
	s.dirty = false
	return res, nil
}

// Reload replaces the Database with the document on disk. It returns
// ErrUnsaved without touching the Database after a failed save.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		return ErrUnsaved
	}
	db, err := s.fs.Load()
	if err != nil {
		return fmt.Errorf("failed to reload: %w", err)
	}
	s.db = db
	slog.Info("Document reloaded", "path", s.fs.Path(), "tables", len(db.Tables()))
	return nil
}

// Path returns the path of the document.
func (s *Store) Path() string {
	return s.fs.Path()
}

// History returns the git repository recording the document, or nil.
func (s *Store) History() *git.Repo {
	return s.fs.History()
}

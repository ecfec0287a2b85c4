// Handles whole document endpoints.

package handlers

import (
	"context"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/maruel/jsondb/internal/jsondb"
	"github.com/maruel/jsondb/internal/server/dto"
)

// DocumentHandler handles requests about the whole document.
type DocumentHandler struct {
	store *Store
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(store *Store) *DocumentHandler {
	return &DocumentHandler{store: store}
}

// JSONSchema returns the JSON Schema the document currently satisfies.
func (h *DocumentHandler) JSONSchema(ctx context.Context, _ *dto.JSONSchemaRequest) (*jsonschema.Schema, error) {
	var s *jsonschema.Schema
	err := h.store.View(func(db *jsondb.Database) error {
		s = db.JSONSchema()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// History lists the commits of the document, newest first.
func (h *DocumentHandler) History(ctx context.Context, req *dto.HistoryRequest) (*dto.HistoryResponse, error) {
	repo := h.store.History()
	if repo == nil {
		return nil, dto.NotFound("history")
	}
	rel, err := filepath.Rel(repo.Dir(), h.store.Path())
	if err != nil {
		return nil, dto.InternalWithError("failed to locate document", err)
	}
	commits, err := repo.History(ctx, rel, req.Limit)
	if err != nil {
		return nil, dto.InternalWithError("failed to read history", err)
	}
	resp := &dto.HistoryResponse{Commits: make([]dto.CommitResponse, 0, len(commits))}
	for _, c := range commits {
		resp.Commits = append(resp.Commits, dto.CommitResponse{
			Hash:    c.Hash,
			Message: c.Message,
			Author:  c.Author,
			Date:    dto.FormatTime(c.AuthorDate),
		})
	}
	return resp, nil
}

// Package server implements the HTTP server and routing logic.
package server

import (
	"net/http"

	"github.com/maruel/jsondb/internal/server/handlers"
	"github.com/maruel/jsondb/internal/server/ratelimit"
)

// NewRouter creates and configures the HTTP router.
//
// limiters may be nil to disable rate limiting.
func NewRouter(store *handlers.Store, cfg *handlers.Config, limiters *ratelimit.Config) http.Handler {
	mux := &http.ServeMux{}
	th := handlers.NewTableHandler(store)
	dh := handlers.NewDocumentHandler(store)

	// Health check, never authenticated.
	public := &handlers.Config{Version: cfg.Version, MaxRequestBodyBytes: cfg.MaxRequestBodyBytes}
	hh := handlers.NewHealthHandler(cfg)
	mux.Handle("GET /api/health", Wrap(hh.Health, public, limiters))

	// Tables
	mux.Handle("GET /api/tables", Wrap(th.ListTables, cfg, limiters))
	mux.Handle("POST /api/tables", Wrap(th.CreateTable, cfg, limiters))
	mux.Handle("GET /api/tables/{table}", Wrap(th.GetTable, cfg, limiters))

	// Rows
	mux.Handle("GET /api/tables/{table}/rows", Wrap(th.ListRows, cfg, limiters))
	mux.Handle("POST /api/tables/{table}/rows", Wrap(th.InsertRows, cfg, limiters))
	mux.Handle("PATCH /api/tables/{table}/rows", Wrap(th.UpdateRow, cfg, limiters))
	mux.Handle("POST /api/tables/{table}/query", Wrap(th.QueryRows, cfg, limiters))
	mux.Handle("POST /api/tables/{table}/delete", Wrap(th.DeleteRows, cfg, limiters))

	// Document
	mux.Handle("GET /api/jsonschema", Wrap(dh.JSONSchema, cfg, limiters))
	mux.Handle("GET /api/history", Wrap(dh.History, cfg, limiters))
	return mux
}

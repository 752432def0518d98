package server

import (
	"log/slog"
	"net/http"

	"github.com/MeKo-Tech/mapmachine/internal/tilestore"
)

// StoreHandlerConfig configures a StoreHandler.
type StoreHandlerConfig struct {
	CacheControl string
}

// StoreHandler serves tiles read-only from a tilestore.Store, the
// Map Machine analog of the teacher's mbtiles_handler.go (same
// z/x/y lookup-and-serve shape, swapped from mbtiles.Reader to
// tilestore.Store and from PNG-only to SVG-or-PNG).
type StoreHandler struct {
	store  *tilestore.Store
	cfg    StoreHandlerConfig
	logger *slog.Logger
}

// NewStoreHandler builds a handler serving tiles already cached in store.
func NewStoreHandler(store *tilestore.Store, cfg StoreHandlerConfig, logger *slog.Logger) *StoreHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreHandler{store: store, cfg: cfg, logger: logger}
}

// Handler serves /tiles/{z}/{x}/{y}[@2x].png (or .svg), preferring the
// PNG rendition when present and falling back to the SVG otherwise.
func (h *StoreHandler) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, _, ok := parseTilePath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}

		entry, found, err := h.store.Get(t.Zoom, t.X, t.Y)
		if err != nil {
			h.logger.Error("tile lookup failed", "tile", t.String(), "error", err)
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}
		if !found {
			http.NotFound(w, r)
			return
		}

		if h.cfg.CacheControl != "" {
			w.Header().Set("Cache-Control", h.cfg.CacheControl)
		}

		if entry.PNG != nil {
			w.Header().Set("Content-Type", "image/png")
			w.Write(entry.PNG) //nolint:errcheck
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write(entry.SVG) //nolint:errcheck
	}
}

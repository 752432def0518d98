// Package server implements the HTTP tile endpoint: on-demand
// rendering through internal/pipeline.Generator with a disk cache, and
// read-only serving from an internal/tilestore.Store. Adapted from
// internal/server/ondemand_tiles.go's locking/semaphore/status shape;
// the teacher's async datasource.FetchQueue and retryWorker are
// dropped since osm.Fetcher.Fetch is a single synchronous call with no
// async-batching analog here (see DESIGN.md).
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/mapmachine/internal/pipeline"
	"github.com/MeKo-Tech/mapmachine/internal/tileengine"
)

// OnDemandTilesConfig configures on-demand tile generation.
type OnDemandTilesConfig struct {
	CacheControl             string
	MaxConcurrentGenerations int
	GenerationTimeout        time.Duration
	GenerateMissing          bool
}

// OnDemandTiles serves slippy-map tiles over HTTP, rendering through a
// pipeline.Generator (which caches to disk or a tilestore.Store on its
// own) and serializing concurrent requests for the same tile.
type OnDemandTiles struct {
	gen    *pipeline.Generator
	cfg    OnDemandTilesConfig
	logger *slog.Logger
	sem    chan struct{}
	locks  sync.Map // string (tile path) -> *sync.Mutex

	activeRenders atomic.Int32
	totalRendered atomic.Int64
	totalFailed   atomic.Int64
}

// Status reports current render activity, exposed at /tiles/status.
type Status struct {
	ActiveRenders int   `json:"active_renders"`
	TotalRendered int64 `json:"total_rendered"`
	TotalFailed   int64 `json:"total_failed"`
	MaxConcurrent int   `json:"max_concurrent"`
}

// NewOnDemandTiles builds a handler that renders tiles through gen on
// demand, limiting concurrent renders to cfg.MaxConcurrentGenerations.
func NewOnDemandTiles(gen *pipeline.Generator, cfg OnDemandTilesConfig, logger *slog.Logger) *OnDemandTiles {
	if cfg.MaxConcurrentGenerations <= 0 {
		cfg.MaxConcurrentGenerations = 4
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OnDemandTiles{
		gen:    gen,
		cfg:    cfg,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrentGenerations),
	}
}

// Status returns a snapshot of current render activity.
func (o *OnDemandTiles) Status() Status {
	return Status{
		ActiveRenders: int(o.activeRenders.Load()),
		TotalRendered: o.totalRendered.Load(),
		TotalFailed:   o.totalFailed.Load(),
		MaxConcurrent: cap(o.sem),
	}
}

// StatusHandler serves the current Status as JSON.
func (o *OnDemandTiles) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(o.Status()) //nolint:errcheck
	}
}

// Handler serves /tiles/{z}/{x}/{y}[@2x].png, rendering on a cache
// miss when cfg.GenerateMissing is set.
func (o *OnDemandTiles) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, hiDPI, ok := parseTilePath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		o.serveTile(w, r, t, hiDPI)
	}
}

func (o *OnDemandTiles) serveTile(w http.ResponseWriter, r *http.Request, t tileengine.Tile, hiDPI bool) {
	suffix := ""
	if hiDPI {
		suffix = "@2x"
	}

	lockKey := t.String() + suffix
	lockAny, _ := o.locks.LoadOrStore(lockKey, &sync.Mutex{})
	lock := lockAny.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()

	if !o.cfg.GenerateMissing && !o.gen.TileExists(t, suffix) {
		http.NotFound(w, r)
		return
	}

	select {
	case o.sem <- struct{}{}:
		defer func() { <-o.sem }()
	case <-r.Context().Done():
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}

	o.activeRenders.Add(1)
	defer o.activeRenders.Add(-1)

	ctx, cancel := context.WithTimeout(r.Context(), o.cfg.GenerationTimeout)
	defer cancel()

	svgPath, pngPath, err := o.gen.Generate(ctx, t, false, suffix)
	if err != nil {
		o.totalFailed.Add(1)
		o.logger.Error("tile render failed", "tile", t.String(), "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	o.totalRendered.Add(1)

	if o.cfg.CacheControl != "" {
		w.Header().Set("Cache-Control", o.cfg.CacheControl)
	}

	if pngPath != "" {
		http.ServeFile(w, r, pngPath)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	http.ServeFile(w, r, svgPath)
}

var tilePathPattern = regexp.MustCompile(`^/tiles/(\d+)/(\d+)/(\d+)(@2x)?\.(?:png|svg)$`)

// parseTilePath parses a "/tiles/{z}/{x}/{y}[@2x].png" (or .svg) path,
// matching tileengine.Tile.String()'s "z%d/%d/%d" ordering.
func parseTilePath(path string) (t tileengine.Tile, hiDPI bool, ok bool) {
	m := tilePathPattern.FindStringSubmatch(path)
	if m == nil {
		return tileengine.Tile{}, false, false
	}

	zoom, err := strconv.Atoi(m[1])
	if err != nil {
		return tileengine.Tile{}, false, false
	}
	x, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return tileengine.Tile{}, false, false
	}
	y, err := strconv.ParseUint(m[3], 10, 32)
	if err != nil {
		return tileengine.Tile{}, false, false
	}

	return tileengine.New(uint32(x), uint32(y), zoom), m[4] == "@2x", true
}

// Package tilestore caches rendered tiles keyed by (zoom, x, y): the
// SVG a render produced, plus the rasterized PNG when one was
// requested. Adapted from internal/mbtiles/{reader,writer}.go — same
// MBTiles-style SQLite container, schema, and TMS row-flip convention,
// generalized from a single PNG blob column to a pair of nullable SVG/
// PNG columns so an SVG-only render still gets cached.
package tilestore

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"sync"

	_ "modernc.org/sqlite"
)

// DefaultBatchSize mirrors internal/mbtiles' batching: tiles buffer in
// memory and flush together to amortize one SQLite transaction across
// many renders.
const DefaultBatchSize = 100

// Entry is one cached tile render: the SVG is always present, PNG is
// nil when the caller only requested a vector tile.
type Entry struct {
	Zoom int
	X, Y uint32
	SVG  []byte
	PNG  []byte
}

// Store is a SQLite-backed tile cache.
type Store struct {
	db        *sql.DB
	batch     []Entry
	batchSize int
	mu        sync.Mutex
}

// Open creates or opens a tile cache database at path, initializing
// its schema if missing.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tilestore: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 50000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("tilestore: set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("tilestore: create schema: %w", err)
	}

	return &Store{db: db, batch: make([]Entry, 0, DefaultBatchSize), batchSize: DefaultBatchSize}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS tiles (
			zoom_level INTEGER NOT NULL,
			tile_column INTEGER NOT NULL,
			tile_row INTEGER NOT NULL,
			svg_data BLOB NOT NULL,
			png_data BLOB
		);

		CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles (zoom_level, tile_column, tile_row);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Put queues one rendered tile. The batch auto-flushes once it reaches
// batchSize entries.
func (s *Store) Put(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batch = append(s.batch, e)
	if len(s.batch) >= s.batchSize {
		return s.flushLocked()
	}
	return nil
}

// Flush writes any buffered tiles to the database.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	if len(s.batch) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO tiles
		(zoom_level, tile_column, tile_row, svg_data, png_data) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range s.batch {
		tmsY := (uint32(1) << uint(e.Zoom)) - 1 - e.Y

		svg, err := gzipCompress(e.SVG)
		if err != nil {
			return fmt.Errorf("compress tile %d/%d/%d svg: %w", e.Zoom, e.X, e.Y, err)
		}

		var png []byte
		if e.PNG != nil {
			png, err = gzipCompress(e.PNG)
			if err != nil {
				return fmt.Errorf("compress tile %d/%d/%d png: %w", e.Zoom, e.X, e.Y, err)
			}
		}

		if _, err := stmt.Exec(e.Zoom, e.X, tmsY, svg, png); err != nil {
			return fmt.Errorf("insert tile %d/%d/%d: %w", e.Zoom, e.X, e.Y, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.batch = s.batch[:0]
	return nil
}

// Get looks up a cached tile, returning ok=false on a miss.
func (s *Store) Get(zoom int, x, y uint32) (Entry, bool, error) {
	tmsY := (uint32(1) << uint(zoom)) - 1 - y

	var svg []byte
	var png []byte
	err := s.db.QueryRow(
		"SELECT svg_data, png_data FROM tiles WHERE zoom_level=? AND tile_column=? AND tile_row=?",
		zoom, x, tmsY,
	).Scan(&svg, &png)

	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("tilestore: query tile %d/%d/%d: %w", zoom, x, y, err)
	}

	uncompressedSVG, err := gzipDecompress(svg)
	if err != nil {
		return Entry{}, false, fmt.Errorf("tilestore: decompress tile %d/%d/%d svg: %w", zoom, x, y, err)
	}

	entry := Entry{Zoom: zoom, X: x, Y: y, SVG: uncompressedSVG}
	if png != nil {
		uncompressedPNG, err := gzipDecompress(png)
		if err != nil {
			return Entry{}, false, fmt.Errorf("tilestore: decompress tile %d/%d/%d png: %w", zoom, x, y, err)
		}
		entry.PNG = uncompressedPNG
	}

	return entry, true, nil
}

// Close flushes any remaining tiles and closes the database.
func (s *Store) Close() error {
	if err := s.Flush(); err != nil {
		s.db.Close()
		return err
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("tilestore: close database: %w", err)
	}
	return nil
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}

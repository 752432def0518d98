package tilestore

import (
	"bytes"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.tiles")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGetRoundTripsSVGOnly(t *testing.T) {
	s := openTestStore(t)

	entry := Entry{Zoom: 13, X: 4297, Y: 2754, SVG: []byte("<svg></svg>")}
	if err := s.Put(entry); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, ok, err := s.Get(13, 4297, 2754)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected a cache hit")
	}
	if !bytes.Equal(got.SVG, entry.SVG) {
		t.Errorf("SVG = %q, want %q", got.SVG, entry.SVG)
	}
	if got.PNG != nil {
		t.Errorf("expected nil PNG for an SVG-only entry, got %d bytes", len(got.PNG))
	}
}

func TestPutAndGetRoundTripsSVGAndPNG(t *testing.T) {
	s := openTestStore(t)

	entry := Entry{Zoom: 13, X: 1, Y: 1, SVG: []byte("<svg/>"), PNG: []byte{0x89, 'P', 'N', 'G'}}
	if err := s.Put(entry); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, ok, err := s.Get(13, 1, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected a cache hit")
	}
	if !bytes.Equal(got.PNG, entry.PNG) {
		t.Errorf("PNG = %v, want %v", got.PNG, entry.PNG)
	}
}

func TestGetMissReturnsFalse(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get(5, 0, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Errorf("expected a miss on an empty store")
	}
}

func TestPutAutoFlushesAtBatchSize(t *testing.T) {
	s := openTestStore(t)
	s.batchSize = 2

	if err := s.Put(Entry{Zoom: 1, X: 0, Y: 0, SVG: []byte("a")}); err != nil {
		t.Fatalf("Put 1: %v", err)
	}
	if err := s.Put(Entry{Zoom: 1, X: 1, Y: 0, SVG: []byte("b")}); err != nil {
		t.Fatalf("Put 2: %v", err)
	}

	if len(s.batch) != 0 {
		t.Errorf("expected the batch to auto-flush at batchSize, got %d buffered", len(s.batch))
	}

	_, ok, err := s.Get(1, 1, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Errorf("expected the second tile to be queryable after auto-flush")
	}
}

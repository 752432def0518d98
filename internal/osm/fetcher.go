package osm

import (
	"context"
	"fmt"
)

// maxNodesPerRequest is the Overpass API's hard cap on nodes in a
// single response region; fetchers should report it verbatim on
// overflow (spec §7 NetworkError).
const maxNodesPerRequest = 50_000

// NetworkError wraps a fetcher failure. The core neither retries nor
// manages timeouts (spec §5); it surfaces this verbatim and aborts.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TooLargeRegionError reports the Overpass 50 000-node cap being hit,
// surfaced verbatim per spec §7.
type TooLargeRegionError struct {
	Box BoundingBox
}

func (e *TooLargeRegionError) Error() string {
	return fmt.Sprintf("region %s exceeds the %d-node fetch cap", e.Box, maxNodesPerRequest)
}

// Fetcher is the injected collaborator that returns raw OSM document
// bytes for a bounding box. It is expected to be synchronous from the
// core's point of view: the core issues no retries and manages no
// timeouts itself (spec §5); that is the fetcher's responsibility.
type Fetcher interface {
	Fetch(ctx context.Context, box BoundingBox) ([]byte, error)
}

// FetchData runs a Fetcher and parses its result as Overpass JSON,
// the format every concrete Fetcher in this module produces. On
// fetcher failure the core aborts with a wrapped NetworkError.
func FetchData(ctx context.Context, f Fetcher, box BoundingBox) (*Data, error) {
	if !box.Valid() {
		return nil, fmt.Errorf("invalid bounding box %s", box)
	}

	raw, err := f.Fetch(ctx, box)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	data, err := ReadOverpassJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("not well formed response: %w", err)
	}
	data.ViewBox = &box
	return data, nil
}

package osm

import "testing"

func node(id int64) *Node {
	return &Node{ID: id}
}

func wayOf(id int64, nodeIDs ...int64) *Way {
	return &Way{ID: id, NodeIDs: nodeIDs}
}

func dataWithNodes(ids ...int64) *Data {
	d := NewData()
	for _, id := range ids {
		d.Nodes[id] = node(id)
	}
	return d
}

func TestGlueJoinsTwoOpenWaysSharingEndpoint(t *testing.T) {
	d := dataWithNodes(1, 2, 3, 4)
	w1 := wayOf(1, 1, 2)
	w2 := wayOf(2, 2, 3, 4)

	rings := Glue([]*Way{w1, w2}, d)
	if len(rings) != 1 {
		t.Fatalf("rings = %d, want 1", len(rings))
	}
	if len(rings[0].Nodes) != 4 {
		t.Fatalf("glued ring has %d nodes, want 4", len(rings[0].Nodes))
	}
}

func TestGlueClosesIntoCycleAndStopsMerging(t *testing.T) {
	d := dataWithNodes(1, 2, 3)
	w1 := wayOf(1, 1, 2)
	w2 := wayOf(2, 2, 3)
	w3 := wayOf(3, 3, 1)

	rings := Glue([]*Way{w1, w2, w3}, d)
	if len(rings) != 1 {
		t.Fatalf("rings = %d, want 1 closed ring", len(rings))
	}
	if !rings[0].IsCycle() {
		t.Errorf("expected a closed cycle")
	}
}

func TestGlueKeepsAlreadyClosedRingsSeparateEvenIfTouching(t *testing.T) {
	d := dataWithNodes(1, 2, 3, 4, 5)
	ringA := wayOf(1, 1, 2, 3, 1)
	ringB := wayOf(2, 1, 4, 5, 1)

	rings := Glue([]*Way{ringA, ringB}, d)
	if len(rings) != 2 {
		t.Fatalf("rings = %d, want 2 separate closed rings sharing a node", len(rings))
	}
}

func TestGlueLeavesUnmatchedWayOpen(t *testing.T) {
	d := dataWithNodes(1, 2)
	w := wayOf(1, 1, 2)

	rings := Glue([]*Way{w}, d)
	if len(rings) != 1 || rings[0].IsCycle() {
		t.Fatalf("expected one open ring, got %+v", rings)
	}
}

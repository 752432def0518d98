package osm

// Ring is a closed or open sequence of resolved nodes produced by Glue.
// Per Design Notes §9, the glue algorithm rejects ways whose endpoints
// don't line up, leaving them as open polylines in the result — callers
// must not assume every returned ring is closed.
type Ring struct {
	Nodes []*Node
}

// IsCycle reports whether the ring's first and last nodes coincide.
func (r Ring) IsCycle() bool {
	if len(r.Nodes) < 2 {
		return false
	}
	first, last := r.Nodes[0], r.Nodes[len(r.Nodes)-1]
	return first.ID == last.ID
}

// Glue joins a set of ways into rings, following the original
// constructor.py glue()/try_to_glue() pop-loop exactly rather than a
// fixed-point all-pairs merge: a way that is already a cycle is set
// aside untouched; every other way goes into a work pool. One chain at
// a time is popped, matched against the first other chain it shares an
// endpoint with (collapsing the shared node, reversing the other chain
// if needed), and re-queued; the moment a chain closes into a cycle it
// is moved out of the pool instead of being offered further merges.
// This ordering matters: two already-closed rings that happen to touch
// at one node (e.g. adjacent islands) must stay separate, which a
// naive "merge any two chains sharing an endpoint" pass would not
// guarantee once closed rings re-enter the candidate pool.
func Glue(ways []*Way, data *Data) []Ring {
	var result [][]*Node
	var pool [][]*Node

	for _, w := range ways {
		nodes := data.WayNodes(w)
		if len(nodes) == 0 {
			continue
		}
		if isCycleNodes(nodes) {
			result = append(result, nodes)
		} else {
			pool = append(pool, nodes)
		}
	}

	for len(pool) > 0 {
		nodes := pool[len(pool)-1]
		pool = pool[:len(pool)-1]

		glued := false
		for i, other := range pool {
			if joined, ok := tryToGlue(nodes, other); ok {
				pool = append(pool[:i], pool[i+1:]...)
				if isCycleNodes(joined) {
					result = append(result, joined)
				} else {
					pool = append(pool, joined)
				}
				glued = true
				break
			}
		}
		if !glued {
			result = append(result, nodes)
		}
	}

	rings := make([]Ring, 0, len(result))
	for _, nodes := range result {
		rings = append(rings, Ring{Nodes: nodes})
	}
	return rings
}

func isCycleNodes(nodes []*Node) bool {
	if len(nodes) < 2 {
		return false
	}
	return nodes[0].ID == nodes[len(nodes)-1].ID
}

// tryToGlue joins other onto nodes at a shared endpoint, collapsing the
// shared node, matching try_to_glue's four endpoint pairings in order.
func tryToGlue(nodes, other []*Node) ([]*Node, bool) {
	if len(nodes) == 0 || len(other) == 0 {
		return nil, false
	}

	first, last := nodes[0], nodes[len(nodes)-1]
	otherFirst, otherLast := other[0], other[len(other)-1]

	switch {
	case first.ID == otherFirst.ID:
		return append(reverseNodes(other[1:]), nodes...), true
	case first.ID == otherLast.ID:
		return append(append([]*Node{}, other[:len(other)-1]...), nodes...), true
	case last.ID == otherLast.ID:
		return append(append([]*Node{}, nodes...), reverseNodes(other[:len(other)-1])...), true
	case last.ID == otherFirst.ID:
		return append(append([]*Node{}, nodes...), other[1:]...), true
	}
	return nil, false
}

func reverseNodes(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out
}

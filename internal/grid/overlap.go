package grid

import (
	"sort"
	"time"
)

// MaxColumns caps how many visual lanes a single overlap group may occupy.
// Segments that would need a further lane share the last one and are marked
// clipped; they still render, just squeezed.
const MaxColumns = 10

// ColumnInfo is the visual lane assignment for one segment.
type ColumnInfo struct {
	Column       int
	GroupSize    int
	GroupMembers []string // segment ids, ordered by start time
	Clipped      bool
}

// Overlaps reports whether two half-open time ranges intersect. Ranges that
// merely touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// unionFind is a disjoint-set over segment ids. Merging through it makes
// the transitive-closure property of overlap groups hold by construction.
type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string), rank: make(map[string]int)}
}

func (u *unionFind) add(id string) {
	if _, ok := u.parent[id]; !ok {
		u.parent[id] = id
	}
}

func (u *unionFind) find(id string) string {
	for u.parent[id] != id {
		u.parent[id] = u.parent[u.parent[id]] // path halving
		id = u.parent[id]
	}
	return id
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}

// AssignColumns resolves overlaps between the segments of one calendar day.
// Transitively-overlapping segments are merged into groups; within a group,
// each segment takes the lowest column whose previous occupant has already
// ended (first-fit), so the earliest-starting segment keeps column 0 and
// renders full width. Segments with equal start times keep their original
// slice order, which makes the assignment stable across passes.
func AssignColumns(segs []Segment) map[string]ColumnInfo {
	out := make(map[string]ColumnInfo, len(segs))
	if len(segs) == 0 {
		return out
	}

	// Stable order: by start time, original order on ties.
	ordered := make([]Segment, len(segs))
	copy(ordered, segs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start.Before(ordered[j].Start)
	})

	uf := newUnionFind()
	for _, seg := range ordered {
		uf.add(seg.SegmentID)
	}
	for i := range ordered {
		for j := i + 1; j < len(ordered); j++ {
			if !ordered[j].Start.Before(ordered[i].End) {
				// Sorted by start: nothing further overlaps i either.
				break
			}
			if Overlaps(ordered[i].Start, ordered[i].End, ordered[j].Start, ordered[j].End) {
				uf.union(ordered[i].SegmentID, ordered[j].SegmentID)
			}
		}
	}

	groups := make(map[string][]Segment)
	for _, seg := range ordered {
		root := uf.find(seg.SegmentID)
		groups[root] = append(groups[root], seg)
	}

	for _, members := range groups {
		ids := make([]string, len(members))
		for i, seg := range members {
			ids[i] = seg.SegmentID
		}

		var columnEnd []time.Time
		for _, seg := range members {
			col := -1
			for c, end := range columnEnd {
				if !end.After(seg.Start) {
					col = c
					break
				}
			}
			info := ColumnInfo{GroupSize: len(members), GroupMembers: ids}
			switch {
			case col >= 0:
				columnEnd[col] = seg.End
				info.Column = col
			case len(columnEnd) < MaxColumns:
				columnEnd = append(columnEnd, seg.End)
				info.Column = len(columnEnd) - 1
			default:
				// Past the cap: share the last lane and clip.
				info.Column = MaxColumns - 1
				info.Clipped = true
				if seg.End.After(columnEnd[MaxColumns-1]) {
					columnEnd[MaxColumns-1] = seg.End
				}
			}
			out[seg.SegmentID] = info
		}
	}
	return out
}

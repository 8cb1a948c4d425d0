package grid

import (
	"testing"
	"time"
)

func daySegment(id string, start, end time.Time) Segment {
	return Segment{OriginalID: id, SegmentID: id, Start: start, End: end}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"disjoint", utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 10, 0), utc(2025, 3, 10, 11, 0), utc(2025, 3, 10, 12, 0), false},
		{"touching endpoints", utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 10, 0), utc(2025, 3, 10, 10, 0), utc(2025, 3, 10, 11, 0), false},
		{"partial", utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 10, 0), utc(2025, 3, 10, 9, 30), utc(2025, 3, 10, 10, 30), true},
		{"contained", utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 12, 0), utc(2025, 3, 10, 10, 0), utc(2025, 3, 10, 11, 0), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Errorf("Overlaps = %v, want %v", got, tc.want)
			}
			// The predicate is symmetric.
			if got := Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd); got != tc.want {
				t.Errorf("Overlaps reversed = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAssignColumns_TransitiveChain(t *testing.T) {
	// A [09:00,10:00) and C [10:15,11:00) do not overlap, but B bridges them.
	segs := []Segment{
		daySegment("a", utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 10, 0)),
		daySegment("b", utc(2025, 3, 10, 9, 30), utc(2025, 3, 10, 10, 30)),
		daySegment("c", utc(2025, 3, 10, 10, 15), utc(2025, 3, 10, 11, 0)),
	}
	cols := AssignColumns(segs)

	for _, id := range []string{"a", "b", "c"} {
		if cols[id].GroupSize != 3 {
			t.Errorf("segment %s group size = %d, want 3", id, cols[id].GroupSize)
		}
	}
	if cols["a"].Column != 0 {
		t.Errorf("earliest segment column = %d, want 0", cols["a"].Column)
	}
	if cols["b"].Column != 1 {
		t.Errorf("bridging segment column = %d, want 1", cols["b"].Column)
	}
	// C starts after A ends, so first-fit reuses column 0.
	if cols["c"].Column != 0 {
		t.Errorf("chained segment column = %d, want 0", cols["c"].Column)
	}
}

func TestAssignColumns_SeparateGroups(t *testing.T) {
	segs := []Segment{
		daySegment("m1", utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 10, 0)),
		daySegment("m2", utc(2025, 3, 10, 9, 30), utc(2025, 3, 10, 10, 30)),
		daySegment("a1", utc(2025, 3, 10, 14, 0), utc(2025, 3, 10, 15, 0)),
	}
	cols := AssignColumns(segs)

	if cols["m1"].GroupSize != 2 || cols["m2"].GroupSize != 2 {
		t.Errorf("morning group sizes = %d/%d, want 2/2", cols["m1"].GroupSize, cols["m2"].GroupSize)
	}
	if cols["a1"].GroupSize != 1 || cols["a1"].Column != 0 {
		t.Errorf("afternoon segment = %+v, want lone column 0", cols["a1"])
	}
}

func TestAssignColumns_NoSharedColumnForOverlapping(t *testing.T) {
	// Five events all covering 09:00-12:00 plus staggered extras.
	var segs []Segment
	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		segs = append(segs, daySegment(id, utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 12, 0)))
	}
	segs = append(segs, daySegment("f", utc(2025, 3, 10, 10, 0), utc(2025, 3, 10, 11, 0)))
	cols := AssignColumns(segs)

	for i := range segs {
		for j := i + 1; j < len(segs); j++ {
			a, b := segs[i], segs[j]
			if !Overlaps(a.Start, a.End, b.Start, b.End) {
				continue
			}
			if cols[a.SegmentID].Column == cols[b.SegmentID].Column {
				t.Errorf("overlapping segments %s and %s share column %d",
					a.SegmentID, b.SegmentID, cols[a.SegmentID].Column)
			}
		}
	}
}

func TestAssignColumns_StableTieBreak(t *testing.T) {
	segs := []Segment{
		daySegment("first", utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 10, 0)),
		daySegment("second", utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 10, 0)),
	}
	for pass := 0; pass < 3; pass++ {
		cols := AssignColumns(segs)
		if cols["first"].Column != 0 || cols["second"].Column != 1 {
			t.Fatalf("pass %d: columns = %d/%d, want 0/1",
				pass, cols["first"].Column, cols["second"].Column)
		}
	}
}

func TestAssignColumns_CapsColumns(t *testing.T) {
	var segs []Segment
	for i := 0; i < MaxColumns+3; i++ {
		id := string(rune('a' + i))
		segs = append(segs, daySegment(id, utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 17, 0)))
	}
	cols := AssignColumns(segs)

	clipped := 0
	for _, info := range cols {
		if info.Column >= MaxColumns {
			t.Errorf("column %d exceeds cap %d", info.Column, MaxColumns)
		}
		if info.Clipped {
			clipped++
		}
	}
	if clipped != 3 {
		t.Errorf("clipped count = %d, want 3", clipped)
	}
}

func TestAssignColumns_GroupMembersOrdered(t *testing.T) {
	segs := []Segment{
		daySegment("late", utc(2025, 3, 10, 10, 0), utc(2025, 3, 10, 11, 0)),
		daySegment("early", utc(2025, 3, 10, 9, 30), utc(2025, 3, 10, 10, 30)),
	}
	cols := AssignColumns(segs)
	members := cols["late"].GroupMembers
	if len(members) != 2 || members[0] != "early" || members[1] != "late" {
		t.Errorf("group members = %v, want [early late]", members)
	}
}

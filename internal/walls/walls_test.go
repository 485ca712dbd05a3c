package walls

import "testing"

func seg(id string, x0, y0, x1, y1 float64) Segment {
	return Segment{ID: id, X0: x0, Y0: y0, X1: x1, Y1: y1, Move: 1, Sense: 1}
}

func TestChainsContiguousSegments(t *testing.T) {
	var b Builder
	b.Add(seg("a", 0, 0, 100, 0))
	b.Add(seg("b", 100, 0, 100, 100))
	b.Add(seg("c", 100, 100, 0, 100))
	got := b.Walls()
	if len(got) != 1 {
		t.Fatalf("want one chained wall, got %d", len(got))
	}
	want := "0.0,0.0,100.0,0.0,100.0,0.0,100.0,100.0,100.0,100.0,0.0,100.0"
	if got[0].Data != want {
		t.Fatalf("data = %q, want %q", got[0].Data, want)
	}
	if got[0].ID != "a" {
		t.Fatalf("chain keeps first segment id, got %q", got[0].ID)
	}
}

func TestDisjointSegmentsStayApart(t *testing.T) {
	var b Builder
	b.Add(seg("a", 0, 0, 100, 0))
	b.Add(seg("b", 200, 0, 300, 0))
	if len(b.Walls()) != 2 {
		t.Fatalf("want two walls, got %d", len(b.Walls()))
	}
}

func TestDoorInterruptsChain(t *testing.T) {
	var b Builder
	b.Add(seg("a", 0, 0, 100, 0))
	door := seg("d", 100, 0, 150, 0)
	door.Door = 1
	b.Add(door)
	b.Add(seg("c", 150, 0, 250, 0))
	got := b.Walls()
	if len(got) != 3 {
		t.Fatalf("want wall/door/wall, got %d walls", len(got))
	}
	if got[1].Type != Door || got[1].Color != "#00ffff" {
		t.Fatalf("door wall = %+v", got[1])
	}
	// The trailing normal wall may not chain onto the door.
	if got[2].Type != Normal {
		t.Fatalf("trailing wall = %+v", got[2])
	}
}

func TestDoorStateMustMatch(t *testing.T) {
	var b Builder
	locked := seg("a", 0, 0, 100, 0)
	locked.Door, locked.DoorState = 1, 2
	b.Add(locked)
	open := seg("b", 100, 0, 200, 0)
	open.Door, open.DoorState = 1, 1
	b.Add(open)
	got := b.Walls()
	if len(got) != 2 {
		t.Fatalf("open door chained onto locked door")
	}
	if got[0].DoorState != "locked" || got[1].DoorState != "open" {
		t.Fatalf("door states = %q,%q", got[0].DoorState, got[1].DoorState)
	}
}

func TestCategories(t *testing.T) {
	cases := []struct {
		move, sense, door int
		wantType          string
		wantColor         string
	}{
		{1, 1, 0, Normal, "#ff7f00"},
		{0, 1, 0, Ethereal, "#7f007f"},
		{1, 0, 0, Invisible, "#ff00ff"},
		{1, 2, 0, Terrain, "#ffff00"},
		{0, 0, 1, Door, "#00ffff"},
		{0, 0, 2, SecretDoor, "#00ffff"},
	}
	for _, c := range cases {
		var b Builder
		s := seg("x", 0, 0, 10, 0)
		s.Move, s.Sense, s.Door = c.move, c.sense, c.door
		b.Add(s)
		w := b.Walls()[0]
		if w.Type != c.wantType || w.Color != c.wantColor {
			t.Fatalf("move=%d sense=%d door=%d -> %s/%s, want %s/%s",
				c.move, c.sense, c.door, w.Type, w.Color, c.wantType, c.wantColor)
		}
	}
}

func TestOneWayWallsKeepFacing(t *testing.T) {
	left := 1
	right := 2
	var b Builder
	a := seg("a", 0, 0, 100, 0)
	a.Dir = &left
	b.Add(a)
	c := seg("b", 100, 0, 200, 0)
	c.Dir = &right
	b.Add(c)
	got := b.Walls()
	if len(got) != 2 {
		t.Fatalf("opposite facings merged")
	}
	if got[0].Side != "left" || got[1].Side != "right" {
		t.Fatalf("sides = %q,%q", got[0].Side, got[1].Side)
	}

	same := seg("c", 200, 0, 300, 0)
	same.Dir = &right
	b.Add(same)
	if len(b.Walls()) != 2 {
		t.Fatalf("matching facing should chain")
	}
}

func TestFoldSight(t *testing.T) {
	cases := []struct {
		move, sight         int
		wantMove, wantSense int
	}{
		{20, 20, 1, 1},
		{20, 10, 1, 2},
		{20, 0, 1, 0},
		{0, 20, 0, 1},
		{0, 0, 0, 0},
	}
	for _, c := range cases {
		m, s := FoldSight(c.move, c.sight)
		if m != c.wantMove || s != c.wantSense {
			t.Fatalf("FoldSight(%d,%d) = %d,%d, want %d,%d",
				c.move, c.sight, m, s, c.wantMove, c.wantSense)
		}
	}
}

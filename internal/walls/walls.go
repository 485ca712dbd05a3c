package walls

import (
	"fmt"
	"strings"
)

// Wall categories, each with a fixed editor color.
const (
	Normal     = "normal"
	Door       = "door"
	SecretDoor = "secretDoor"
	Ethereal   = "ethereal"
	Invisible  = "invisible"
	Terrain    = "terrain"
)

// Segment is one wall line in output pixel space, with the source record's
// restriction fields.
type Segment struct {
	ID string
	// X0,Y0,X1,Y1 are the transformed endpoints.
	X0, Y0, X1, Y1 float64
	Move           int
	Sense          int
	Door           int
	DoorState      int
	// Dir is nil when the source record carries no direction field.
	Dir *int
}

// FoldSight maps the newer per-sense restriction values onto the legacy
// move/sense pair the classifier works in.
func FoldSight(move, sight int) (int, int) {
	sense := 0
	switch sight {
	case 20:
		sense = 1
	case 10:
		sense = 2
	}
	if move == 20 {
		move = 1
	} else {
		move = 0
	}
	return move, sense
}

// Wall is one emitted polyline.
type Wall struct {
	ID   string
	Data string
	Type string
	// Color is the editor display color for the category.
	Color string
	// DoorState is "open" or "locked" for doors that start other than
	// closed, otherwise empty.
	DoorState string
	// Side is "left" or "right" for one-way walls, otherwise empty.
	Side string
}

// Builder accumulates walls for one scene.
type Builder struct {
	walls []*Wall
}

// Walls returns the emitted polylines in creation order.
func (b *Builder) Walls() []*Wall { return b.walls }

// Add chains the segment onto a compatible emitted wall or starts a new one.
func (b *Builder) Add(seg Segment) {
	path := fmt.Sprintf("%.1f,%.1f,%.1f,%.1f", seg.X0, seg.Y0, seg.X1, seg.Y1)
	tail := fmt.Sprintf(",%.1f,%.1f", seg.X0, seg.Y0)
	for _, w := range b.walls {
		if !strings.HasSuffix(w.Data, tail) {
			continue
		}
		if !compatible(w, seg) {
			continue
		}
		// The junction point is repeated; the importer tolerates it and
		// it keeps every source segment intact in the data string.
		w.Data += "," + path
		return
	}
	w := &Wall{ID: seg.ID, Data: path}
	w.Type, w.Color = classify(seg)
	if seg.Door > 0 && seg.DoorState > 0 {
		if seg.DoorState == 2 {
			w.DoorState = "locked"
		} else {
			w.DoorState = "open"
		}
	}
	if seg.Dir != nil && *seg.Dir > 0 {
		if *seg.Dir == 1 {
			w.Side = "left"
		} else {
			w.Side = "right"
		}
	}
	b.walls = append(b.walls, w)
}

// classify picks the wall category from the door flag and the move/sense
// restriction pair.
func classify(seg Segment) (string, string) {
	switch {
	case seg.Door == 1:
		return Door, "#00ffff"
	case seg.Door == 2:
		return SecretDoor, "#00ffff"
	case seg.Move == 0 && seg.Sense == 1:
		return Ethereal, "#7f007f"
	case seg.Move == 1 && seg.Sense == 0:
		return Invisible, "#ff00ff"
	case seg.Move == 1 && seg.Sense == 2:
		return Terrain, "#ffff00"
	default:
		return Normal, "#ff7f00"
	}
}

// compatible reports whether the segment may extend the emitted wall
// without changing its category, door state or facing.
func compatible(w *Wall, seg Segment) bool {
	if seg.Door > 0 {
		if seg.Door == 1 && w.Type != Door {
			return false
		}
		if seg.Door == 2 && w.Type != SecretDoor {
			return false
		}
		if seg.DoorState > 0 {
			if w.DoorState == "" {
				return false
			}
			if seg.DoorState == 1 && w.DoorState != "open" {
				return false
			}
			if seg.DoorState == 2 && w.DoorState != "locked" {
				return false
			}
		}
	} else if w.Type == Door || w.Type == SecretDoor {
		return false
	} else if seg.Move == 0 && seg.Sense == 1 && w.Type != Ethereal {
		return false
	} else if seg.Move == 1 && seg.Sense == 0 && w.Type != Invisible {
		return false
	} else if seg.Move == 1 && seg.Sense == 2 && w.Type != Terrain {
		return false
	} else if seg.Move == 1 && seg.Sense == 1 && w.Type != Normal {
		return false
	}
	if seg.Dir != nil {
		if w.Side == "" && *seg.Dir > 0 {
			return false
		}
		if *seg.Dir == 1 && w.Side != "left" {
			return false
		}
		if *seg.Dir == 2 && w.Side != "right" {
			return false
		}
	}
	return true
}

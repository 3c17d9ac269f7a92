package board

import "math"

// DefaultActivationDistance is the pointer travel, in pixels, before a press becomes a drag.
const DefaultActivationDistance = 8.0

// Point is a pointer position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned drop target area.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Target is a droppable element: a stage column or a card.
type Target struct {
	ID     string `json:"id"`
	Bounds Rect   `json:"bounds"`
}

// DragEnd is what a recognizer reports when the pointer is released.
type DragEnd struct {
	ActiveID string
	OverID   string
	// Click is set when the pointer never travelled past the activation distance.
	Click bool
}

// Recognizer turns raw pointer events into clicks or drag-ends.
// It is not safe for concurrent use; one recognizer serves one pointer.
type Recognizer struct {
	threshold float64
	pressed   bool
	dragging  bool
	activeID  string
	origin    Point
}

// NewRecognizer returns a recognizer that activates after threshold pixels of travel.
// A non-positive threshold uses DefaultActivationDistance.
func NewRecognizer(threshold float64) *Recognizer {
	if threshold <= 0 {
		threshold = DefaultActivationDistance
	}
	return &Recognizer{threshold: threshold}
}

// Press starts tracking a pointer press on item id.
func (r *Recognizer) Press(id string, at Point) {
	r.pressed = true
	r.dragging = false
	r.activeID = id
	r.origin = at
}

// Move updates the pointer and reports whether a drag is active.
func (r *Recognizer) Move(at Point) bool {
	if !r.pressed {
		return false
	}
	if !r.dragging && distance(r.origin, at) >= r.threshold {
		r.dragging = true
	}
	return r.dragging
}

// Dragging reports whether the current press has become a drag.
func (r *Recognizer) Dragging() bool {
	return r.dragging
}

// Release ends the press. It returns false when no press was in progress.
// A drag that ends with no targets reports an empty OverID.
func (r *Recognizer) Release(at Point, targets []Target) (DragEnd, bool) {
	if !r.pressed {
		return DragEnd{}, false
	}
	r.Move(at)

	end := DragEnd{ActiveID: r.activeID}
	if !r.dragging {
		end.Click = true
	} else {
		end.OverID, _ = NearestTarget(at, targets, r.activeID)
	}

	r.pressed = false
	r.dragging = false
	r.activeID = ""
	return end, true
}

// Cancel abandons the current press without producing an event.
func (r *Recognizer) Cancel() {
	r.pressed = false
	r.dragging = false
	r.activeID = ""
}

// NearestTarget picks the drop target for a pointer position. Among targets
// containing the point, the one whose center is closest wins, so a card beats
// the column around it. If none contain the point, the closest center overall
// wins. The dragged item itself (exclude) is never a candidate.
func NearestTarget(at Point, targets []Target, exclude string) (string, bool) {
	best := ""
	bestDist := math.Inf(1)
	bestContains := false

	for _, t := range targets {
		if t.ID == exclude {
			continue
		}
		contains := t.Bounds.Contains(at)
		d := distance(at, t.Bounds.Center())
		switch {
		case contains && !bestContains:
			best, bestDist, bestContains = t.ID, d, true
		case contains == bestContains && d < bestDist:
			best, bestDist = t.ID, d
		}
	}
	return best, best != ""
}

func distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

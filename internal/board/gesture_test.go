package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boardTargets lays out two 100px columns with one card each.
func boardTargets() []Target {
	return []Target{
		{ID: "applied", Bounds: Rect{X: 0, Y: 0, W: 100, H: 400}},
		{ID: "screening", Bounds: Rect{X: 110, Y: 0, W: 100, H: 400}},
		{ID: "X", Bounds: Rect{X: 5, Y: 40, W: 90, H: 30}},
		{ID: "Y", Bounds: Rect{X: 115, Y: 40, W: 90, H: 30}},
	}
}

func TestRecognizer_ClickBelowThreshold(t *testing.T) {
	r := NewRecognizer(8)
	r.Press("X", Point{X: 50, Y: 50})
	assert.False(t, r.Move(Point{X: 53, Y: 54}))

	end, ok := r.Release(Point{X: 54, Y: 54}, boardTargets())
	require.True(t, ok)
	assert.True(t, end.Click)
	assert.Equal(t, "X", end.ActiveID)
	assert.Empty(t, end.OverID)
}

func TestRecognizer_DragOntoCard(t *testing.T) {
	r := NewRecognizer(8)
	r.Press("X", Point{X: 50, Y: 50})
	assert.True(t, r.Move(Point{X: 80, Y: 50}))
	assert.True(t, r.Dragging())

	end, ok := r.Release(Point{X: 160, Y: 55}, boardTargets())
	require.True(t, ok)
	assert.False(t, end.Click)
	assert.Equal(t, DragEnd{ActiveID: "X", OverID: "Y"}, end)
	assert.False(t, r.Dragging())
}

func TestRecognizer_DragOntoEmptyColumnArea(t *testing.T) {
	r := NewRecognizer(0)
	r.Press("X", Point{X: 50, Y: 50})

	end, ok := r.Release(Point{X: 160, Y: 300}, boardTargets())
	require.True(t, ok)
	assert.Equal(t, "screening", end.OverID)
}

func TestRecognizer_ReleaseWithoutPress(t *testing.T) {
	r := NewRecognizer(8)
	_, ok := r.Release(Point{}, boardTargets())
	assert.False(t, ok)

	r.Press("X", Point{})
	r.Cancel()
	_, ok = r.Release(Point{X: 500}, boardTargets())
	assert.False(t, ok)
}

func TestNearestTarget_OutsideEveryTarget(t *testing.T) {
	id, ok := NearestTarget(Point{X: 260, Y: 200}, boardTargets(), "")
	require.True(t, ok)
	assert.Equal(t, "screening", id)
}

func TestNearestTarget_ExcludesDraggedItem(t *testing.T) {
	id, ok := NearestTarget(Point{X: 50, Y: 55}, boardTargets(), "X")
	require.True(t, ok)
	assert.Equal(t, "applied", id)

	_, ok = NearestTarget(Point{}, nil, "")
	assert.False(t, ok)
}

func TestGestureToTransition(t *testing.T) {
	f := newFixture(t, threeStages(t), app("X", "applied"), app("Y", "screening"))

	r := NewRecognizer(DefaultActivationDistance)
	r.Press("X", Point{X: 50, Y: 55})
	end, ok := r.Release(Point{X: 150, Y: 50}, boardTargets())
	require.True(t, ok)

	tr, ok := f.board.ResolveDrag(end.ActiveID, end.OverID)
	require.True(t, ok)
	assert.Equal(t, Transition{ApplicationID: "X", From: "applied", To: "screening"}, tr)
}

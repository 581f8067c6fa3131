package drag

import (
	"context"

	"github.com/ilyklain/khlan-saas/internal/model"
)

// DefaultDistance is the activation distance in pixels.
const DefaultDistance = 5

// Sensor holds the activation constraint for pointer gestures.
type Sensor struct {
	// Distance the pointer must travel, strictly, before a press becomes a
	// drag. Shorter gestures are clicks.
	Distance float64
}

// Drop is the outcome of a completed drag.
type Drop struct {
	MovedID  string `json:"moved_id"`
	TargetID string `json:"target_id"`
}

// Gesture tracks one press-move-release sequence. It is not safe for
// concurrent use.
type Gesture struct {
	sensor Sensor
	id     string
	origin Point
	items  []Item
	bounds Rect

	active    bool
	cancelled bool
	over      string
}

// Begin starts tracking a press on the widget id at point at. items are the
// droppable widgets with their current positions, hidden widgets included.
// A non-empty bounds limits where a drop is accepted.
func (s Sensor) Begin(id string, at Point, items []Item, bounds Rect) *Gesture {
	return &Gesture{
		sensor: s,
		id:     id,
		origin: at,
		items:  append([]Item(nil), items...),
		bounds: bounds,
	}
}

// Active reports whether the gesture has passed the activation distance.
func (g *Gesture) Active() bool { return g.active }

// Over returns the current candidate drop target, or "".
func (g *Gesture) Over() string { return g.over }

// Move records a pointer move.
func (g *Gesture) Move(p Point) {
	if g.cancelled {
		return
	}
	if !g.active {
		if p.Dist(g.origin) <= g.sensor.Distance {
			return
		}
		g.active = true
	}
	g.track(p)
}

// Cancel abandons the gesture; End will report no drop.
func (g *Gesture) Cancel() {
	g.cancelled = true
	g.over = ""
}

// End records the release at p. ok is false when the gesture never became
// a drag, was cancelled, or was released with no valid target.
func (g *Gesture) End(p Point) (Drop, bool) {
	g.Move(p)
	if !g.active || g.cancelled || g.over == "" {
		return Drop{}, false
	}
	return Drop{MovedID: g.id, TargetID: g.over}, true
}

func (g *Gesture) track(p Point) {
	if !g.bounds.Empty() && !g.bounds.Contains(p) {
		g.over = ""
		return
	}
	g.over = ClosestCenter(g.items, p)
}

// Reorderer applies a drop to a layout.
type Reorderer interface {
	Reorder(ctx context.Context, movedID, targetID string) (model.Layout, error)
}

// Apply hands the result of End to r. A rejected drop is passed on with no
// target, which r treats as a no-op.
func Apply(ctx context.Context, r Reorderer, d Drop, ok bool) (model.Layout, error) {
	if !ok {
		d.TargetID = ""
	}
	return r.Reorder(ctx, d.MovedID, d.TargetID)
}

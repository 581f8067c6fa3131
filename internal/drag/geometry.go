// Package drag turns pointer gestures over the widget list into reorder
// requests: a gesture only counts as a drag past an activation distance, and
// the drop target is the item whose center is nearest the pointer.
package drag

import "math"

// Point is a pointer position in page coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Item is a droppable widget and its current bounding box.
type Item struct {
	ID   string `json:"id"`
	Rect Rect   `json:"rect"`
}

// ClosestCenter returns the id of the item whose center is nearest p, or ""
// if items is empty. Ties go to the earlier item.
func ClosestCenter(items []Item, p Point) string {
	best := ""
	bestDist := math.Inf(1)
	for _, it := range items {
		if d := it.Rect.Center().Dist(p); d < bestDist {
			best, bestDist = it.ID, d
		}
	}
	return best
}

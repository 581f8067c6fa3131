package layout

import "github.com/ilyklain/khlan-saas/internal/model"

// Slot is one position of the rendered dashboard. Every widget keeps its
// slot and drag handle; only visible widgets get a body.
type Slot struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Position   int    `json:"position"`
	Draggable  bool   `json:"draggable"`
	RenderBody bool   `json:"render_body"`
}

// Render applies the rendering policy to l.
func Render(l model.Layout) []Slot {
	slots := make([]Slot, len(l))
	for i, w := range l {
		slots[i] = Slot{
			ID:         w.ID,
			Label:      w.Label,
			Position:   i,
			Draggable:  true,
			RenderBody: w.Visible,
		}
	}
	return slots
}

package model

import "fmt"

// WidgetConfig describes one dashboard widget and whether its body is rendered.
type WidgetConfig struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Visible bool   `json:"visible"`
}

// Layout is the ordered, visibility-tagged list of all widgets.
// Order is render order, top to bottom.
type Layout []WidgetConfig

// IDs returns the widget ids in order.
func (l Layout) IDs() []string {
	ids := make([]string, len(l))
	for i, w := range l {
		ids[i] = w.ID
	}
	return ids
}

// Index returns the position of id, or -1.
func (l Layout) Index(id string) int {
	for i, w := range l {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no backing array with l.
func (l Layout) Clone() Layout {
	if l == nil {
		return nil
	}
	out := make(Layout, len(l))
	copy(out, l)
	return out
}

// Equal reports whether both layouts hold the same widgets in the same order
// with the same visibility.
func (l Layout) Equal(other Layout) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// Validate checks that l holds exactly the widgets of known: every known id
// once, no foreign ids, no duplicates.
func (l Layout) Validate(known Layout) error {
	if len(l) != len(known) {
		return fmt.Errorf("layout has %d widgets, want %d", len(l), len(known))
	}
	seen := make(map[string]bool, len(l))
	for _, w := range l {
		if known.Index(w.ID) < 0 {
			return fmt.Errorf("unknown widget %q", w.ID)
		}
		if seen[w.ID] {
			return fmt.Errorf("duplicate widget %q", w.ID)
		}
		seen[w.ID] = true
	}
	return nil
}

package layout

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ilyklain/khlan-saas/internal/model"
)

// storedWidget mirrors model.WidgetConfig with pointers so that missing
// fields can be told apart from zero values.
type storedWidget struct {
	ID      *string `json:"id"`
	Label   *string `json:"label"`
	Visible *bool   `json:"visible"`
}

// Decode parses a stored layout and checks it against the known widgets.
// Labels are taken from known; the stored order and visibility are kept.
func Decode(raw string, known model.Layout) (model.Layout, error) {
	var stored []storedWidget
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	if stored == nil {
		return nil, errors.New("decode layout: not an array")
	}

	out := make(model.Layout, 0, len(stored))
	for i, w := range stored {
		if w.ID == nil || w.Visible == nil {
			return nil, fmt.Errorf("decode layout: entry %d is missing id or visible", i)
		}
		cfg := model.WidgetConfig{ID: *w.ID, Visible: *w.Visible}
		if k := known.Index(cfg.ID); k >= 0 {
			cfg.Label = known[k].Label
		}
		out = append(out, cfg)
	}
	if err := out.Validate(known); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	return out, nil
}

// Move returns a copy of l with the element at from removed and reinserted
// at index to.
func Move(l model.Layout, from, to int) model.Layout {
	out := l.Clone()
	if from == to {
		return out
	}
	w := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = w
	return out
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/ilyklain/khlan-saas/internal/drag"
	"github.com/ilyklain/khlan-saas/internal/layout"
	"github.com/ilyklain/khlan-saas/internal/model"
)

type layoutAPI struct {
	engine *layout.Engine
	sensor drag.Sensor
}

type layoutResponse struct {
	Widgets model.Layout  `json:"widgets"`
	Slots   []layout.Slot `json:"slots"`
}

func newLayoutResponse(l model.Layout) layoutResponse {
	return layoutResponse{Widgets: l, Slots: layout.Render(l)}
}

func (a *layoutAPI) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newLayoutResponse(a.engine.Current()))
}

func (a *layoutAPI) reorder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MovedID  string `json:"moved_id"`
		TargetID string `json:"target_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	l, err := a.engine.Reorder(r.Context(), body.MovedID, body.TargetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newLayoutResponse(l))
}

func (a *layoutAPI) toggle(w http.ResponseWriter, r *http.Request) {
	l, err := a.engine.ToggleVisibility(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newLayoutResponse(l))
}

func (a *layoutAPI) reset(w http.ResponseWriter, r *http.Request) {
	l, err := a.engine.Reset(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newLayoutResponse(l))
}

// dragRequest is a recorded pointer gesture: press at Start, the moves in
// Path, release at End. Cancelled marks a gesture aborted by the client.
type dragRequest struct {
	MovedID   string       `json:"moved_id"`
	Start     drag.Point   `json:"start"`
	Path      []drag.Point `json:"path"`
	End       drag.Point   `json:"end"`
	Items     []drag.Item  `json:"items"`
	Bounds    drag.Rect    `json:"bounds"`
	Cancelled bool         `json:"cancelled"`
}

type dragResponse struct {
	Applied  bool          `json:"applied"`
	TargetID string        `json:"target_id,omitempty"`
	Widgets  model.Layout  `json:"widgets"`
	Slots    []layout.Slot `json:"slots"`
}

func (a *layoutAPI) drag(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.MovedID == "" {
		writeError(w, http.StatusBadRequest, "moved_id is required")
		return
	}

	g := a.sensor.Begin(req.MovedID, req.Start, req.Items, req.Bounds)
	for _, p := range req.Path {
		g.Move(p)
	}
	if req.Cancelled {
		g.Cancel()
	}
	d, ok := g.End(req.End)

	l, err := drag.Apply(r.Context(), a.engine, d, ok)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dragResponse{
		Applied:  dropMoves(l, d, ok),
		TargetID: d.TargetID,
		Widgets:  l,
		Slots:    layout.Render(l),
	})
}

// dropMoves reports whether d reorders l: Reorder has no effect on a drop
// onto itself or with an id outside the layout.
func dropMoves(l model.Layout, d drag.Drop, ok bool) bool {
	return ok && d.TargetID != d.MovedID && l.Index(d.MovedID) >= 0 && l.Index(d.TargetID) >= 0
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ilyklain/khlan-saas/internal/drag"
	"github.com/ilyklain/khlan-saas/internal/layout"
	"github.com/ilyklain/khlan-saas/internal/store"
)

func newTestRouter(t *testing.T, basePath string) (http.Handler, *layout.Engine) {
	t.Helper()
	e := layout.New(store.NewMemory())
	e.Load(context.Background())
	return NewRouter(e, nil, drag.Sensor{Distance: drag.DefaultDistance}, basePath, zap.NewNop()), e
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestGetLayout(t *testing.T) {
	h, _ := newTestRouter(t, "/")
	rec := do(t, h, "GET", "/api/v1/layout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	res := decode[layoutResponse](t, rec)
	assert.Equal(t, layout.DefaultWidgets(), res.Widgets)
	assert.Len(t, res.Slots, 3)
}

func TestLayoutScenario(t *testing.T) {
	h, e := newTestRouter(t, "/")

	rec := do(t, h, "POST", "/api/v1/layout/widgets/chart/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[layoutResponse](t, rec)
	assert.False(t, res.Widgets[1].Visible)
	assert.False(t, res.Slots[1].RenderBody)
	assert.True(t, res.Slots[1].Draggable)

	rec = do(t, h, "PUT", "/api/v1/layout/order", map[string]string{"moved_id": "activity", "target_id": "kpi"})
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[layoutResponse](t, rec)
	assert.Equal(t, []string{"activity", "kpi", "chart"}, res.Widgets.IDs())
	assert.Equal(t, res.Widgets, e.Current())

	rec = do(t, h, "POST", "/api/v1/layout/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, layout.DefaultWidgets(), decode[layoutResponse](t, rec).Widgets)
}

func TestToggleUnknownWidget(t *testing.T) {
	h, _ := newTestRouter(t, "/")
	rec := do(t, h, "POST", "/api/v1/layout/widgets/map/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, layout.DefaultWidgets(), decode[layoutResponse](t, rec).Widgets)
}

func TestReorderInvalidJSON(t *testing.T) {
	h, _ := newTestRouter(t, "/")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("PUT", "/api/v1/layout/order", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON")
}

var testItems = []drag.Item{
	{ID: "kpi", Rect: drag.Rect{X: 0, Y: 0, Width: 200, Height: 100}},
	{ID: "chart", Rect: drag.Rect{X: 0, Y: 100, Width: 200, Height: 100}},
	{ID: "activity", Rect: drag.Rect{X: 0, Y: 200, Width: 200, Height: 100}},
}

func TestDragGesture(t *testing.T) {
	h, _ := newTestRouter(t, "/")
	rec := do(t, h, "POST", "/api/v1/layout/drag", dragRequest{
		MovedID: "activity",
		Start:   drag.Point{X: 100, Y: 250},
		Path:    []drag.Point{{X: 100, Y: 200}, {X: 100, Y: 120}},
		End:     drag.Point{X: 100, Y: 30},
		Items:   testItems,
		Bounds:  drag.Rect{Width: 200, Height: 300},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[dragResponse](t, rec)
	assert.True(t, res.Applied)
	assert.Equal(t, "kpi", res.TargetID)
	assert.Equal(t, []string{"activity", "kpi", "chart"}, res.Widgets.IDs())
}

// foreignItems puts an id the layout does not know under the pointer.
var foreignItems = []drag.Item{
	{ID: "kpi", Rect: drag.Rect{X: 0, Y: 0, Width: 200, Height: 100}},
	{ID: "zzz", Rect: drag.Rect{X: 0, Y: 100, Width: 200, Height: 100}},
}

func TestDragGestureNotApplied(t *testing.T) {
	tests := map[string]dragRequest{
		"click": {
			MovedID: "activity",
			Start:   drag.Point{X: 100, Y: 250},
			End:     drag.Point{X: 102, Y: 251},
			Items:   testItems,
		},
		"outside": {
			MovedID: "activity",
			Start:   drag.Point{X: 100, Y: 250},
			Path:    []drag.Point{{X: 100, Y: 120}},
			End:     drag.Point{X: 900, Y: 120},
			Items:   testItems,
			Bounds:  drag.Rect{Width: 200, Height: 300},
		},
		"cancelled": {
			MovedID:   "activity",
			Start:     drag.Point{X: 100, Y: 250},
			Path:      []drag.Point{{X: 100, Y: 20}},
			End:       drag.Point{X: 100, Y: 20},
			Items:     testItems,
			Cancelled: true,
		},
		"foreign target": {
			MovedID: "kpi",
			Start:   drag.Point{X: 100, Y: 50},
			Path:    []drag.Point{{X: 100, Y: 150}},
			End:     drag.Point{X: 100, Y: 160},
			Items:   foreignItems,
		},
		"own slot": {
			MovedID: "activity",
			Start:   drag.Point{X: 100, Y: 250},
			Path:    []drag.Point{{X: 100, Y: 270}},
			End:     drag.Point{X: 100, Y: 260},
			Items:   testItems,
		},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			h, _ := newTestRouter(t, "/")
			rec := do(t, h, "POST", "/api/v1/layout/drag", req)
			require.Equal(t, http.StatusOK, rec.Code)
			res := decode[dragResponse](t, rec)
			assert.False(t, res.Applied)
			assert.Equal(t, layout.DefaultWidgets(), res.Widgets)
		})
	}
}

func TestDragRequiresMovedID(t *testing.T) {
	h, _ := newTestRouter(t, "/")
	rec := do(t, h, "POST", "/api/v1/layout/drag", dragRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBasePathIsStripped(t *testing.T) {
	h, _ := newTestRouter(t, "/dash")
	rec := do(t, h, "GET", "/dash/api/v1/layout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, "GET", "/dash/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "window.__BASE_PATH='/dash'")
	assert.Contains(t, rec.Body.String(), `src="/dash/js/layout.js"`)
}

func TestOptionsPreflight(t *testing.T) {
	h, _ := newTestRouter(t, "/")
	rec := do(t, h, "OPTIONS", "/api/v1/layout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

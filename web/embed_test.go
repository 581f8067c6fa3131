package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticHandlerIndex(t *testing.T) {
	cases := []struct {
		name     string
		basePath string
		boot     string
		script   string
	}{
		{"root", "/", "window.__BASE_PATH='/'", `src="/js/layout.js"`},
		{"empty", "", "window.__BASE_PATH='/'", `src="/js/layout.js"`},
		{"prefixed", "/dash", "window.__BASE_PATH='/dash'", `src="/dash/js/layout.js"`},
		{"quoted", "/a'b", `window.__BASE_PATH='/a\'b'`, `src="/a'b/js/layout.js"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, path := range []string{"/", "/index.html"} {
				rec := httptest.NewRecorder()
				StaticHandler(tc.basePath).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

				require.Equal(t, http.StatusOK, rec.Code)
				assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
				assert.Contains(t, rec.Body.String(), tc.boot)
				assert.Contains(t, rec.Body.String(), tc.script)
			}
		})
	}
}

func TestStaticHandlerServesAssets(t *testing.T) {
	rec := httptest.NewRecorder()
	StaticHandler("/").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/js/layout.js", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "__BASE_PATH")
}

package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ilyklain/khlan-saas/internal/drag"
	"github.com/ilyklain/khlan-saas/internal/layout"
	"github.com/ilyklain/khlan-saas/web"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(engine *layout.Engine, hub *Hub, sensor drag.Sensor, basePath string, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	la := &layoutAPI{engine: engine, sensor: sensor}

	// Widget layout
	mux.HandleFunc("GET /api/v1/layout", la.get)
	mux.HandleFunc("PUT /api/v1/layout/order", la.reorder)
	mux.HandleFunc("POST /api/v1/layout/widgets/{id}/toggle", la.toggle)
	mux.HandleFunc("POST /api/v1/layout/reset", la.reset)
	mux.HandleFunc("POST /api/v1/layout/drag", la.drag)

	// WebSocket
	if hub != nil {
		mux.HandleFunc("GET /api/v1/ws", hub.HandleWS)
	}

	// Static files (embedded), base_path injected into index.html
	mux.Handle("/", web.StaticHandler(basePath))

	var handler http.Handler = mux

	// If base_path is set, strip the prefix so internal routing works unchanged
	if basePath != "/" && basePath != "" {
		inner := handler
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, basePath) {
				r.URL.Path = strings.TrimPrefix(r.URL.Path, basePath)
				if r.URL.Path == "" {
					r.URL.Path = "/"
				}
				r.URL.RawPath = strings.TrimPrefix(r.URL.RawPath, basePath)
			}
			inner.ServeHTTP(w, r)
		})
	}

	return withMiddleware(handler, log.With(zap.String("component", "http")))
}

func withMiddleware(next http.Handler, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		defer func() {
			if err := recover(); err != nil {
				log.Error("panic", zap.Any("recovered", err), zap.String("path", r.URL.Path))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		// CORS for local development
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)

		log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

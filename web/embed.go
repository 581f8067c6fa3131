// Package web embeds the dashboard page served at the router root.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed static/*
var staticFS embed.FS

// StaticHandler serves the embedded page. index.html is rendered once with
// basePath: the page reads it from window.__BASE_PATH, and root-relative
// script URLs are rewritten under the prefix.
func StaticHandler(basePath string) http.Handler {
	root, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // static/ is embedded at build time
	}
	index, err := renderIndex(root, basePath)
	if err != nil {
		panic(err)
	}
	files := http.FileServerFS(root)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/", "/index.html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(index)
		default:
			files.ServeHTTP(w, r)
		}
	})
}

func renderIndex(root fs.FS, basePath string) ([]byte, error) {
	page, err := fs.ReadFile(root, "index.html")
	if err != nil {
		return nil, err
	}
	html := string(page)
	if basePath == "" {
		basePath = "/"
	}
	if basePath != "/" {
		html = strings.ReplaceAll(html, `src="/`, `src="`+basePath+`/`)
	}
	boot := "<head>\n<script>window.__BASE_PATH=" + jsString(basePath) + ";</script>"
	return []byte(strings.Replace(html, "<head>", boot, 1)), nil
}

// jsString quotes s as a single-quoted JavaScript string literal.
func jsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `<`, `\x3c`)
	return "'" + r.Replace(s) + "'"
}

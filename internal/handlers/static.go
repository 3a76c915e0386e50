package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"storefront/pkg/utils"
)

// Healthz is the liveness probe.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"ts": time.Now().UTC().Format(time.RFC3339),
	})
}

// SPA serves the built front-end. Paths that do not name a file fall back to
// index.html so the client-side router can take over; unknown /api/ paths get JSON 404.
func (h *Handler) SPA() http.Handler {
	root := h.opts.StaticDir
	files := http.FileServer(http.Dir(root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			utils.WriteError(w, http.StatusNotFound, utils.ErrRequestNotFound, "Not found")
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			utils.WriteError(w, http.StatusMethodNotAllowed, utils.ErrRequestInvalid, "Method not allowed")
			return
		}

		clean := path.Clean("/" + r.URL.Path)
		if clean != "/" {
			if info, err := os.Stat(filepath.Join(root, filepath.FromSlash(clean))); err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}

		index := filepath.Join(root, "index.html")
		if _, err := os.Stat(index); err != nil {
			utils.WriteError(w, http.StatusNotFound, utils.ErrRequestNotFound, "Not found")
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, index)
	})
}

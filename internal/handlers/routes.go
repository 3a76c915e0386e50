package handlers

import "net/http"

// Gates are the per-group middlewares applied by Routes. A nil gate passes through.
type Gates struct {
	Admin   func(http.Handler) http.Handler
	Contact func(http.Handler) http.Handler
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes(g Gates) *http.ServeMux {
	admin := wrap(g.Admin)
	contact := wrap(g.Contact)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Healthz)

	mux.Handle("POST /api/contact", contact(http.HandlerFunc(h.Contact)))
	mux.HandleFunc("GET /api/gallery", h.Gallery)

	mux.Handle("GET /api/admin/list", admin(http.HandlerFunc(h.AdminList)))
	mux.Handle("GET /api/admin/stats", admin(http.HandlerFunc(h.AdminStats)))
	mux.Handle("POST /api/admin/upload", admin(http.HandlerFunc(h.Upload)))
	mux.Handle("POST /api/admin/delete", admin(http.HandlerFunc(h.Delete)))
	mux.Handle("DELETE /api/admin/delete/{public_id...}", admin(http.HandlerFunc(h.Delete)))

	if h.deps.Local != nil {
		mux.HandleFunc("GET /media/{path...}", h.Media)
	}

	mux.Handle("/", h.SPA())
	return mux
}

func wrap(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}

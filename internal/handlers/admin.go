package handlers

import (
	"net/http"

	"storefront/internal/gallery"
	"storefront/internal/imagehost"
	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

// AdminList returns the current hosted images for the admin panel. Unlike the
// public listing it is never cached.
// GET /api/admin/list
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Host.List(r.Context(), imagehost.ListOptions{Max: h.opts.AdminLimit})
	if err != nil {
		logger.LogError("[ADMIN] list failed: %v", err)
		utils.WriteErrorDetail(w, http.StatusInternalServerError, utils.ErrUpstreamImage, "Failed to load admin list", err.Error())
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	utils.WriteJSON(w, http.StatusOK, listResponse{Resources: gallery.Prepare(res)})
}

// AdminStats reports counters since start.
// GET /api/admin/stats
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	s := h.deps.Counters.Snapshot()
	if h.deps.Host != nil {
		s.ImageDriver = h.deps.Host.Name()
	}
	s.MaxUploadSize = h.opts.MaxUploadSize
	if s.MaxUploadSize == "" {
		s.MaxUploadSize = utils.FormatBytes(h.opts.MaxUploadBytes)
	}

	w.Header().Set("Cache-Control", "no-store")
	utils.WriteJSON(w, http.StatusOK, s)
}

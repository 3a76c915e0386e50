package handlers

import (
	"net/http"

	"storefront/internal/imagehost"
	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

type listResponse struct {
	Resources []imagehost.Resource `json:"resources"`
}

// Gallery returns the public photo listing, newest first.
// GET /api/gallery
func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Gallery.List(r.Context())
	if err != nil {
		logger.LogError("[GALLERY] list failed: %v", err)
		utils.WriteErrorDetail(w, http.StatusInternalServerError, utils.ErrUpstreamImage, "Failed to load gallery", err.Error())
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	utils.WriteJSON(w, http.StatusOK, listResponse{Resources: res})
}

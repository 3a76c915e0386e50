package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/imagehost"
	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

// Media serves images held by the local driver.
// GET /media/{public_id...}           original bytes
// GET /media/w_{n}[,...]/{public_id...} resized JPEG variant
func (h *Handler) Media(w http.ResponseWriter, r *http.Request) {
	if h.deps.Local == nil {
		utils.WriteError(w, http.StatusNotFound, utils.ErrRequestNotFound, "Not found")
		return
	}

	path := r.PathValue("path")
	width, publicID := splitVariant(path)
	if !utils.IsValidPublicID(publicID) {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Invalid image path")
		return
	}

	var (
		data        []byte
		contentType string
		err         error
	)
	if width > 0 && h.deps.Variants != nil {
		data, err = h.deps.Variants.Get(r.Context(), publicID, width)
		contentType = "image/jpeg"
	} else {
		var format string
		data, format, err = h.deps.Local.Original(r.Context(), publicID)
		contentType = "image/" + format
	}

	if errors.Is(err, imagehost.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, utils.ErrRequestNotFound, "Image not found")
		return
	}
	if err != nil {
		logger.LogError("[MEDIA] %s: %v", path, err)
		utils.WriteError(w, http.StatusInternalServerError, utils.ErrServerInternal, "Failed to load image")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	// Public ids are never reused, so the bytes behind a URL never change.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}

const maxVariantWidth = 4000

// splitVariant separates a leading "w_<n>" transform segment from the public id.
// A path without one yields width 0.
func splitVariant(path string) (int, string) {
	path = strings.TrimPrefix(path, "/")
	first, rest, ok := strings.Cut(path, "/")
	if !ok || !strings.HasPrefix(first, "w_") {
		return 0, path
	}

	directive, _, _ := strings.Cut(first, ",")
	n := utils.ParseInt(strings.TrimPrefix(directive, "w_"), 0, 0, maxVariantWidth)
	if n <= 0 {
		return 0, path
	}
	return n, rest
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"storefront/internal/imagehost"
	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

type uploadResponse struct {
	OK        bool   `json:"ok"`
	PublicID  string `json:"public_id"`
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Upload stores one image.
// POST /api/admin/upload (multipart: file, caption?, tags?)
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	// Room for the caption and tags fields on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes+(1<<20))

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			utils.WriteError(w, http.StatusRequestEntityTooLarge, utils.ErrRequestBodyTooLarge, "File exceeds the "+h.maxUploadLabel()+" limit")
			return
		}
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "No file uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestMissingFields, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Size == 0 {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestMissingFields, "No file uploaded")
		return
	}
	if header.Size > h.opts.MaxUploadBytes {
		utils.WriteError(w, http.StatusRequestEntityTooLarge, utils.ErrRequestBodyTooLarge, "File exceeds the "+h.maxUploadLabel()+" limit")
		return
	}
	if _, ok := utils.SniffImage(file); !ok {
		utils.WriteError(w, http.StatusUnsupportedMediaType, utils.ErrRequestUnSupportedMedia, "Only image uploads are allowed")
		return
	}

	res, err := h.deps.Host.Upload(r.Context(), imagehost.Upload{
		File:     file,
		Filename: header.Filename,
		Caption:  utils.Truncate(strings.TrimSpace(r.FormValue("caption")), MaxCaptionLength),
		Tags:     utils.SplitList(r.FormValue("tags")),
	})
	switch {
	case errors.Is(err, imagehost.ErrUnsupported):
		utils.WriteError(w, http.StatusUnsupportedMediaType, utils.ErrRequestUnSupportedMedia, "Image format not supported by the "+h.deps.Host.Name()+" store")
		return
	case errors.Is(err, imagehost.ErrNoFile):
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestMissingFields, "No file uploaded")
		return
	case err != nil:
		logger.LogError("[ADMIN] upload of %q failed: %v", header.Filename, err)
		utils.WriteErrorDetail(w, http.StatusInternalServerError, utils.ErrUpstreamImage, "Upload failed", err.Error())
		return
	}

	h.deps.Counters.Uploads.Add(1)
	h.afterMutation(r.Context(), res.PublicID)
	logger.LogSuccess("[ADMIN] uploaded %s (%dx%d)", res.PublicID, res.Width, res.Height)

	utils.WriteJSON(w, http.StatusOK, uploadResponse{
		OK:        true,
		PublicID:  res.PublicID,
		URL:       res.SecureURL,
		SecureURL: res.SecureURL,
		Width:     res.Width,
		Height:    res.Height,
	})
}

// Delete removes one image by its host identifier, taken from the path or a JSON body.
// DELETE /api/admin/delete/{public_id...}
// POST   /api/admin/delete {"public_id": "..."}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	publicID := r.PathValue("public_id")
	if publicID == "" && r.Body != nil {
		var body struct {
			PublicID string `json:"public_id"`
		}
		r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Invalid request body")
			return
		}
		publicID = body.PublicID
	}

	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestMissingFields, "Missing public_id")
		return
	}
	if !utils.IsValidPublicID(publicID) {
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Invalid public_id")
		return
	}

	err := h.deps.Host.Delete(r.Context(), publicID)
	switch {
	case errors.Is(err, imagehost.ErrNotFound):
		utils.WriteErrorDetail(w, http.StatusBadRequest, utils.ErrRequestNotFound, "Failed to delete image", err.Error())
		return
	case err != nil:
		logger.LogError("[ADMIN] delete of %s failed: %v", publicID, err)
		utils.WriteErrorDetail(w, http.StatusInternalServerError, utils.ErrUpstreamImage, "Delete failed", err.Error())
		return
	}

	h.deps.Counters.Deletes.Add(1)
	h.afterMutation(r.Context(), publicID)
	logger.LogInfo("[ADMIN] deleted %s", publicID)
	utils.WriteOK(w)
}

func (h *Handler) maxUploadLabel() string {
	if h.opts.MaxUploadSize != "" {
		return h.opts.MaxUploadSize
	}
	return utils.FormatBytes(h.opts.MaxUploadBytes)
}

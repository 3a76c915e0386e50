package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"storefront/internal/enquiry"
	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

type contactError struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Contact accepts a contact-form submission.
// POST /api/contact
//
// Bot submissions get the same 200 {"ok":true} as accepted ones and send no mail.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxContactBody)

	e, err := decodeEnquiry(r)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			utils.WriteError(w, http.StatusRequestEntityTooLarge, utils.ErrRequestBodyTooLarge, "Request body too large")
			return
		}
		utils.WriteError(w, http.StatusBadRequest, utils.ErrRequestInvalid, "Invalid request body")
		return
	}

	ip := utils.GetRealIP(r)
	verdict := h.deps.Classifier.Classify(e)

	switch verdict.Kind {
	case enquiry.Bot:
		h.deps.Counters.EnquiriesSuppressed.Add(1)
		logger.LogInfo("[CONTACT] suppressed submission from %s (%s)", ip, verdict.Reason)
		utils.WriteOK(w)

	case enquiry.Invalid:
		h.deps.Counters.EnquiriesRejected.Add(1)
		first := verdict.Errors.First()
		msg, code := "Invalid fields", utils.ErrRequestInvalid
		if verdict.Errors.Missing() {
			msg, code = "Missing fields", utils.ErrRequestMissingFields
		}
		utils.WriteJSON(w, http.StatusBadRequest, contactError{
			Error:   msg,
			Code:    code,
			Message: first.Field + " " + first.Message,
			Fields:  verdict.Errors.Fields(),
		})

	case enquiry.Legitimate:
		res, err := h.deps.Notifier.Notify(r.Context(), verdict.Enquiry)
		if err != nil {
			h.deps.Counters.EnquiriesFailed.Add(1)
			logger.LogError("[CONTACT] email send failed: %v", err)
			utils.WriteError(w, http.StatusInternalServerError, utils.ErrUpstreamMail, "Failed to send email")
			return
		}
		h.deps.Counters.EnquiriesAccepted.Add(1)
		if res.AckErr != nil {
			h.deps.Counters.AcksFailed.Add(1)
		}
		logger.LogSuccess("[CONTACT] enquiry from %s relayed", verdict.Enquiry.Email)
		utils.WriteOK(w)
	}
}

// decodeEnquiry reads JSON, a urlencoded form or a multipart form.
// An empty body is an empty enquiry.
func decodeEnquiry(r *http.Request) (enquiry.Enquiry, error) {
	var e enquiry.Enquiry

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxContactBody); err != nil {
			return e, err
		}
		return formEnquiry(r), nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return e, err
		}
		return formEnquiry(r), nil
	}

	err := json.NewDecoder(r.Body).Decode(&e)
	if errors.Is(err, io.EOF) {
		return e, nil
	}
	return e, err
}

func formEnquiry(r *http.Request) enquiry.Enquiry {
	return enquiry.Enquiry{
		Name:        r.PostFormValue("name"),
		Email:       r.PostFormValue("email"),
		Phone:       r.PostFormValue("phone"),
		Message:     r.PostFormValue("message"),
		Company:     r.PostFormValue("company"),
		MountedAt:   enquiry.ParseMillis(r.PostFormValue("mountedAt")),
		SubmittedAt: enquiry.ParseMillis(r.PostFormValue("submittedAt")),
	}
}

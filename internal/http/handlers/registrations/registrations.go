// Package registrations contains the HTTP handlers that drive a tenant
// registration form session: open it, change fields one at a time, pick
// a room and meals, upload or remove documents, and submit.
//
// Every change responds with the session's Snapshot, so the client
// always has the current errors and the "submit enabled" state.
package registrations

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/hostel-api/internal/registration"
	"github.com/aanand-mishra/hostel-api/internal/utils/response"
)

// maxUploadBytes bounds a multipart attachment batch.
const maxUploadBytes = 32 << 20

// Handler holds the open sessions and the validator used to decode values.
type Handler struct {
	sessions  *registration.Sessions
	validator *registration.Validator
}

func New(sessions *registration.Sessions, v *registration.Validator) *Handler {
	return &Handler{sessions: sessions, validator: v}
}

// decode reads a JSON body into dst; an empty body is an error.
func decode(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return errors.New("request body is empty")
	}
	return err
}

// form looks up the session named in the path, writing a 404 when it is
// gone.
func (h *Handler) form(w http.ResponseWriter, r *http.Request) (*registration.Form, bool) {
	f, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
		return nil, false
	}
	return f, true
}

// writeFormError maps a form error to its status code.
func writeFormError(w http.ResponseWriter, err error) {
	var fe *registration.FieldError
	var fes registration.FieldErrors

	switch {
	case errors.As(err, &fe):
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.FieldError(fe))
	case errors.As(err, &fes):
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.ValidationError(fes))
	case errors.Is(err, registration.ErrTooManyFiles):
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
	case errors.Is(err, registration.ErrSubmitInFlight),
		errors.Is(err, registration.ErrAlreadySubmitted),
		errors.Is(err, registration.ErrFormClosed):
		response.WriteJSON(w, http.StatusConflict, response.GeneralError(err))
	case errors.Is(err, registration.ErrUnknownField),
		errors.Is(err, registration.ErrReadOnlyField),
		errors.Is(err, registration.ErrFieldType),
		errors.Is(err, registration.ErrUnknownMeal):
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
	default:
		slog.Error("registration request failed", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Open handles POST /api/registrations
// Success response (201 Created): { "id": "<session id>", "form": {snapshot} }
// ─────────────────────────────────────────────────────────────────────────────
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	id, f := h.sessions.Open()
	slog.Info("registration session opened", slog.String("session", id))

	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":   id,
		"form": f.Snapshot(),
	})
}

// Get handles GET /api/registrations/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	f, ok := h.form(w, r)
	if !ok {
		return
	}
	response.WriteJSON(w, http.StatusOK, f.Snapshot())
}

// ─────────────────────────────────────────────────────────────────────────────
// SetField handles PATCH /api/registrations/{id}/fields/{field}
//
// Request body: { "value": <json value of the field's type> }
//
// The value is stored even when it fails its rule; the response is 422
// with the field error and the snapshot still reflects the change.
// ─────────────────────────────────────────────────────────────────────────────
func (h *Handler) SetField(w http.ResponseWriter, r *http.Request) {
	f, ok := h.form(w, r)
	if !ok {
		return
	}

	field := r.PathValue("field")

	var body struct {
		Value json.RawMessage `json:"value"`
	}
	if err := decode(r, &body); err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return
	}
	if len(body.Value) == 0 {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("value is required")))
		return
	}

	value, err := h.validator.Decode(field, body.Value)
	if err != nil {
		writeFormError(w, err)
		return
	}

	if err := f.SetField(field, value); err != nil {
		writeFormError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, f.Snapshot())
}

// SelectRoom handles PUT /api/registrations/{id}/room with { "roomId": "B-202" }.
func (h *Handler) SelectRoom(w http.ResponseWriter, r *http.Request) {
	f, ok := h.form(w, r)
	if !ok {
		return
	}

	var body struct {
		RoomID string `json:"roomId"`
	}
	if err := decode(r, &body); err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return
	}

	if _, err := f.SelectRoom(body.RoomID); err != nil {
		writeFormError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, f.Snapshot())
}

// ToggleMeal handles PUT /api/registrations/{id}/meals/{meal} with { "checked": true }.
func (h *Handler) ToggleMeal(w http.ResponseWriter, r *http.Request) {
	f, ok := h.form(w, r)
	if !ok {
		return
	}

	var body struct {
		Checked *bool `json:"checked"`
	}
	if err := decode(r, &body); err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return
	}
	if body.Checked == nil {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("checked is required")))
		return
	}

	if _, err := f.ToggleMeal(r.PathValue("meal"), *body.Checked); err != nil {
		writeFormError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, f.Snapshot())
}

// ─────────────────────────────────────────────────────────────────────────────
// AddAttachments handles POST /api/registrations/{id}/attachments
//
// multipart/form-data with one or more "files" parts. The batch is all or
// nothing: if it would take the form past 5 documents, 422 and nothing
// is added.
// ─────────────────────────────────────────────────────────────────────────────
func (h *Handler) AddAttachments(w http.ResponseWriter, r *http.Request) {
	f, ok := h.form(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(fmt.Errorf("invalid multipart form data: %w", err)))
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("no files in upload")))
		return
	}

	files := make([]registration.File, 0, len(headers))
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		files = append(files, registration.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	if _, err := f.AddAttachments(files); err != nil {
		writeFormError(w, err)
		return
	}

	slog.Info("attachments added",
		slog.String("session", r.PathValue("id")),
		slog.Int("count", len(files)))

	response.WriteJSON(w, http.StatusOK, f.Snapshot())
}

// RemoveAttachment handles DELETE /api/registrations/{id}/attachments/{index}.
// An index past the end leaves the list unchanged.
func (h *Handler) RemoveAttachment(w http.ResponseWriter, r *http.Request) {
	f, ok := h.form(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("invalid index: must be an integer")))
		return
	}

	if _, err := f.RemoveAttachment(index); err != nil {
		writeFormError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, f.Snapshot())
}

// ─────────────────────────────────────────────────────────────────────────────
// Submit handles POST /api/registrations/{id}/submit
//
// Blocks while the registration is stored. A second submit of the same
// session while the first is running gets 409. On success the session is
// discarded and the response names where to go next:
//
//	{ "tenantId": 7, "redirect": "/tenants", "submittedAt": "..." }
//
// ─────────────────────────────────────────────────────────────────────────────
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f, ok := h.form(w, r)
	if !ok {
		return
	}

	slog.Info("submitting registration", slog.String("session", id))

	res, err := f.Submit(r.Context())
	if err != nil {
		writeFormError(w, err)
		return
	}

	if err := h.sessions.Discard(id); err != nil && !errors.Is(err, registration.ErrSessionNotFound) {
		slog.Warn("discarding submitted session failed",
			slog.String("session", id), slog.String("error", err.Error()))
	}

	slog.Info("registration submitted",
		slog.String("session", id), slog.Int64("tenant", res.TenantID))
	response.WriteJSON(w, http.StatusCreated, res)
}

// Discard handles DELETE /api/registrations/{id}: the form is abandoned
// and its previews released.
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.sessions.Discard(id); err != nil {
		if errors.Is(err, registration.ErrSessionNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
			return
		}
		writeFormError(w, err)
		return
	}

	slog.Info("registration session discarded", slog.String("session", id))
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "discarded"})
}

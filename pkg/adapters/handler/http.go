package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	apperrors "github.com/wadjakorntonsri/linkvault/pkg/errors"
	"github.com/wadjakorntonsri/linkvault/pkg/logger"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

type HTTPHandler struct {
	service ports.LinkService
}

func NewHTTPHandler(service ports.LinkService) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Links serves the single CRUD endpoint, dispatching on the action query
// parameter. A missing action lists links.
func (h *HTTPHandler) Links(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	if action == "" {
		action = "get"
	}

	switch {
	case action == "get":
		h.List(w, r)
	case action == "delete":
		h.Delete(w, r)
	case action == "increment_click":
		h.IncrementClick(w, r)
	case r.Method == http.MethodPost:
		h.Save(w, r)
	default:
		writeError(w, apperrors.ErrInvalidAction)
	}
}

// List Links
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListLinks(r.Context())
	if err != nil {
		logger.Error().Err(err).Msg("listing links")
		writeError(w, apperrors.Internal("Failed to load links"))
		return
	}

	out := make([]domain.APILink, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToAPILink())
	}
	writeJSON(w, http.StatusOK, out)
}

// Save inserts a link, or replaces the whole row when the form has an id.
func (h *HTTPHandler) Save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, apperrors.BadRequest("Invalid form body"))
		return
	}

	var id int64
	if raw := strings.TrimSpace(r.PostForm.Get("id")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			writeError(w, apperrors.ErrInvalidID)
			return
		}
		id = parsed
	}

	clicks, _ := strconv.ParseInt(strings.TrimSpace(r.PostForm.Get("clicks")), 10, 64)
	data := domain.APILinkData{
		Link:        r.PostForm.Get("link"),
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		Folder:      r.PostForm.Get("folder"),
		Tags:        r.PostForm.Get("tags"),
		Img:         r.PostForm.Get("img"),
		IsFav:       r.PostForm.Get("isfav") == "1",
		Clicks:      clicks,
	}

	savedID, err := h.service.SaveLink(r.Context(), id, data)
	if errors.Is(err, domain.ErrLinkNotFound) {
		writeError(w, apperrors.ErrNotFound)
		return
	}
	if err != nil {
		logger.Error().Err(err).Int64("id", id).Msg("saving link")
		if id > 0 {
			writeError(w, apperrors.Internal("Update failed"))
		} else {
			writeError(w, apperrors.Internal("Insert failed"))
		}
		return
	}

	msg := "Inserted"
	if id > 0 {
		msg = "Updated"
	}
	writeJSON(w, http.StatusOK, domain.APIResponse{Status: domain.StatusSuccess, Message: msg, ID: &savedID})
}

// Delete Link
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(r)
	if !ok {
		writeError(w, apperrors.ErrInvalidID)
		return
	}

	if err := h.service.DeleteLink(r.Context(), id); err != nil {
		logger.Error().Err(err).Int64("id", id).Msg("deleting link")
		writeError(w, apperrors.Internal("Delete failed"))
		return
	}
	writeJSON(w, http.StatusOK, domain.APIResponse{Status: domain.StatusSuccess, Message: "Deleted"})
}

// IncrementClick records a click-through and returns the new count.
func (h *HTTPHandler) IncrementClick(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(r)
	if !ok {
		writeError(w, apperrors.ErrInvalidID)
		return
	}

	count, err := h.service.IncrementClick(r.Context(), id, r.Header.Get("Referer"), r.UserAgent())
	if errors.Is(err, domain.ErrLinkNotFound) {
		writeError(w, apperrors.ErrNotFound)
		return
	}
	if err != nil {
		logger.Error().Err(err).Int64("id", id).Msg("incrementing click count")
		writeError(w, apperrors.Internal("Failed to increment click count"))
		return
	}
	writeJSON(w, http.StatusOK, domain.APIResponse{
		Status:   domain.StatusSuccess,
		Message:  "Click count incremented",
		NewCount: &count,
	})
}

func queryID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn().Err(err).Msg("writing response")
	}
}

// writeError renders err in the endpoint's {status, message} shape.
func writeError(w http.ResponseWriter, err *apperrors.AppError) {
	writeJSON(w, err.Code, domain.APIResponse{Status: domain.StatusError, Message: err.Message})
}

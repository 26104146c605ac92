package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/inkpath/engine/internal/api/middleware"
	"github.com/inkpath/engine/internal/api/types"
	"github.com/inkpath/engine/internal/services"
)

// ModerationHandler exposes the moderation queue and the approve/reject
// transitions. Role enforcement lives in the service; these handlers only
// shuttle ids.
type ModerationHandler struct {
	review   services.ReviewService
	validate *validator.Validate
}

func NewModerationHandler(review services.ReviewService, v *validator.Validate) *ModerationHandler {
	return &ModerationHandler{review: review, validate: v}
}

// Submit moves the caller's latest revision into the moderation queue.
// Validation failures come back as a 400 carrying the full error list.
func (h *ModerationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	comicID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid comic id")
		return
	}
	userID, err := uuid.Parse(middleware.GetUserID(r.Context()))
	if err != nil {
		writeErrorStr(w, http.StatusUnauthorized, "invalid user id")
		return
	}
	rev, err := h.review.Submit(r.Context(), comicID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: rev})
}

func (h *ModerationHandler) Pending(w http.ResponseWriter, r *http.Request) {
	items, err := h.review.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items})
}

func (h *ModerationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	revisionID, moderatorID, ok := h.ids(w, r)
	if !ok {
		return
	}
	rev, err := h.review.Approve(r.Context(), revisionID, moderatorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: rev})
}

func (h *ModerationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	revisionID, moderatorID, ok := h.ids(w, r)
	if !ok {
		return
	}
	var req types.RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "rejection reason is required")
		return
	}
	rev, err := h.review.Reject(r.Context(), revisionID, moderatorID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: rev})
}

func (h *ModerationHandler) ids(w http.ResponseWriter, r *http.Request) (revisionID, moderatorID uuid.UUID, ok bool) {
	revisionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid revision id")
		return uuid.Nil, uuid.Nil, false
	}
	moderatorID, err = uuid.Parse(middleware.GetUserID(r.Context()))
	if err != nil {
		writeErrorStr(w, http.StatusUnauthorized, "invalid user id")
		return uuid.Nil, uuid.Nil, false
	}
	return revisionID, moderatorID, true
}

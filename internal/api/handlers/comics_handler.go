package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/inkpath/engine/internal/api/middleware"
	"github.com/inkpath/engine/internal/api/types"
	"github.com/inkpath/engine/internal/services"
)

// ComicsHandler exposes the creator-facing surface: comic CRUD, draft
// saves and loads, live validation feedback, and revision history.
type ComicsHandler struct {
	comics   services.ComicService
	validate *validator.Validate
}

func NewComicsHandler(comics services.ComicService, v *validator.Validate) *ComicsHandler {
	return &ComicsHandler{comics: comics, validate: v}
}

func (h *ComicsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.ComicCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, _ := uuid.Parse(middleware.GetUserID(r.Context()))
	c, err := h.comics.CreateComic(r.Context(), userID, &services.CreateComicInput{
		Title:       req.Title,
		Description: req.Description,
		Genres:      req.Genres,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: c})
}

func (h *ComicsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := uuid.Parse(middleware.GetUserID(r.Context()))
	items, err := h.comics.ListComics(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items})
}

func (h *ComicsHandler) Get(w http.ResponseWriter, r *http.Request) {
	comicID, userID, ok := h.ids(w, r)
	if !ok {
		return
	}
	c, err := h.comics.GetComic(r.Context(), comicID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: c})
}

func (h *ComicsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	comicID, userID, ok := h.ids(w, r)
	if !ok {
		return
	}
	if err := h.comics.DeleteComic(r.Context(), comicID, userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true})
}

// SaveDraft takes the graph payload as the request body. Anything the
// normalizer cannot make sense of collapses to the default graph rather
// than failing, so this endpoint only errors on ownership or storage.
func (h *ComicsHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	comicID, userID, ok := h.ids(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "read body failed")
		return
	}
	rev, err := h.comics.SaveDraft(r.Context(), comicID, userID, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: rev})
}

func (h *ComicsHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	comicID, userID, ok := h.ids(w, r)
	if !ok {
		return
	}
	rev, err := h.comics.GetDraft(r.Context(), comicID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: rev})
}

// ValidateDraft returns the lenient editor-feedback validation result.
func (h *ComicsHandler) ValidateDraft(w http.ResponseWriter, r *http.Request) {
	comicID, userID, ok := h.ids(w, r)
	if !ok {
		return
	}
	res, err := h.comics.CheckDraft(r.Context(), comicID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: res})
}

func (h *ComicsHandler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	comicID, userID, ok := h.ids(w, r)
	if !ok {
		return
	}
	items, err := h.comics.ListRevisions(r.Context(), comicID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items})
}

func (h *ComicsHandler) ids(w http.ResponseWriter, r *http.Request) (comicID, userID uuid.UUID, ok bool) {
	comicID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid comic id")
		return uuid.Nil, uuid.Nil, false
	}
	userID, err = uuid.Parse(middleware.GetUserID(r.Context()))
	if err != nil {
		writeErrorStr(w, http.StatusUnauthorized, "invalid user id")
		return uuid.Nil, uuid.Nil, false
	}
	return comicID, userID, true
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkpath/engine/internal/api/types"
	"github.com/inkpath/engine/internal/models"
	"github.com/inkpath/engine/internal/repository"
)

// PagesHandler serves the published, read-only reader records.
type PagesHandler struct {
	pages  repository.PageRepository
	comics repository.ComicRepository
}

func NewPagesHandler(pages repository.PageRepository, comics repository.ComicRepository) *PagesHandler {
	return &PagesHandler{pages: pages, comics: comics}
}

func (h *PagesHandler) List(w http.ResponseWriter, r *http.Request) {
	comicID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid comic id")
		return
	}
	var c models.Comic
	if err := h.comics.GetByID(r.Context(), comicID, &c); err != nil {
		writeError(w, err)
		return
	}
	if c.Status != models.ComicPublished {
		writeErrorStr(w, http.StatusNotFound, "comic is not published")
		return
	}
	items, err := h.pages.ListByComic(r.Context(), comicID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}})
}

func (h *PagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	comicID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid comic id")
		return
	}
	pageID := chi.URLParam(r, "pageID")
	var p models.Page
	if err := h.pages.GetByPageID(r.Context(), comicID, pageID, &p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: p})
}

// ListPublished lists published comics for browsing readers.
func (h *PagesHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	items, err := h.comics.ListPublished(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items})
}

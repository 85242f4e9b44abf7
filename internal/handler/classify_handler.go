package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-file-organizer/internal/model"
	"go-file-organizer/internal/service"
)

type ClassifyHandler struct {
	service *service.OrganizeService
}

func NewClassifyHandler(service *service.OrganizeService) *ClassifyHandler {
	return &ClassifyHandler{service: service}
}

func (h *ClassifyHandler) Classify(w http.ResponseWriter, r *http.Request) {
	path, err := requiredQuery(r, "path")
	if err != nil {
		writeError(w, err)
		return
	}

	classification, err := h.service.Classify(r.Context(), path)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.ClassifyResult{
		Path:        path,
		Category:    classification.String(),
		Subcategory: classification.Subcategory,
	}, nil)
}

func (h *ClassifyHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	path, err := requiredQuery(r, "path")
	if err != nil {
		writeError(w, err)
		return
	}

	analysis, err := h.service.Analyze(r.Context(), path)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, analysis, nil)
}

func (h *ClassifyHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	dir, err := requiredQuery(r, "path")
	if err != nil {
		writeError(w, err)
		return
	}

	listing, err := h.service.ListByCategory(r.Context(), dir, chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, listing, nil)
}

package handler

import (
	"net/http"

	"go-file-organizer/internal/model"
	"go-file-organizer/internal/service"
	"go-file-organizer/pkg/apierror"
)

const maxOrganizeBatch = 1000

type OrganizeHandler struct {
	service *service.OrganizeService
}

func NewOrganizeHandler(service *service.OrganizeService) *OrganizeHandler {
	return &OrganizeHandler{service: service}
}

// Organize answers 200 even when some files failed; per-file failures are in
// data.errors.
func (h *OrganizeHandler) Organize(w http.ResponseWriter, r *http.Request) {
	var payload model.OrganizeRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if len(payload.Files) == 0 {
		writeError(w, apierror.New("BAD_REQUEST", "files must not be empty", "files", http.StatusBadRequest))
		return
	}
	if len(payload.Files) > maxOrganizeBatch {
		writeError(w, apierror.New("BAD_REQUEST", "too many files in one request", "files", http.StatusBadRequest))
		return
	}

	result := h.service.Organize(r.Context(), payload.Files, payload.Destination, actorFromRequest(r))
	writeSuccess(w, http.StatusOK, result, nil)
}

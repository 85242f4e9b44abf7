package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-file-organizer/internal/model"
	"go-file-organizer/internal/service"
	"go-file-organizer/pkg/apierror"
)

type BackupHandler struct {
	flatten *service.FlattenService
	undo    *service.UndoService
}

func NewBackupHandler(flatten *service.FlattenService, undo *service.UndoService) *BackupHandler {
	return &BackupHandler{flatten: flatten, undo: undo}
}

func (h *BackupHandler) Flatten(w http.ResponseWriter, r *http.Request) {
	var payload model.FlattenRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if strings.TrimSpace(payload.Directory) == "" {
		writeError(w, apierror.New("BAD_REQUEST", "directory is required", "directory", http.StatusBadRequest))
		return
	}

	result, err := h.flatten.Flatten(r.Context(), payload.Directory, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *BackupHandler) Undo(w http.ResponseWriter, r *http.Request) {
	operationID := strings.TrimSpace(chi.URLParam(r, "operation_id"))
	if operationID == "" {
		writeError(w, apierror.New("BAD_REQUEST", "operation_id is required", "operation_id", http.StatusBadRequest))
		return
	}

	result, err := h.undo.Undo(r.Context(), operationID, actorFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *BackupHandler) ListOperations(w http.ResponseWriter, _ *http.Request) {
	history := h.undo.History()
	writeSuccess(w, http.StatusOK, history, &model.Meta{
		Page:       1,
		Limit:      len(history),
		Total:      len(history),
		TotalPages: 1,
	})
}

func (h *BackupHandler) GetOperation(w http.ResponseWriter, r *http.Request) {
	record, err := h.undo.Record(chi.URLParam(r, "operation_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, record, nil)
}

package handler

import (
	"net/http"

	"go-file-organizer/internal/model"
	"go-file-organizer/internal/service"
)

type WatchHandler struct {
	service *service.WatchService
}

func NewWatchHandler(service *service.WatchService) *WatchHandler {
	return &WatchHandler{service: service}
}

func (h *WatchHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var payload model.WatchRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	status, err := h.service.Setup(r.Context(), payload.WatchDirectory, payload.OrganizationDirectory)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, status, nil)
}

func (h *WatchHandler) Stop(w http.ResponseWriter, _ *http.Request) {
	status, err := h.service.Stop()
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, status, nil)
}

func (h *WatchHandler) Status(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, h.service.Status(), nil)
}

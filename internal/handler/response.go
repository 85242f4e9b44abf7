package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"go-file-organizer/internal/model"
	"go-file-organizer/pkg/apierror"
)

const maxJSONBody = 1 << 20

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// errorMappings is checked in order; the first errors.Is match wins.
var errorMappings = []errorMapping{
	{model.ErrOperationNotFound, http.StatusNotFound, "NOT_FOUND", "Operation not found"},
	{model.ErrSourceNotFound, http.StatusNotFound, "NOT_FOUND", "Path not found"},
	{model.ErrInvalidOperationID, http.StatusBadRequest, "BAD_REQUEST", "Invalid operation id"},
	{model.ErrNotDirectory, http.StatusBadRequest, "BAD_REQUEST", "Path is not a directory"},
	{model.ErrNotFile, http.StatusBadRequest, "BAD_REQUEST", "Path is not a file"},
	{model.ErrInvalidInput, http.StatusBadRequest, "BAD_REQUEST", "Invalid input"},
	{model.ErrPathNotAllowed, http.StatusForbidden, "PATH_NOT_ALLOWED", "Path is outside the allowed roots"},
	{model.ErrPathConflict, http.StatusConflict, "CONFLICT", "Path conflict"},
	{model.ErrWatchNotRunning, http.StatusConflict, "WATCH_NOT_RUNNING", "No directory is being watched"},
	{model.ErrTokenExpired, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token"},
	{model.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"},
	{os.ErrPermission, http.StatusForbidden, "PERMISSION_DENIED", "Permission denied on the filesystem"},
	{os.ErrNotExist, http.StatusNotFound, "NOT_FOUND", "Path not found"},
	{os.ErrExist, http.StatusConflict, "ALREADY_EXISTS", "Path already exists"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "REQUEST_TIMEOUT", "Request timed out"},
}

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	writeJSON(w, status, model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status, body := errorBody(err)
	writeJSON(w, status, model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func errorBody(err error) (int, *model.APIError) {
	if apiErr, ok := apierror.As(err); ok {
		return apiErr.HTTPStatus, &model.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}
	}

	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.target) {
			body := &model.APIError{Code: mapping.code, Message: mapping.message}
			if mapping.status == http.StatusForbidden || mapping.status == http.StatusNotFound {
				body.Details = err.Error()
			}
			return mapping.status, body
		}
	}

	slog.Error("unhandled error in writeError", "error", err)
	return http.StatusInternalServerError, &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}
}

func writeJSON(w http.ResponseWriter, status int, payload model.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return apierror.New("BAD_REQUEST", "invalid JSON body", err.Error(), http.StatusBadRequest)
	}
	return nil
}

func requiredQuery(r *http.Request, key string) (string, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return "", apierror.New("BAD_REQUEST", key+" query parameter is required", key, http.StatusBadRequest)
	}
	return value, nil
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

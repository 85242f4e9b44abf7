package handler

import (
	"net/http"

	"go-file-organizer/internal/middleware"
	"go-file-organizer/internal/service"
	"go-file-organizer/pkg/apierror"
)

// AuthHandler exposes the caller's token. New tokens are minted by the CLI,
// which holds the shared secret; over HTTP a valid token can only be renewed.
type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	writeSuccess(w, http.StatusOK, claims, nil)
}

func (h *AuthHandler) Renew(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	token, err := h.service.IssueToken(claims.Subject)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, token, nil)
}

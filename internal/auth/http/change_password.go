package http

import (
	"net/http"

	"github.com/brightclass/brightclass/internal/auth/service"
	"github.com/brightclass/brightclass/pkg/httpx"
)

// ChangePasswordHandler serves POST /v1/auth/change-password. The subject
// comes from the access token, never from the body, so a caller can only
// rotate their own password.
type ChangePasswordHandler struct {
	AuthService *service.AuthService
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *ChangePasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		httpx.WriteJSON(w, http.StatusUnauthorized, errorResponse{Error: service.MsgInvalidAccessToken})
		return
	}
	verified := h.AuthService.VerifyToken(r.Context(), token)
	if verified.IsFailure() {
		writeFailure(w, verified.Failure())
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	res := h.AuthService.ChangePassword(r.Context(), verified.Value().ID, req.CurrentPassword, req.NewPassword)
	if res.IsFailure() {
		writeFailure(w, res.Failure())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

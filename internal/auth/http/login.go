package http

import (
	"net/http"

	"github.com/brightclass/brightclass/internal/auth/service"
	"github.com/brightclass/brightclass/pkg/httpx"
)

// LoginHandler serves POST /v1/auth/login.
type LoginHandler struct {
	AuthService *service.AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	res := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if res.IsFailure() {
		writeFailure(w, res.Failure())
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(res.Value()))
}

package http

import (
	"net/http"

	"github.com/brightclass/brightclass/internal/auth/service"
	"github.com/brightclass/brightclass/pkg/httpx"
)

// VerifyHandler serves GET /v1/auth/me. It doubles as the token
// verification endpoint: a 200 means the access token is live and the
// account is still active.
type VerifyHandler struct {
	AuthService *service.AuthService
}

func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		httpx.WriteJSON(w, http.StatusUnauthorized, errorResponse{Error: service.MsgInvalidAccessToken})
		return
	}

	res := h.AuthService.VerifyToken(r.Context(), token)
	if res.IsFailure() {
		writeFailure(w, res.Failure())
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(res.Value()))
}

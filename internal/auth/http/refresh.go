package http

import (
	"net/http"

	"github.com/brightclass/brightclass/internal/auth/service"
	"github.com/brightclass/brightclass/pkg/httpx"
)

// RefreshHandler serves POST /v1/auth/refresh.
type RefreshHandler struct {
	AuthService *service.AuthService
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	res := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if res.IsFailure() {
		writeFailure(w, res.Failure())
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(res.Value()))
}

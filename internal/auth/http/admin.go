package http

import (
	"net/http"

	"github.com/brightclass/brightclass/internal/auth/domain"
	"github.com/brightclass/brightclass/internal/auth/service"
	"github.com/brightclass/brightclass/pkg/httpx"
)

// requireAdmin authenticates the caller and checks the named permission.
// Returns the acting user and false when the response has already been
// written.
func requireAdmin(w http.ResponseWriter, r *http.Request, svc *service.AuthService, perm string) (domain.User, bool) {
	token := bearerToken(r)
	if token == "" {
		httpx.WriteJSON(w, http.StatusUnauthorized, errorResponse{Error: service.MsgInvalidAccessToken})
		return domain.User{}, false
	}
	res := svc.VerifyToken(r.Context(), token)
	if res.IsFailure() {
		writeFailure(w, res.Failure())
		return domain.User{}, false
	}
	actor := res.Value()
	if !actor.Role.HasPermission(perm) {
		httpx.WriteJSON(w, http.StatusForbidden, errorResponse{Error: "Insufficient permissions"})
		return domain.User{}, false
	}
	return actor, true
}

// UnlockHandler serves POST /v1/admin/users/{id}/unlock.
type UnlockHandler struct {
	AuthService *service.AuthService
}

func (h *UnlockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAdmin(w, r, h.AuthService, "users:unlock")
	if !ok {
		return
	}

	res := h.AuthService.UnlockAccount(r.Context(), r.PathValue("id"), actor.ID)
	if res.IsFailure() {
		writeFailure(w, res.Failure())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetActiveHandler serves POST /v1/admin/users/{id}/active.
type SetActiveHandler struct {
	AuthService *service.AuthService
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *SetActiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAdmin(w, r, h.AuthService, "users:manage")
	if !ok {
		return
	}

	var req setActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	res := h.AuthService.SetAccountActive(r.Context(), r.PathValue("id"), req.Active, actor.ID)
	if res.IsFailure() {
		writeFailure(w, res.Failure())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

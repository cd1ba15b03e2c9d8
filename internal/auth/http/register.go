package http

import (
	"net/http"

	"github.com/brightclass/brightclass/internal/auth/service"
	"github.com/brightclass/brightclass/pkg/httpx"
)

// RegisterHandler serves POST /v1/auth/register.
type RegisterHandler struct {
	AuthService *service.AuthService
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	SchoolID  string `json:"schoolId"`
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	res := h.AuthService.Register(r.Context(), service.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
		SchoolID:  req.SchoolID,
	})
	if res.IsFailure() {
		writeFailure(w, res.Failure())
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(res.Value()))
}

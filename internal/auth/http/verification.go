package http

import (
	"net/http"

	"github.com/brightclass/brightclass/internal/auth/service"
	"github.com/brightclass/brightclass/pkg/httpx"
	"github.com/brightclass/brightclass/pkg/slogx"
)

// VerificationRequestHandler serves POST /v1/auth/verification/request.
// The generated code is handed to the mail pipeline, not the caller; the
// endpoint answers 202 whether or not the email maps to an account.
type VerificationRequestHandler struct {
	AuthService *service.AuthService
}

type verificationRequest struct {
	Email string `json:"email"`
}

func (h *VerificationRequestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req verificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	res := h.AuthService.RequestEmailVerification(r.Context(), req.Email)
	if res.IsFailure() {
		writeFailure(w, res.Failure())
		return
	}

	if code := res.Value(); code != "" {
		// TODO: hand the code to the notification service once its queue
		// contract lands. Until then operators read it from the debug log.
		slogx.FromContext(r.Context()).Debug("verification code issued", "email", req.Email, "code", code)
	}

	w.WriteHeader(http.StatusAccepted)
}

// VerificationConfirmHandler serves POST /v1/auth/verification/confirm.
type VerificationConfirmHandler struct {
	AuthService *service.AuthService
}

type verificationConfirm struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *VerificationConfirmHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req verificationConfirm
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	res := h.AuthService.ConfirmEmailVerification(r.Context(), req.Email, req.Code)
	if res.IsFailure() {
		writeFailure(w, res.Failure())
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

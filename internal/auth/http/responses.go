package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/brightclass/brightclass/internal/auth/domain"
	"github.com/brightclass/brightclass/pkg/httpx"
	"github.com/brightclass/brightclass/pkg/result"
)

// errorResponse is the single error shape for every endpoint.
type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// userResponse is the caller-facing projection of a user. The password
// hash, verification secret and audit trail never leave the service.
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	SchoolID  string    `json:"schoolId,omitempty"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	ExpiresIn    int64        `json:"expiresIn"`
	User         userResponse `json:"user"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Role:      string(u.Role),
		SchoolID:  u.SchoolID,
		State:     string(u.State()),
		CreatedAt: u.CreatedAt,
	}
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresIn:    int64(s.ExpiresIn.Seconds()),
		User:         toUserResponse(s.User),
	}
}

// writeFailure maps a failure kind onto an HTTP status. Infrastructure
// failures answer 503 so load balancers retry elsewhere instead of caching
// a 500.
func writeFailure(w http.ResponseWriter, f result.Failure) {
	status := http.StatusInternalServerError
	switch f.Kind {
	case result.KindValidation:
		status = http.StatusBadRequest
	case result.KindAuthentication:
		status = http.StatusUnauthorized
	case result.KindConflict:
		status = http.StatusConflict
	case result.KindInfrastructure:
		status = http.StatusServiceUnavailable
	}
	httpx.WriteJSON(w, status, errorResponse{Error: f.Message, Details: f.Details})
}

// decodeJSON reads a request body into dst, rejecting unknown fields and
// trailing garbage.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingBody
	}
	return nil
}

var errTrailingBody = errors.New("request body must contain a single JSON object")

func writeBadRequest(w http.ResponseWriter, msg string) {
	httpx.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

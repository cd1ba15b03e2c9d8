package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brightclass/brightclass/internal/auth/service"
	"github.com/brightclass/brightclass/internal/auth/store/drivers/sqlite"
	"github.com/brightclass/brightclass/pkg/jwtx"
)

const testPassword = "Sup3rSecret"

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	codec, err := jwtx.NewCodec(
		[]byte("router-access-secret"),
		[]byte("router-refresh-secret"),
		"brightclass-test",
	)
	require.NoError(t, err)

	auth := service.NewAuthService(st, codec, "brightclass-test")
	health := service.NewHealthService(st, codec)

	r := NewRouter(auth, health, "test", slog.New(slog.DiscardHandler))
	r.ApplyRoutes()
	return r
}

func doJSON(t *testing.T, r *Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// registerAndVerify drives the public endpoints end to end, pulling the
// verification code straight from the service since no mail pipeline runs
// in tests.
func registerAndVerify(t *testing.T, r *Router, email, role string) {
	t.Helper()

	rec := doJSON(t, r, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email":     email,
		"password":  testPassword,
		"firstName": "Jo",
		"lastName":  "Walker",
		"role":      role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	code := r.AuthService.RequestEmailVerification(t.Context(), email)
	require.True(t, code.IsOK())

	rec = doJSON(t, r, http.MethodPost, "/v1/auth/verification/confirm", "", map[string]string{
		"email": email,
		"code":  code.Value(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func login(t *testing.T, r *Router, email string) sessionResponse {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[sessionResponse](t, rec)
}

func TestFullSessionLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	registerAndVerify(t, r, "jo@example.edu", "TEACHER")
	sess := login(t, r, "jo@example.edu")
	require.NotEmpty(t, sess.AccessToken)
	require.Equal(t, "Bearer", sess.TokenType)
	require.Equal(t, "jo@example.edu", sess.User.Email)

	// The session response never leaks credential material.
	raw := doJSON(t, r, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "jo@example.edu",
		"password": testPassword,
	})
	require.NotContains(t, raw.Body.String(), "passwordHash")
	require.NotContains(t, raw.Body.String(), testPassword)

	me := doJSON(t, r, http.MethodGet, "/v1/auth/me", sess.AccessToken, nil)
	require.Equal(t, http.StatusOK, me.Code)
	require.Equal(t, "ACTIVE_UNLOCKED", decodeBody[userResponse](t, me).State)

	refreshed := doJSON(t, r, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refreshToken": sess.RefreshToken,
	})
	require.Equal(t, http.StatusOK, refreshed.Code)
	next := decodeBody[sessionResponse](t, refreshed)
	require.NotEqual(t, sess.RefreshToken, next.RefreshToken)

	replay := doJSON(t, r, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refreshToken": sess.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, replay.Code)
}

func TestFailureKindStatusMapping(t *testing.T) {
	r := newTestRouter(t)
	registerAndVerify(t, r, "mapped@example.edu", "STUDENT")

	t.Run("validation maps to 400", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/auth/register", "", map[string]string{
			"email": "nope",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody[errorResponse](t, rec)
		require.NotEmpty(t, body.Details["password"])
	})

	t.Run("authentication maps to 401", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/auth/login", "", map[string]string{
			"email":    "mapped@example.edu",
			"password": "WrongPass1",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, service.MsgAuthenticationFailed, decodeBody[errorResponse](t, rec).Error)
	})

	t.Run("conflict maps to 409", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/v1/auth/register", "", map[string]string{
			"email":     "mapped@example.edu",
			"password":  testPassword,
			"firstName": "Jo",
			"lastName":  "Walker",
			"role":      "STUDENT",
		})
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestChangePasswordRequiresToken(t *testing.T) {
	r := newTestRouter(t)
	registerAndVerify(t, r, "pw@example.edu", "TEACHER")
	sess := login(t, r, "pw@example.edu")

	rec := doJSON(t, r, http.MethodPost, "/v1/auth/change-password", "", map[string]string{
		"currentPassword": testPassword,
		"newPassword":     "NewSecret99",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/v1/auth/change-password", sess.AccessToken, map[string]string{
		"currentPassword": testPassword,
		"newPassword":     "NewSecret99",
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func TestAdminEndpointsEnforcePermissions(t *testing.T) {
	r := newTestRouter(t)

	registerAndVerify(t, r, "student@example.edu", "STUDENT")
	registerAndVerify(t, r, "admin@example.edu", "ADMIN")

	student := login(t, r, "student@example.edu")
	admin := login(t, r, "admin@example.edu")

	target := fmt.Sprintf("/v1/admin/users/%s/unlock", student.User.ID)

	rec := doJSON(t, r, http.MethodPost, target, student.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, r, http.MethodPost, target, admin.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Disabling an account takes effect on the next token verification.
	rec = doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/v1/admin/users/%s/active", student.User.ID),
		admin.AccessToken, map[string]bool{"active": false})
	require.Equal(t, http.StatusNoContent, rec.Code)

	me := doJSON(t, r, http.MethodGet, "/v1/auth/me", student.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, me.Code)
	require.Equal(t, service.MsgAccountDisabled, decodeBody[errorResponse](t, me).Error)
}

func TestProbes(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[service.HealthReport](t, rec)
	require.Equal(t, service.HealthHealthy, report.Status)
}

package http

import (
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gear6io/parity/server/auth"
	"github.com/gear6io/parity/server/records"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer("127.0.0.1:0", auth.DefaultTokenSet(), records.NewFixtureRepository(), zerolog.Nop())
	require.NoError(t, err)
	return s
}

func doGet(t *testing.T, s *Server, path, authorization string) (*nethttp.Response, string) {
	t.Helper()
	req := httptest.NewRequest(nethttp.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func bearer(role string) string {
	token, _ := auth.DefaultTokenSet().Token(role)
	return "Bearer " + token
}

func TestPatientRecordsSuccess(t *testing.T) {
	s := newTestServer(t)

	resp, body := doGet(t, s, "/patients/P12345/records", bearer(auth.RoleDoctor))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	assert.Equal(t, "P12345", gjson.Get(body, "patient.id").String())
	assert.Equal(t, "John Doe", gjson.Get(body, "patient.name").String())
	assert.Equal(t, "1980-01-01", gjson.Get(body, "patient.dateOfBirth").String())
	assert.Equal(t, int64(1), gjson.Get(body, "records.#").Int())
	assert.Equal(t, "R1", gjson.Get(body, "records.0.id").String())
	assert.Equal(t, "2024-01-15", gjson.Get(body, "records.0.date").String())
	assert.Equal(t, "Blood Test", gjson.Get(body, "records.0.type").String())
	assert.Equal(t, "Normal", gjson.Get(body, "records.0.result").String())
}

func TestEveryRoleHasAccess(t *testing.T) {
	s := newTestServer(t)

	for _, role := range []string{auth.RoleDoctor, auth.RoleNurse, auth.RoleAdmin} {
		resp, _ := doGet(t, s, "/patients/P12345/records", bearer(role))
		assert.Equal(t, nethttp.StatusOK, resp.StatusCode, "role %s", role)
	}
}

func TestAuthenticationFailures(t *testing.T) {
	tests := []struct {
		name          string
		authorization string
		status        int
		detail        string
	}{
		{"no header", "", nethttp.StatusForbidden, "Not authenticated"},
		{"malformed", "InvalidTokenFormat", nethttp.StatusForbidden, "Not authenticated"},
		{"other scheme", "Basic dXNlcjpwYXNz", nethttp.StatusForbidden, "Not authenticated"},
		{"unknown token", "Bearer invalid_token_123", nethttp.StatusUnauthorized, "Invalid authentication token"},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doGet(t, s, "/patients/P12345/records", tt.authorization)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.detail, gjson.Get(body, "detail").String())
			if tt.status == nethttp.StatusUnauthorized {
				assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
			} else {
				assert.Empty(t, resp.Header.Get("WWW-Authenticate"))
			}
		})
	}
}

func TestAuthenticationCheckedBeforeID(t *testing.T) {
	s := newTestServer(t)

	resp, _ := doGet(t, s, "/patients/"+url.PathEscape("a;b")+"/records", "")
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)

	resp, _ = doGet(t, s, "/patients/error/records", "Bearer nope")
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
}

func TestPatientIDFailures(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		status int
		detail string
	}{
		{"sql injection", "P12345'; DROP TABLE patients; --", nethttp.StatusBadRequest, "Invalid patient ID format"},
		{"quote", "P1'", nethttp.StatusBadRequest, "Invalid patient ID format"},
		{"backslash", `P1\x`, nethttp.StatusBadRequest, "Invalid patient ID format"},
		{"encoded slash", "P1/x", nethttp.StatusBadRequest, "Invalid patient ID format"},
		{"backend failure", "error", nethttp.StatusInternalServerError, "Database error"},
		{"unknown patient", "invalid", nethttp.StatusNotFound, "Patient not found"},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/patients/" + url.PathEscape(tt.id) + "/records"
			resp, body := doGet(t, s, path, bearer(auth.RoleDoctor))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.detail, gjson.Get(body, "detail").String())
		})
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp, body := doGet(t, s, "/health", "")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", gjson.Get(body, "status").String())
	assert.Equal(t, "parity-api", gjson.Get(body, "server").String())
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	resp, body := doGet(t, s, "/nope", "")
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.True(t, gjson.Get(body, "detail").Exists())
}

func TestRequestIDPropagated(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(nethttp.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
}

func TestNewServerRequiresDependencies(t *testing.T) {
	_, err := NewServer(":0", nil, records.NewFixtureRepository(), zerolog.Nop())
	assert.Error(t, err)

	_, err = NewServer(":0", auth.DefaultTokenSet(), nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestStartAndShutdown(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, "http", s.GetType())

	client := &nethttp.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + s.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}

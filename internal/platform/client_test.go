// ABOUTME: Tests for the platform auth client against a fake backend
// ABOUTME: Covers login, refresh, me, and the error taxonomy mapping

package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "a@b.com", body["email"])
		require.Equal(t, "x", body["password"])

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "t1",
			"refresh_token": "r1",
			"user": map[string]any{
				"id":    "1",
				"email": "a@b.com",
				"role":  map[string]any{"name": "admin"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)

	assert.Equal(t, "t1", res.Credential.AccessToken)
	assert.Equal(t, "r1", res.Credential.RefreshToken)
	assert.Equal(t, "admin", res.User.RoleName)
	assert.Equal(t, "a@b.com", res.User.Email)
	assert.True(t, res.User.IsActive)
}

func TestClient_Login_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect email or password"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)

	ve := AsValidation(err)
	require.NotNil(t, ve, "expected a ValidationError, got %v", err)
	assert.Equal(t, "Incorrect email or password", ve.Message)
}

func TestClient_Me(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/me", r.URL.Path)
		require.Equal(t, "Bearer t1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"id":        "1",
			"email":     "a@b.com",
			"full_name": "Ada",
			"role_name": "viewer",
			"is_active": true,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	u, err := c.Me(context.Background(), "t1")
	require.NoError(t, err)

	assert.Equal(t, "Ada", u.DisplayName)
	assert.Equal(t, "viewer", u.RoleName)
}

func TestClient_Me_Unauthenticated(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := NewClient(srv.URL, time.Second)
		_, err := c.Me(context.Background(), "expired")
		assert.ErrorIs(t, err, ErrUnauthenticated, "status %d", status)

		srv.Close()
	}
}

func TestClient_Me_Unreachable(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Me(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestClient_Me_ServerErrorIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Me(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrUnreachable, "5xx must not log the user out")
}

func TestClient_Refresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/refresh", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "r1", body["refresh_token"])

		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  "t2",
			"refresh_token": "r2",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	cred, err := c.Refresh(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, "t2", cred.AccessToken)
	assert.Equal(t, "r2", cred.RefreshToken)
}

func TestClient_Refresh_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Refresh(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestClient_Register_AlwaysSendsFullName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		// Falls back to the email when no name is given.
		require.Equal(t, "a@b.com", body["full_name"])

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "t1",
			"refresh_token": "r1",
			"user":          map[string]any{"id": "1", "email": "a@b.com"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.Register(context.Background(), "a@b.com", "x", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultDisplayName, res.User.DisplayName)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond)
	_, err := c.Me(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrUnreachable)
}

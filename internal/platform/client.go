// ABOUTME: HTTP client for the platform backend's auth endpoints
// ABOUTME: Implements login, register, refresh, me, and logout over REST/JSON

package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/docuchat/console-gateway/internal/credstore"
)

// Client talks to the platform REST backend. All methods classify transport
// failures as ErrUnreachable and 401/403 responses as ErrUnauthenticated so
// callers never inspect status codes themselves.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a backend client. The timeout bounds every call so a
// hanging backend surfaces as ErrUnreachable instead of blocking forever.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default().With("component", "platform"),
	}
}

// LoginResult is the outcome of a successful login, register, or refresh.
type LoginResult struct {
	Credential credstore.Credential
	User       User
}

// tokenResponse mirrors the backend's token endpoints.
type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *userPayload `json:"user"`
}

// errorResponse mirrors the backend's error body.
type errorResponse struct {
	Detail string `json:"detail"`
}

// Login exchanges credentials for a token pair and user identity.
// A non-2xx response carries the backend's message verbatim as a
// ValidationError.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	var resp tokenResponse
	if err := c.postJSON(ctx, "/auth/login", "", body, &resp); err != nil {
		return nil, err
	}

	return c.loginResult(&resp, email)
}

// Register creates an account and logs it in. Same response shape as Login.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (*LoginResult, error) {
	if fullName == "" {
		fullName = email
	}
	body := map[string]string{"email": email, "password": password, "full_name": fullName}

	var resp tokenResponse
	if err := c.postJSON(ctx, "/auth/register", "", body, &resp); err != nil {
		return nil, err
	}

	return c.loginResult(&resp, email)
}

// Refresh exchanges a refresh token for a fresh token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (credstore.Credential, error) {
	body := map[string]string{"refresh_token": refreshToken}

	var resp tokenResponse
	if err := c.postJSON(ctx, "/auth/refresh", "", body, &resp); err != nil {
		return credstore.Credential{}, err
	}

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return credstore.Credential{}, fmt.Errorf("refresh response missing token pair")
	}

	return credstore.Credential{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// Me resolves the identity behind an access token.
func (c *Client) Me(ctx context.Context, accessToken string) (User, error) {
	var payload userPayload
	if err := c.getJSON(ctx, "/auth/me", accessToken, &payload); err != nil {
		return User{}, err
	}

	return payload.normalize(), nil
}

// Logout invalidates the token pair server-side. Best effort: local state is
// cleared by the caller regardless of the outcome here.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.postJSON(ctx, "/auth/logout", accessToken, struct{}{}, nil)
}

func (c *Client) loginResult(resp *tokenResponse, email string) (*LoginResult, error) {
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, fmt.Errorf("login response missing token pair")
	}

	var user User
	if resp.User != nil {
		user = resp.User.normalize()
	} else {
		user = User{Email: email, DisplayName: DefaultDisplayName, IsActive: true}
	}
	if user.Email == "" {
		user.Email = email
	}

	return &LoginResult{
		Credential: credstore.Credential{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
		},
		User: user,
	}, nil
}

// getJSON issues an authenticated GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, path, accessToken string, out any) error {
	return c.do(ctx, http.MethodGet, path, accessToken, nil, out)
}

// postJSON issues a POST with a JSON body and decodes the response into out
// (out may be nil for responses without a useful body).
func (c *Client) postJSON(ctx context.Context, path, accessToken string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, accessToken, data, out)
}

// do performs the request and maps the response onto the error taxonomy.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding %s response: %w", path, err)
		}
		return nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthenticated

	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound

	case resp.StatusCode >= 500:
		// Server trouble is transient from the session's point of view; it
		// must never log the user out.
		return fmt.Errorf("%w: backend returned %d", ErrUnreachable, resp.StatusCode)

	default:
		return &ValidationError{Message: c.readDetail(resp.Body, resp.StatusCode)}
	}
}

// readDetail extracts the backend's error message, falling back to the status.
func (c *Client) readDetail(body io.Reader, status int) string {
	var er errorResponse
	if err := json.NewDecoder(body).Decode(&er); err == nil && er.Detail != "" {
		return er.Detail
	}
	return fmt.Sprintf("request failed with status %d", status)
}

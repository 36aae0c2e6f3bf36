// Package authapi is the HTTP client for the external identity service.
//
// Every response uses the service's uniform envelope
// {success, message?, data?, error?}; failures decode into *APIError so
// callers handle the error branch explicitly. Authenticated calls carry a
// bearer access token; a 401 triggers exactly one refresh-and-retry cycle,
// and a failed refresh clears both tokens and ends the session.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-faster/errors"
)

// ErrSessionExpired is returned when the refresh token is rejected. Both
// tokens have been cleared; the user must authenticate again.
var ErrSessionExpired = errors.New("session expired")

// APIError is a failure envelope from the identity service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity api: %d %s", e.Status, e.Message)
}

// User is the identity service's account representation.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ProfileUpdate holds the mutable profile fields.
type ProfileUpdate struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// envelope is the uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// authData is the payload of login, register, and refresh responses.
type authData struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Client talks to the identity service.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore

	// refreshMu serializes token refresh so concurrent 401s produce a
	// single refresh call, not a stampede.
	refreshMu sync.Mutex
}

// NewClient creates a Client for the identity service at baseURL.
func NewClient(baseURL string, tokens TokenStore) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		tokens:  tokens,
	}
}

// Login authenticates with credentials. On success the token pair is stored
// and the account returned. On failure no tokens are stored.
func (c *Client) Login(ctx context.Context, creds Credentials) (*User, error) {
	var data authData
	if err := c.call(ctx, http.MethodPost, "/auth/login", creds, &data, false); err != nil {
		return nil, err
	}
	if err := c.tokens.SetPair(Pair{Access: data.AccessToken, Refresh: data.RefreshToken}); err != nil {
		return nil, errors.Wrap(err, "store tokens")
	}
	return &data.User, nil
}

// Register creates an account and logs it in.
func (c *Client) Register(ctx context.Context, reg Registration) (*User, error) {
	var data authData
	if err := c.call(ctx, http.MethodPost, "/auth/register", reg, &data, false); err != nil {
		return nil, err
	}
	if err := c.tokens.SetPair(Pair{Access: data.AccessToken, Refresh: data.RefreshToken}); err != nil {
		return nil, errors.Wrap(err, "store tokens")
	}
	return &data.User, nil
}

// Logout invalidates the session server-side (best effort) and always
// clears the local token pair.
func (c *Client) Logout(ctx context.Context) error {
	callErr := c.call(ctx, http.MethodPost, "/auth/logout", nil, nil, true)
	if err := c.tokens.Clear(); err != nil {
		return errors.Wrap(err, "clear tokens")
	}
	if callErr != nil && !errors.Is(callErr, ErrSessionExpired) {
		return callErr
	}
	return nil
}

// Verify returns the account for the current access token.
func (c *Client) Verify(ctx context.Context) (*User, error) {
	var data struct {
		User User `json:"user"`
	}
	if err := c.call(ctx, http.MethodGet, "/auth/verify", nil, &data, true); err != nil {
		return nil, err
	}
	return &data.User, nil
}

// UpdateProfile updates the account's mutable fields.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	var data struct {
		User User `json:"user"`
	}
	if err := c.call(ctx, http.MethodPut, "/auth/profile", update, &data, true); err != nil {
		return nil, err
	}
	return &data.User, nil
}

// call performs one API request. Authenticated calls that hit a 401 get
// exactly one refresh-and-retry; a second 401 is returned as-is.
func (c *Client) call(ctx context.Context, method, path string, body, out any, authed bool) error {
	status, err := c.do(ctx, method, path, body, out, authed)
	if err != nil {
		return err
	}
	if status != http.StatusUnauthorized || !authed {
		return nil
	}

	if err := c.refresh(ctx); err != nil {
		return err
	}

	status, err = c.do(ctx, method, path, body, out, authed)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		return &APIError{Status: status, Message: "unauthorized after refresh"}
	}
	return nil
}

// do sends one request and decodes the envelope. A 401 on an authenticated
// call returns (401, nil) so the caller can run the refresh cycle; every
// other failure envelope becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, errors.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		if access := c.tokens.Pair().Access; access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "identity api request")
	}
	defer func() { _ = resp.Body.Close() }()

	if authed && resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, errors.Wrap(err, "decode response")
	}

	if resp.StatusCode >= 400 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, errors.Wrap(err, "decode response data")
		}
	}
	return resp.StatusCode, nil
}

// refresh exchanges the refresh token for a new pair. Serialized so that
// concurrent 401s share one refresh; a caller that waited re-checks whether
// another caller already refreshed. Failure clears both tokens.
func (c *Client) refresh(ctx context.Context) error {
	pair := c.tokens.Pair()

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current := c.tokens.Pair()
	if current.Access != pair.Access {
		// Another caller refreshed while we waited for the lock.
		return nil
	}
	if current.Refresh == "" {
		return ErrSessionExpired
	}

	body := map[string]string{"refreshToken": current.Refresh}
	var data authData
	if _, err := c.do(ctx, http.MethodPost, "/auth/refresh", body, &data, false); err != nil {
		_ = c.tokens.Clear()
		return ErrSessionExpired
	}
	if data.AccessToken == "" {
		_ = c.tokens.Clear()
		return ErrSessionExpired
	}

	return c.tokens.SetPair(Pair{Access: data.AccessToken, Refresh: data.RefreshToken})
}

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	issueguard "github.com/mccescario1995/issueguard"
	"github.com/mccescario1995/issueguard/authstore"
)

// TokenSource supplies the current session credential for lock calls.
// [*authstore.Store] satisfies it.
type TokenSource interface {
	Token() string
}

// Client defines a public type used by issueguard APIs.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// It implements both [issueguard.SessionService] and [issueguard.LockService].
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
}

// NewClient describes the newclient operation and its observable behavior.
//
// NewClient may return an error when input validation fails. A nil
// httpClient gets a default with a 10 second timeout.
func NewClient(baseURL string, tokens TokenSource, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base URL required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		base:   baseURL,
		http:   httpClient,
		tokens: tokens,
	}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Profile json.RawMessage `json:"profile"`
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or the
// backend's credential check fail.
func (c *Client) Login(ctx context.Context, email, password string) (string, *issueguard.Profile, error) {
	var out loginResponse
	err := c.do(ctx, http.MethodPost, "/api/Access", "", loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		if errors.Is(err, issueguard.ErrUnauthorized) {
			return "", nil, issueguard.ErrInvalidCredentials
		}
		return "", nil, err
	}

	profile, err := authstore.DecodeProfile(string(out.Profile))
	if err != nil {
		return "", nil, fmt.Errorf("login response: %w", err)
	}
	return out.Token, profile, nil
}

// Logout describes the logout operation and its observable behavior.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
}

// Validate describes the validate operation and its observable behavior.
//
// Validate returns [issueguard.ErrUnauthorized] for a rejected session and
// transport errors as-is; the guard treats both the same way.
func (c *Client) Validate(ctx context.Context, token string) (*issueguard.Profile, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", token, nil, &raw); err != nil {
		return nil, err
	}

	profile, err := authstore.DecodeProfile(string(raw))
	if err != nil {
		// An unreadable success payload is no better than a rejection.
		return nil, issueguard.ErrUnauthorized
	}
	return profile, nil
}

// Status describes the status operation and its observable behavior.
func (c *Client) Status(ctx context.Context, issueID int64) (issueguard.LockStatus, error) {
	var status issueguard.LockStatus
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/Issue/%d/lock", issueID), c.token(), nil, &status)
	if err != nil {
		return issueguard.LockStatus{}, err
	}
	return status, nil
}

// Acquire describes the acquire operation and its observable behavior.
//
// A conflict response carrying the holder's identity is surfaced as a
// [*issueguard.ConflictError].
func (c *Client) Acquire(ctx context.Context, issueID int64, _ issueguard.LockHolder) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/Issue/%d/lock", issueID), c.token(), nil, nil)
}

// Release describes the release operation and its observable behavior.
func (c *Client) Release(ctx context.Context, issueID int64, _ issueguard.LockHolder) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/Issue/%d/lock", issueID), c.token(), nil, nil)
}

// Heartbeat describes the heartbeat operation and its observable behavior.
func (c *Client) Heartbeat(ctx context.Context, issueID int64, _ issueguard.LockHolder) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/Issue/%d/lock/heartbeat", issueID), c.token(), nil, nil)
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		return json.Unmarshal(data, out)
	case resp.StatusCode == http.StatusUnauthorized:
		return issueguard.ErrUnauthorized
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusLocked:
		var status issueguard.LockStatus
		if json.Unmarshal(data, &status) == nil && status.IsLocked {
			return &issueguard.ConflictError{Status: status}
		}
		return fmt.Errorf("api: %s %s: status %d", method, path, resp.StatusCode)
	default:
		return fmt.Errorf("api: %s %s: status %d", method, path, resp.StatusCode)
	}
}

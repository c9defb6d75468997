// Package kavita is a stateless request/response client for the Kavita
// server API. One call is one HTTP exchange: no retries, no caching.
package kavita

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultPort is the Kavita default when the configured address
// carries no port.
const defaultPort = "5000"

// loginTimeout bounds the login exchange so a dead host cannot hang
// startup or a settings update.
const loginTimeout = 10 * time.Second

// Settings is one immutable set of connection parameters.
type Settings struct {
	IP       string
	Username string
	Password string
	APIKey   string
}

// BaseURL builds the API root for these settings.
func (s Settings) BaseURL() string {
	host, port := s.IP, defaultPort
	if h, p, ok := strings.Cut(s.IP, ":"); ok {
		host, port = h, p
	}
	return fmt.Sprintf("http://%s:%s/api/", host, port)
}

// Client talks to one Kavita server. Login must complete before any
// authenticated call; the token is written only by Login, so a client
// whose login already finished is safe for concurrent use.
type Client struct {
	HTTP     *http.Client
	settings Settings
	baseURL  string

	token       string
	loggedAs    string
	tokenExpiry time.Time
}

func NewClient(settings Settings) *Client {
	return &Client{
		HTTP:     &http.Client{},
		settings: settings,
		baseURL:  settings.BaseURL(),
	}
}

func (c *Client) Settings() Settings { return c.settings }

// LoggedAs returns the username the server reported at login.
func (c *Client) LoggedAs() string { return c.loggedAs }

// TokenExpiry is when the bearer token lapses, zero if unknown.
func (c *Client) TokenExpiry() time.Time { return c.tokenExpiry }

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Login authenticates against Account/login and keeps the bearer
// token for subsequent calls. The exchange is bounded by loginTimeout.
func (c *Client) Login(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{
		"username": c.settings.Username,
		"password": c.settings.Password,
		"apiKey":   c.settings.APIKey,
	})
	if err != nil {
		return fmt.Errorf("marshal login body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"Account/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &AuthError{Body: err.Error()}
	}

	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &AuthError{Status: resp.StatusCode, Body: string(raw)}
	}
	if len(raw) == 0 {
		return &AuthError{Status: resp.StatusCode, Body: "empty response"}
	}

	var auth loginResponse
	if err := json.Unmarshal(raw, &auth); err != nil {
		return &AuthError{Status: resp.StatusCode, Body: "malformed response: " + err.Error()}
	}
	if auth.Token == "" {
		return &AuthError{Status: resp.StatusCode, Body: "no token in response"}
	}

	c.token = auth.Token
	c.loggedAs = auth.Username
	c.tokenExpiry = tokenExpiry(auth.Token)
	return nil
}

// tokenExpiry extracts the exp claim from the bearer token without
// verifying the signature; the value is diagnostic only.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// getJSON performs an authenticated GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	raw, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &RemoteError{Op: op, Status: http.StatusOK, Body: "malformed response: " + err.Error()}
	}
	return nil
}

// postJSON performs an authenticated POST with a JSON body; the
// response body is decoded into out when out is non-nil.
func (c *Client) postJSON(ctx context.Context, op, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", op, err)
	}
	raw, err := c.do(ctx, op, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &RemoteError{Op: op, Status: http.StatusOK, Body: "malformed response: " + err.Error()}
	}
	return nil
}

// getBytes performs an authenticated GET returning the raw body,
// used for cover and page images.
func (c *Client) getBytes(ctx context.Context, op, path string) ([]byte, error) {
	return c.do(ctx, op, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}

	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{Op: op, Status: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

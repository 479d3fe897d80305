package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gobarber/gobarber/internal/session"
)

const defaultTimeout = 30 * time.Second

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client represents an HTTP client for the GoBarber API
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.RWMutex
	headers http.Header
}

// New creates a new API client for baseURL (e.g. http://localhost:3333)
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		headers: make(http.Header),
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetDefaultHeader sets a header sent with every subsequent request
func (c *Client) SetDefaultHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Set(key, value)
}

// DelDefaultHeader stops sending a default header
func (c *Client) DelDefaultHeader(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Del(key)
}

// DefaultHeader returns the current value of a default header
func (c *Client) DefaultHeader(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers.Get(key)
}

// newRequest builds a request carrying the default headers
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.mu.RLock()
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	c.mu.RUnlock()

	return req, nil
}

// doJSON sends in (if non-nil) as JSON and decodes the response into out (if non-nil)
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func parseAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// SessionResponse represents the session-creation response
type SessionResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// CreateSession authenticates the user and returns a bearer token
func (c *Client) CreateSession(ctx context.Context, email, password string) (*SessionResponse, error) {
	var resp SessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/sessions", session.Credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Authenticate implements session.Transport
func (c *Client) Authenticate(ctx context.Context, creds session.Credentials) (string, session.User, error) {
	resp, err := c.CreateSession(ctx, creds.Email, creds.Password)
	if err != nil {
		return "", session.User{}, err
	}
	return resp.Token, resp.User, nil
}

// CreateUserRequest represents the sign-up request body
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUser registers a new account
func (c *Client) CreateUser(ctx context.Context, in CreateUserRequest) (*session.User, error) {
	var user session.User
	if err := c.doJSON(ctx, http.MethodPost, "/users", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ForgotPassword asks the API to mail a recovery link to email
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	in := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.doJSON(ctx, http.MethodPost, "/password/retrieve", in, nil)
}

// ResetPasswordRequest represents the password reset request body
type ResetPasswordRequest struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Token                string `json:"token"`
}

// ResetPassword sets a new password using a recovery token
func (c *Client) ResetPassword(ctx context.Context, in ResetPasswordRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/password/reset", in, nil)
}

// GetProfile returns the authenticated user
func (c *Client) GetProfile(ctx context.Context) (*session.User, error) {
	var user session.User
	if err := c.doJSON(ctx, http.MethodGet, "/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfileRequest represents the profile update body. Password fields
// are only sent when OldPassword is set.
type UpdateProfileRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	OldPassword          string `json:"old_password,omitempty"`
	Password             string `json:"password,omitempty"`
	PasswordConfirmation string `json:"password_confirmation,omitempty"`
}

// UpdateProfile changes name, email and optionally the password
func (c *Client) UpdateProfile(ctx context.Context, in UpdateProfileRequest) (*session.User, error) {
	var user session.User
	if err := c.doJSON(ctx, http.MethodPut, "/profile", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateAvatar uploads a new avatar image as multipart field "avatar"
func (c *Client) UpdateAvatar(ctx context.Context, filename string, r io.Reader) (*session.User, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("avatar", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read avatar: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPatch, "/users/avatar", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var user session.User
	if err := c.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListProviders returns every provider except the caller
func (c *Client) ListProviders(ctx context.Context) ([]session.User, error) {
	var providers []session.User
	if err := c.doJSON(ctx, http.MethodGet, "/providers", nil, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// Appointment represents a booked hour
type Appointment struct {
	ID         string        `json:"id"`
	ProviderID string        `json:"provider_id"`
	UserID     string        `json:"user_id"`
	Date       time.Time     `json:"date"`
	User       *session.User `json:"user,omitempty"`
}

// ListAppointments returns the caller's appointments as a provider for one day
func (c *Client) ListAppointments(ctx context.Context, day time.Time) ([]Appointment, error) {
	q := url.Values{}
	q.Set("day", strconv.Itoa(day.Day()))
	q.Set("month", strconv.Itoa(int(day.Month())))
	q.Set("year", strconv.Itoa(day.Year()))

	var appointments []Appointment
	if err := c.doJSON(ctx, http.MethodGet, "/appointments/me?"+q.Encode(), nil, &appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

// CreateAppointmentRequest represents the booking body
type CreateAppointmentRequest struct {
	ProviderID string    `json:"provider_id"`
	Date       time.Time `json:"date"`
}

// CreateAppointment books an hour with a provider
func (c *Client) CreateAppointment(ctx context.Context, in CreateAppointmentRequest) (*Appointment, error) {
	var appointment Appointment
	if err := c.doJSON(ctx, http.MethodPost, "/appointments", in, &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

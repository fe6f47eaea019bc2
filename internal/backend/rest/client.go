// Package rest implements the directory contract against a running Helios
// API. It is the real-backend drop-in for the in-memory mock.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/helioshq/helios-admin/internal/backend"
	"github.com/helioshq/helios-admin/internal/identity"
)

// Client talks to the Helios API over HTTP.
type Client struct {
	base string
	http *http.Client
}

var _ backend.Directory = (*Client)(nil)

// NewClient constructs a Client for the given base URL (for example
// "https://admin.example.com/api/v1").
func NewClient(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// envelope mirrors httpx.Envelope with the payload left raw for the caller.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
}

type grantPayload struct {
	User         identity.User `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
}

// Login implements backend.Directory.
func (c *Client) Login(ctx context.Context, creds backend.Credentials) (*backend.Grant, error) {
	var payload grantPayload
	err := c.do(ctx, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    creds.Email,
		"password": creds.Password,
	}, &payload)
	if err != nil {
		return nil, err
	}
	return &backend.Grant{
		User:         payload.User,
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}, nil
}

// Register implements backend.Directory.
func (c *Client) Register(ctx context.Context, reg backend.Registration) (*identity.User, error) {
	var user identity.User
	err := c.do(ctx, http.MethodPost, "/auth/register", "", map[string]string{
		"email":     reg.Email,
		"password":  reg.Password,
		"firstName": reg.FirstName,
		"lastName":  reg.LastName,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout implements backend.Directory.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", accessToken, nil, nil)
}

// GetCurrentUser implements backend.Directory.
func (c *Client) GetCurrentUser(ctx context.Context, accessToken string) (*identity.User, error) {
	var user identity.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ForgotPassword implements backend.Directory.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": email}, nil)
}

// ResetPassword implements backend.Directory.
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/auth/reset-password", "", map[string]string{
		"token":       resetToken,
		"newPassword": newPassword,
	}, nil)
}

// ChangePassword implements backend.Directory.
func (c *Client) ChangePassword(ctx context.Context, accessToken, currentPassword, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/auth/change-password", accessToken, map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}, nil)
}

// UpdateProfile implements backend.Directory.
func (c *Client) UpdateProfile(ctx context.Context, accessToken string, patch identity.ProfilePatch) (*identity.User, error) {
	var user identity.User
	if err := c.do(ctx, http.MethodPut, "/profile", accessToken, patch, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePreferences implements backend.Directory.
func (c *Client) UpdatePreferences(ctx context.Context, accessToken string, patch identity.PreferencesPatch) (*identity.User, error) {
	var user identity.User
	if err := c.do(ctx, http.MethodPut, "/profile/preferences", accessToken, patch, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UploadAvatar implements backend.Directory.
func (c *Client) UploadAvatar(ctx context.Context, accessToken, filename string, data []byte) (*identity.User, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/profile/avatar", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var user identity.User
	if err := c.send(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteAvatar implements backend.Directory.
func (c *Client) DeleteAvatar(ctx context.Context, accessToken string) (*identity.User, error) {
	var user identity.User
	if err := c.do(ctx, http.MethodDelete, "/profile/avatar", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("rest: decode response (%s): %w", res.Status, err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "Request failed"
		}
		return &backend.OpError{Message: msg}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("rest: decode payload: %w", err)
		}
	}
	return nil
}

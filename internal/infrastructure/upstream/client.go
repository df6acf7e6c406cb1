// Package upstream implements the marketplace backend gateway over HTTPS.
// It is a thin wrapper: every real decision (password checks, role
// resolution, account approval) happens server-side. Its one job beyond
// plumbing is classifying failures into the domain error taxonomy.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/craftlink/session-agent/internal/core/domain"
	"github.com/craftlink/session-agent/internal/core/ports"
)

const (
	loginPath            = "/login"
	genericProfilePath   = "/user/me"
	craftsmanProfilePath = "/craftsmen/profile/me"

	defaultTimeout = 15 * time.Second
)

// Config captures the settings for reaching the marketplace backend.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient returns an UpstreamGateway talking to the backend at
// cfg.BaseURL. A default timeout is applied when none is provided.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

var _ ports.UpstreamGateway = (*Client)(nil)

// loginRequest is the unified login payload. The identifier field is
// literally named "email" even when it carries a craftsman's phone
// number. That is the server's contract, preserved as-is.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status   bool           `json:"status"`
	Token    string         `json:"token"`
	Role     string         `json:"role"`
	User     profilePayload `json:"user"`
	Redirect string         `json:"redirect,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// profilePayload tolerates both upstream profile shapes: the generic
// endpoint reports profile_image_url, the craftsman endpoint
// profile_photo.
type profilePayload struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profile_image_url"`
	ProfilePhoto    string `json:"profile_photo"`
	Status          string `json:"status"`
}

func (p profilePayload) toDomain() domain.ActorProfile {
	avatar := p.ProfileImageURL
	if avatar == "" {
		avatar = p.ProfilePhoto
	}
	return domain.ActorProfile{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		AvatarURL: avatar,
	}
}

func (c *Client) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	body, err := json.Marshal(loginRequest{Email: in.Identifier, Password: in.Password})
	if err != nil {
		return nil, fmt.Errorf("%w: encode login request: %v", domain.ErrUpstreamUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build login request: %v", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: login returned %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var decoded loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode login response: %v", domain.ErrUpstreamUnavailable, err)
	}

	// 4xx and explicit status:false are business refusals carrying the
	// server's display message, not faults.
	if resp.StatusCode >= http.StatusBadRequest || !decoded.Status {
		return nil, &domain.LoginRejectedError{Message: decoded.Message}
	}

	return &ports.LoginResult{
		Token:    decoded.Token,
		Role:     decoded.Role,
		Actor:    decoded.User.toDomain(),
		Redirect: decoded.Redirect,
	}, nil
}

func (c *Client) FetchProfile(ctx context.Context, role domain.Role, token string) (*domain.ActorProfile, error) {
	path := genericProfilePath
	if role == domain.RoleCraftsman {
		path = craftsmanProfilePath
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build profile request: %v", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.log.Debug().Str("path", path).Msg("upstream rejected bearer token")
		return nil, domain.ErrCredentialRejected
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: profile fetch returned %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var decoded profilePayload
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %v", domain.ErrUpstreamUnavailable, err)
	}

	profile := decoded.toDomain()
	return &profile, nil
}

package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/tidwall/gjson"
)

// User is the subset of the auth user this app cares about.
type User struct {
	ID        string
	Email     string
	FullName  string
	AvatarURL string
}

// Session is an authenticated Supabase session.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         User
}

// AuthAPI is what the rest of the app sees. The concrete client is built
// once in main and injected; there is no package-level singleton.
type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password, fullName string) error
	ExchangeCode(ctx context.Context, code, verifier string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Client talks to the Supabase auth backend (GoTrue).
type Client struct {
	gt         gotrue.Client
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// extractProjectRef extracts just the project reference ID from a Supabase URL
// From: akrqbuajqkirdekonpzy.supabase.co
// To: akrqbuajqkirdekonpzy
func extractProjectRef(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")

	parts := strings.Split(url, ".")
	return parts[0]
}

// NewClient builds an auth client for the given Supabase project.
func NewClient(supabaseURL, anonKey string) (*Client, error) {
	if supabaseURL == "" || anonKey == "" {
		return nil, fmt.Errorf("supabase URL and anon key are required")
	}

	projectRef := extractProjectRef(supabaseURL)
	gt := gotrue.New(projectRef, anonKey)

	baseURL := supabaseURL
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "https://" + baseURL
	}

	return &Client{
		gt:         gt,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Healthcheck verifies the project is reachable.
func (c *Client) Healthcheck() error {
	if _, err := c.gt.GetSettings(); err != nil {
		return fmt.Errorf("failed to connect to Supabase: %w", err)
	}
	return nil
}

// SignIn validates credentials and returns the resulting session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	res, err := c.gt.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if res == nil || res.AccessToken == "" {
		return nil, fmt.Errorf("authentication failed: empty session")
	}

	return &Session{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         userFromAuth(res.User),
	}, nil
}

// SignUp registers a new auth user. Profile provisioning happens later,
// via the session controller's ensure-profile path.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) error {
	_, err := c.gt.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data: map[string]interface{}{
			"full_name": fullName,
		},
	})
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}
	return nil
}

// ExchangeCode trades an OAuth authorization code (PKCE) for a session.
// gotrue-go has no helper for the pkce grant, so this hits the token
// endpoint directly.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*Session, error) {
	body, err := json.Marshal(map[string]string{
		"auth_code":     code,
		"code_verifier": verifier,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal exchange request: %w", err)
	}

	url := fmt.Sprintf("%s/auth/v1/token?grant_type=pkce", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("code exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange response: %w", err)
	}

	parsed := gjson.ParseBytes(raw)
	if resp.StatusCode != http.StatusOK {
		msg := parsed.Get("error_description").String()
		if msg == "" {
			msg = parsed.Get("msg").String()
		}
		return nil, fmt.Errorf("code exchange rejected (status %d): %s", resp.StatusCode, msg)
	}

	accessToken := parsed.Get("access_token").String()
	if accessToken == "" {
		return nil, fmt.Errorf("code exchange returned no access token")
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: parsed.Get("refresh_token").String(),
		User: User{
			ID:        parsed.Get("user.id").String(),
			Email:     parsed.Get("user.email").String(),
			FullName:  parsed.Get("user.user_metadata.full_name").String(),
			AvatarURL: parsed.Get("user.user_metadata.avatar_url").String(),
		},
	}, nil
}

// SignOut revokes the session's refresh tokens. Best effort: the caller
// already treats the session as dead.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if err := c.gt.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("sign out failed: %w", err)
	}
	return nil
}

func userFromAuth(u types.User) User {
	user := User{
		ID:    u.ID.String(),
		Email: u.Email,
	}
	if v, ok := u.UserMetadata["full_name"].(string); ok {
		user.FullName = v
	}
	if v, ok := u.UserMetadata["avatar_url"].(string); ok {
		user.AvatarURL = v
	}
	return user
}

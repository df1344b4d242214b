// Package oauth implements the Google sign-in popup flow: building the
// authorization URL, exchanging the code for a profile, rendering the
// callback page, and the opener-side handshake that waits for its message.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shrutimovaliya24/softcool/pkg/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// Google endpoints.
const (
	GoogleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Scopes requested from Google.
var Scopes = []string{"openid", "email", "profile"}

// ErrMissingEmail is returned when the provider profile carries no email.
var ErrMissingEmail = errors.New("provider profile has no email")

// Profile is the subset of the Google userinfo response the storefront uses.
type Profile struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Client talks to the identity provider on behalf of the callback endpoint.
type Client struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	logger      *zap.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithEndpoint overrides the provider authorization and token endpoints.
func WithEndpoint(authURL, tokenURL string) ClientOption {
	return func(c *Client) {
		c.config.Endpoint = oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		}
	}
}

// WithUserInfoURL overrides the profile endpoint.
func WithUserInfoURL(u string) ClientOption {
	return func(c *Client) { c.userInfoURL = u }
}

// WithHTTPClient sets the client used for token and profile requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a Google client from the application config
func NewClient(cfg *config.Config, logger *zap.Logger, opts ...ClientOption) *Client {
	endpoint := endpoints.Google
	endpoint.AuthURL = GoogleAuthURL
	// client id and secret travel in the POST body
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	c := &Client{
		config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.RedirectURI(),
			Scopes:       Scopes,
			Endpoint:     endpoint,
		},
		userInfoURL: GoogleUserInfoURL,
		httpClient:  http.DefaultClient,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a client id is set.
func (c *Client) Configured() bool {
	return c.config.ClientID != ""
}

// AuthURL returns the URL the popup is navigated to.
func (c *Client) AuthURL(state string) string {
	return c.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for the user's profile.
func (c *Client) Exchange(ctx context.Context, code string) (Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	resp, err := c.config.Client(ctx, token).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Profile{}, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Profile{}, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if profile.Email == "" {
		return Profile{}, ErrMissingEmail
	}

	c.logger.Debug("OAuth profile fetched", zap.String("email", profile.Email))
	return profile, nil
}

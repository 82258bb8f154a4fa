// Package oauth talks to the Google userinfo endpoint for social sign-in.
package oauth

import (
	"context"       // Request scoped cancellation
	"encoding/json" // Decoding the userinfo payload
	"fmt"           // Error formatting
	"io"            // Reading error bodies
	"net/http"      // HTTP client

	"golang.org/x/oauth2" // Bearer token transport
)

// DefaultUserInfoURL is Google's OAuth2 userinfo endpoint
const DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// maxErrorBody caps how much of a provider error response is kept
const maxErrorBody = 4 << 10

// UserInfo is the subset of the Google profile the service uses
type UserInfo struct {
	ID            string `json:"id"`             // Google account id
	Email         string `json:"email"`          // Primary email, may be empty
	VerifiedEmail bool   `json:"verified_email"` // Whether Google verified the email
	Name          string `json:"name"`           // Display name
	Picture       string `json:"picture"`        // Avatar URL
}

// ProviderError is returned when Google answers with a non-2xx status
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("google userinfo returned %d: %s", e.StatusCode, e.Body)
}

// GoogleClient fetches user profiles with a user supplied access token
type GoogleClient struct {
	userInfoURL string
	httpClient  *http.Client
}

// NewGoogleClient builds a client for userInfoURL. A nil httpClient uses http.DefaultClient.
func NewGoogleClient(userInfoURL string, httpClient *http.Client) *GoogleClient {
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GoogleClient{userInfoURL: userInfoURL, httpClient: httpClient}
}

// UserInfo returns the profile owning accessToken
func (g *GoogleClient) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	// oauth2 reuses the base client's transport when it is carried in the context
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google userinfo request: %w", err)
	}
	defer resp.Body.Close()

	// Surface the provider's own error body to the caller
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode google userinfo: %w", err)
	}
	return &info, nil
}

package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/voxcal/voxcal/internal/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userinfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"

// Scopes cover calendar writes plus the identity claims needed to key
// token storage by email. "openid" is required alongside userinfo.email.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type Authenticator struct {
	oauth *oauth2.Config
}

func NewAuthenticator(cfg Config) auth.Authenticator {
	return &Authenticator{
		oauth: OAuthConfig(cfg),
	}
}

func OAuthConfig(cfg Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

func (a *Authenticator) AuthorizationURL(state string) string {
	return a.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (a *Authenticator) ExchangeCode(ctx context.Context, code string) (*auth.Identity, error) {
	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	email, err := fetchEmail(ctx, a.oauth.Client(ctx, token))
	if err != nil {
		return nil, fmt.Errorf("resolve user email: %w", err)
	}
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return nil, err
	}
	return &auth.Identity{Email: email, TokenJSON: tokenJSON}, nil
}

func fetchEmail(ctx context.Context, client *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoEndpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("userinfo returned status %d: %s", resp.StatusCode, body)
	}
	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	if info.Email == "" {
		return "", fmt.Errorf("userinfo response carried no email")
	}
	return info.Email, nil
}

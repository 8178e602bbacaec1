package zoho

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bistrobytes/internal/config"
	"bistrobytes/internal/domain"

	"golang.org/x/oauth2"
)

// RefreshTokenSource mints a fresh access token from the long-lived refresh
// token on every call. No cross-request caching is assumed: each booking and
// each availability query pays for its own token, as the provider's short
// token lifetime demands.
type RefreshTokenSource struct {
	conf         *oauth2.Config
	refreshToken string
	client       *http.Client
}

func NewRefreshTokenSource(cfg config.ZohoConfig, client *http.Client) *RefreshTokenSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &RefreshTokenSource{
		conf:         oauthConfig(cfg),
		refreshToken: cfg.RefreshToken,
		client:       client,
	}
}

func (s *RefreshTokenSource) AccessToken(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	tok, err := s.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: s.refreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("%w: refresh access token: %v", domain.ErrUpstreamAuth, err)
	}
	return tok.AccessToken, nil
}

var _ domain.AccessTokenSource = (*RefreshTokenSource)(nil)

// ExchangeResult is relayed to the caller of the auxiliary code-exchange
// endpoint.
type ExchangeResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// ExchangeCode trades an authorization code for tokens. Used only by the
// pass-through /auth/zoho endpoint.
func ExchangeCode(ctx context.Context, cfg config.ZohoConfig, client *http.Client, code string) (*ExchangeResult, error) {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)

	tok, err := oauthConfig(cfg).Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange authorization code: %v", domain.ErrUpstreamAuth, err)
	}

	res := &ExchangeResult{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		res.ExpiresIn = int64(time.Until(tok.Expiry).Seconds())
	}
	return res, nil
}

func oauthConfig(cfg config.ZohoConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.AccountsURL + "/oauth/v2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

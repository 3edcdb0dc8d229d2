package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	apperrors "github.com/spotmap/spot-api/internal/errors"
	"github.com/spotmap/spot-api/internal/model"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// maxProfileBytes caps how much of a userinfo response is read.
const maxProfileBytes = 1 << 20

var googleAvatarRegex = regexp.MustCompile(`googleusercontent\.com/(.+?)=`)

// Provider is an external identity provider speaking the authorization-code
// grant.
type Provider interface {
	Name() string
	AuthCodeURL(state, redirectURI string) string
	Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error)
	FetchProfile(ctx context.Context, token *oauth2.Token) (*model.OAuthUserProfile, error)
}

type GoogleProvider struct {
	config      oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	timeout     time.Duration
}

func NewGoogleProvider(clientID, clientSecret string, timeout time.Duration) *GoogleProvider {
	endpoint := google.Endpoint
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	return newGoogleProvider(clientID, clientSecret, endpoint, googleUserInfoURL, timeout)
}

func newGoogleProvider(clientID, clientSecret string, endpoint oauth2.Endpoint, userInfoURL string, timeout time.Duration) *GoogleProvider {
	return &GoogleProvider{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     endpoint,
			Scopes:       []string{"profile", "email"},
		},
		userInfoURL: userInfoURL,
		httpClient:  &http.Client{Timeout: timeout},
		timeout:     timeout,
	}
}

func (p *GoogleProvider) Name() string {
	return model.OAuthProviderGoogle
}

// AuthCodeURL forces the consent screen on every sign-in.
func (p *GoogleProvider) AuthCodeURL(state, redirectURI string) string {
	return p.withRedirect(redirectURI).AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "consent"))
}

func (p *GoogleProvider) Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	ctx, cancel := p.clientContext(ctx)
	defer cancel()

	token, err := p.withRedirect(redirectURI).Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, apperrors.ProviderRefused("Google service refused to issue an access key").WithCause(err)
		}
		return nil, apperrors.External("Failed to query Google auth API endpoint to obtain access key", err)
	}
	return token, nil
}

func (p *GoogleProvider) FetchProfile(ctx context.Context, token *oauth2.Token) (*model.OAuthUserProfile, error) {
	ctx, cancel := p.clientContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, apperrors.Internal("Failed to build Google profile request", err)
	}

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, apperrors.External("Failed to query Google API to get user profile", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, apperrors.External("Failed to query Google API to get user profile", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.ProviderRefused(fmt.Sprintf("Google API did not return user profile; HTTP code: %d", resp.StatusCode))
	}

	profile, ok := normalizeGoogleProfile(body)
	if !ok {
		return nil, apperrors.ProviderRefused("User profile not received from Google API")
	}
	return profile, nil
}

func (p *GoogleProvider) withRedirect(redirectURI string) *oauth2.Config {
	cfg := p.config
	cfg.RedirectURL = redirectURI
	return &cfg
}

// clientContext bounds a provider round trip and routes the oauth2 package
// through the provider's HTTP client.
func (p *GoogleProvider) clientContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	return context.WithTimeout(ctx, p.timeout)
}

type googleUserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	GivenName string `json:"given_name"`
	Locale    string `json:"locale"`
	Picture   string `json:"picture"`
}

func normalizeGoogleProfile(body []byte) (*model.OAuthUserProfile, bool) {
	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, false
	}
	if info.ID == "" {
		return nil, false
	}

	return &model.OAuthUserProfile{
		ID:        model.GoogleUserPrefix + info.ID,
		Email:     info.Email,
		Name:      info.Name,
		GivenName: info.GivenName,
		Locale:    info.Locale,
		Avatar:    googleAvatar(info.Picture),
	}, true
}

// googleAvatar extracts the stable part of a Google profile picture URL so the
// front end can choose its own image size. Unrecognized URLs yield "".
func googleAvatar(picture string) string {
	match := googleAvatarRegex.FindStringSubmatch(picture)
	if match == nil {
		return ""
	}
	return model.GoogleUserPrefix + match[1]
}

package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	apperrors "github.com/spotmap/spot-api/internal/errors"
)

// fakeGoogle stands in for the token and userinfo endpoints.
type fakeGoogle struct {
	*httptest.Server

	mu           sync.Mutex
	tokenStatus  int
	tokenBody    string
	profileCode  int
	profileBody  string
	profileDelay time.Duration
	tokenForms   []url.Values
	bearer       string
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()

	g := &fakeGoogle{
		tokenStatus: http.StatusOK,
		tokenBody:   `{"access_token":"ya29.token","token_type":"Bearer","expires_in":3599}`,
		profileCode: http.StatusOK,
		profileBody: `{"id":"1234567890","email":"ann@example.com","verified_email":true,"name":"Ann Example","given_name":"Ann","locale":"en","picture":"https://lh3.googleusercontent.com/a-/AOh14Gabc=s96-c"}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		g.mu.Lock()
		g.tokenForms = append(g.tokenForms, r.PostForm)
		status, body := g.tokenStatus, g.tokenBody
		g.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		g.bearer = r.Header.Get("Authorization")
		status, body, delay := g.profileCode, g.profileBody, g.profileDelay
		g.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})

	g.Server = httptest.NewServer(mux)
	t.Cleanup(g.Close)
	return g
}

func (g *fakeGoogle) forms() []url.Values {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]url.Values(nil), g.tokenForms...)
}

func (g *fakeGoogle) authorization() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bearer
}

func (g *fakeGoogle) provider(timeout time.Duration) *GoogleProvider {
	endpoint := oauth2.Endpoint{
		AuthURL:   "https://accounts.example.test/o/oauth2/v2/auth",
		TokenURL:  g.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	return newGoogleProvider("client-id", "client-secret", endpoint, g.URL+"/userinfo", timeout)
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	p := NewGoogleProvider("client-id", "client-secret", time.Second)

	raw := p.AuthCodeURL("opaque-state", "https://api.example.com/prod/auth/google")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "accounts.google.com", u.Host)
	q := u.Query()
	assert.Equal(t, "https://api.example.com/prod/auth/google", q.Get("redirect_uri"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "opaque-state", q.Get("state"))
	assert.Equal(t, "profile email", q.Get("scope"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Empty(t, q.Get("client_secret"))
}

func TestGoogleProvider_Exchange(t *testing.T) {
	ctx := context.Background()

	t.Run("success posts code and redirect uri", func(t *testing.T) {
		g := newFakeGoogle(t)
		tok, err := g.provider(time.Second).Exchange(ctx, "abc123", "https://api.example.com/auth/google")
		require.NoError(t, err)
		assert.Equal(t, "ya29.token", tok.AccessToken)

		forms := g.forms()
		require.Len(t, forms, 1)
		form := forms[0]
		assert.Equal(t, "abc123", form.Get("code"))
		assert.Equal(t, "authorization_code", form.Get("grant_type"))
		assert.Equal(t, "https://api.example.com/auth/google", form.Get("redirect_uri"))
		assert.Equal(t, "client-id", form.Get("client_id"))
		assert.Equal(t, "client-secret", form.Get("client_secret"))
	})

	t.Run("non-success status is a refusal", func(t *testing.T) {
		g := newFakeGoogle(t)
		g.tokenStatus = http.StatusBadRequest
		g.tokenBody = `{"error":"invalid_grant"}`

		_, err := g.provider(time.Second).Exchange(ctx, "abc123", "https://api.example.com/auth/google")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeProviderRefused, apperrors.GetCode(err))
	})

	t.Run("unusable body is an upstream failure", func(t *testing.T) {
		g := newFakeGoogle(t)
		g.tokenBody = `{"token_type":"Bearer"}`

		_, err := g.provider(time.Second).Exchange(ctx, "abc123", "https://api.example.com/auth/google")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeExternal, apperrors.GetCode(err))
	})

	t.Run("unreachable endpoint is an upstream failure", func(t *testing.T) {
		g := newFakeGoogle(t)
		p := g.provider(time.Second)
		g.Close()

		_, err := p.Exchange(ctx, "abc123", "https://api.example.com/auth/google")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeExternal, apperrors.GetCode(err))
	})
}

func TestGoogleProvider_FetchProfile(t *testing.T) {
	ctx := context.Background()
	token := &oauth2.Token{AccessToken: "ya29.token", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}

	t.Run("normalizes the profile", func(t *testing.T) {
		g := newFakeGoogle(t)
		profile, err := g.provider(time.Second).FetchProfile(ctx, token)
		require.NoError(t, err)

		assert.Equal(t, "Bearer ya29.token", g.authorization())
		assert.Equal(t, "g:1234567890", profile.ID)
		assert.Equal(t, "ann@example.com", profile.Email)
		assert.Equal(t, "Ann Example", profile.Name)
		assert.Equal(t, "Ann", profile.GivenName)
		assert.Equal(t, "en", profile.Locale)
		assert.Equal(t, "g:a-/AOh14Gabc", profile.Avatar)
	})

	t.Run("non-success status is a refusal", func(t *testing.T) {
		g := newFakeGoogle(t)
		g.profileCode = http.StatusUnauthorized

		_, err := g.provider(time.Second).FetchProfile(ctx, token)
		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeProviderRefused, appErr.Code)
		assert.Contains(t, appErr.Message, "401")
	})

	t.Run("unparseable profile is rejected", func(t *testing.T) {
		for _, body := range []string{"not json", `{"email":"ann@example.com"}`} {
			g := newFakeGoogle(t)
			g.profileBody = body

			_, err := g.provider(time.Second).FetchProfile(ctx, token)
			require.Error(t, err, body)
			appErr, _ := apperrors.AsAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, "User profile not received from Google API", appErr.Message)
		}
	})

	t.Run("slow provider times out", func(t *testing.T) {
		g := newFakeGoogle(t)
		g.profileDelay = 2 * time.Second

		start := time.Now()
		_, err := g.provider(100*time.Millisecond).FetchProfile(ctx, token)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeExternal, apperrors.GetCode(err))
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestGoogleAvatar(t *testing.T) {
	tests := []struct {
		picture string
		want    string
	}{
		{"https://lh3.googleusercontent.com/a-/AOh14Gabc=s96-c", "g:a-/AOh14Gabc"},
		{"https://lh3.googleusercontent.com/a/ACg8ocL=s96-c", "g:a/ACg8ocL"},
		{"https://example.com/me.png", ""},
		{"https://lh3.googleusercontent.com/no-size-suffix", ""},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.picture, func(t *testing.T) {
			assert.Equal(t, tc.want, googleAvatar(tc.picture))
		})
	}
}

func TestNormalizeGoogleProfile_MissingPicture(t *testing.T) {
	body, _ := json.Marshal(map[string]string{"id": "42", "email": "a@b.c", "name": "A"})
	profile, ok := normalizeGoogleProfile(body)
	require.True(t, ok)
	assert.Equal(t, "g:42", profile.ID)
	assert.Empty(t, profile.Avatar)
}

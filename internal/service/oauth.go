package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/spotmap/spot-api/internal/audit"
	"github.com/spotmap/spot-api/internal/config"
	apperrors "github.com/spotmap/spot-api/internal/errors"
	"github.com/spotmap/spot-api/internal/metrics"
	"github.com/spotmap/spot-api/internal/model"
	"github.com/spotmap/spot-api/internal/repository"
	"github.com/spotmap/spot-api/internal/statetoken"
	"github.com/spotmap/spot-api/internal/util"
)

// BaseURL is the externally visible root of this service. A configured public
// URL wins; otherwise it is rebuilt from the request host and base path.
func BaseURL(publicBaseURL, basePath, host string) string {
	if publicBaseURL != "" {
		return strings.TrimSuffix(publicBaseURL, "/")
	}
	return "https://" + host + strings.TrimSuffix(basePath, "/")
}

// CallbackURL is the redirect URI registered with a provider. Login and
// callback must produce byte-identical values.
func CallbackURL(baseURL, provider string) string {
	return baseURL + "/auth/" + provider
}

type CallbackParams struct {
	Provider string
	State    string
	Code     string
	Host     string
}

type CallbackResult struct {
	Profile model.Profile
	// Origin is where the browser should be sent back to; empty when the
	// login did not capture one.
	Origin string
}

type OAuthService struct {
	cfg       *config.Config
	providers map[string]Provider
	userRepo  repository.UserRepository
	sessions  *SessionService
	recorder  EventRecorder
}

func NewOAuthService(
	cfg *config.Config,
	userRepo repository.UserRepository,
	sessions *SessionService,
	recorder EventRecorder,
	providers ...Provider,
) *OAuthService {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	return &OAuthService{
		cfg:       cfg,
		providers: byName,
		userRepo:  userRepo,
		sessions:  sessions,
		recorder:  recorder,
	}
}

func (s *OAuthService) redirectURI(host, provider string) string {
	return CallbackURL(BaseURL(s.cfg.PublicBaseURL, s.cfg.BasePath, host), provider)
}

// LoginURL builds the provider authorization URL for the current session.
// origin is the page the browser should return to afterwards.
func (s *OAuthService) LoginURL(providerName string, session model.Session, origin, host string) (string, error) {
	provider, ok := s.providers[providerName]
	if !ok {
		return "", apperrors.NotFound(fmt.Sprintf("Login method not supported: %s", providerName))
	}

	state := statetoken.Encode(statetoken.New(session.ID, origin))
	return provider.AuthCodeURL(state, s.redirectURI(host, providerName)), nil
}

// HandleCallback completes a sign-in. Each step runs only if every previous
// step succeeded; the first failure is returned as an *apperrors.AppError.
// Completed steps are not rolled back.
func (s *OAuthService) HandleCallback(ctx context.Context, session model.Session, params CallbackParams) (result *CallbackResult, err error) {
	provider, ok := s.providers[params.Provider]

	defer func() {
		label := "unknown"
		if ok {
			label = params.Provider
		}
		outcome := "success"
		if err != nil {
			outcome = strings.ToLower(string(apperrors.GetCode(err)))
		}
		metrics.LoginsTotal.WithLabelValues(label, outcome).Inc()
	}()

	if !ok {
		return nil, apperrors.UnsupportedProvider(params.Provider)
	}

	state, decoded := statetoken.Decode(params.State)
	if !decoded || !state.Verify(session.ID) {
		log.Warn().Str("session_id", session.ID).Str("provider", params.Provider).Msg("sign-in state did not match session")
		return nil, apperrors.ForgerySuspected()
	}

	if !util.IsAlphanumeric(params.Code) {
		return nil, apperrors.InvalidInput("code", "alphanumeric")
	}

	token, err := provider.Exchange(ctx, params.Code, s.redirectURI(params.Host, params.Provider))
	if err != nil {
		return nil, err
	}

	profile, err := provider.FetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.upsertUser(ctx, profile); err != nil {
		return nil, err
	}

	if err := s.sessions.BindUser(ctx, session.ID, model.Who{ID: profile.ID, Email: profile.Email}); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.Event{
		Type:    audit.TypeSession,
		Action:  audit.ActionLogin,
		UserID:  profile.ID,
		Message: fmt.Sprintf("User %s logged in", profile.Email),
	})

	log.Info().
		Str("provider", params.Provider).
		Str("userId", profile.ID).
		Msg("OAuth login successful")

	return &CallbackResult{
		Profile: model.Profile{Name: profile.Name, Avatar: profile.Avatar},
		Origin:  state.Origin,
	}, nil
}

// upsertUser creates the user on first sign-in and refreshes name, email and
// avatar on every later one.
func (s *OAuthService) upsertUser(ctx context.Context, profile *model.OAuthUserProfile) error {
	existing, err := s.userRepo.FindByID(ctx, profile.ID)
	if err != nil {
		return apperrors.Database("User record lookup failed", err)
	}

	if existing != nil {
		updated, err := s.userRepo.UpdateProfile(ctx, profile.ID, model.UpdateUserParams{
			Name:   profile.Name,
			Email:  profile.Email,
			Avatar: profile.Avatar,
		})
		if err != nil {
			return apperrors.Database("Failed to update user information", err)
		}
		if updated != nil {
			return nil
		}
	}

	_, err = s.userRepo.Create(ctx, model.CreateUserParams{
		ID:     profile.ID,
		Name:   profile.Name,
		Email:  profile.Email,
		Avatar: profile.Avatar,
	})
	if err != nil {
		return apperrors.Database("Failed to create new user", err)
	}

	s.recorder.Record(ctx, audit.Event{
		Type:    audit.TypeAccount,
		Action:  audit.ActionCreated,
		UserID:  profile.ID,
		Message: fmt.Sprintf("Account created: %s", profile.Email),
	})
	return nil
}

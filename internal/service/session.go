package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/spotmap/spot-api/internal/audit"
	apperrors "github.com/spotmap/spot-api/internal/errors"
	"github.com/spotmap/spot-api/internal/metrics"
	"github.com/spotmap/spot-api/internal/model"
	"github.com/spotmap/spot-api/internal/repository"
	"github.com/spotmap/spot-api/internal/util"
)

// maxSessionIDAttempts bounds how many fresh ids are tried when the store
// reports that a newly minted id is already taken.
const maxSessionIDAttempts = 3

var errSessionIDCollision = errors.New("session id collided on every attempt")

// EventRecorder receives audit events. Implementations must not block the caller
// on persistence failures.
type EventRecorder interface {
	Record(ctx context.Context, event audit.Event)
}

type SessionService struct {
	sessionRepo repository.SessionRepository
	recorder    EventRecorder
	lifespan    time.Duration
	now         func() time.Time
	newID       func() (string, error)
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	recorder EventRecorder,
	lifespan time.Duration,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		recorder:    recorder,
		lifespan:    lifespan,
		now:         time.Now,
		newID:       util.GenerateSessionID,
	}
}

// Resolve returns the session identified by cookieValue, renewing its expiry,
// or a newly created session when the value is malformed, unknown or expired.
// created reports which of the two happened.
func (s *SessionService) Resolve(ctx context.Context, cookieValue string) (session model.Session, created bool, err error) {
	now := s.now().Truncate(time.Second)
	expiresAt := now.Add(s.lifespan)

	if util.IsSessionID(cookieValue) {
		existing, err := s.sessionRepo.FindByID(ctx, cookieValue)
		if err != nil {
			return model.Session{}, false, apperrors.Database("Failed to retrieve session", err)
		}

		if existing != nil && !existing.Expired(now) {
			err := s.sessionRepo.UpdateExpiry(ctx, existing.ID, expiresAt)
			switch {
			case err == nil:
				renewed := *existing
				renewed.ExpiresAt = expiresAt
				return renewed, false, nil
			case errors.Is(err, repository.ErrSessionNotFound):
				log.Debug().Str("session_id", existing.ID).Msg("session vanished during renewal")
			default:
				return model.Session{}, false, apperrors.Database("Failed to update session", err)
			}
		}
	}

	session, err = s.create(ctx, now, expiresAt)
	if err != nil {
		return model.Session{}, false, err
	}
	return session, true, nil
}

func (s *SessionService) create(ctx context.Context, now, expiresAt time.Time) (model.Session, error) {
	for attempt := 1; attempt <= maxSessionIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return model.Session{}, apperrors.Internal("Failed to generate session id", err)
		}

		session := model.Session{
			ID:        id,
			CreatedAt: now,
			ExpiresAt: expiresAt,
		}

		err = s.sessionRepo.Create(ctx, session)
		if err == nil {
			metrics.SessionsCreatedTotal.Inc()
			return session, nil
		}
		if !errors.Is(err, repository.ErrSessionExists) {
			return model.Session{}, apperrors.Database("Failed to create session", err)
		}

		log.Warn().Int("attempt", attempt).Msg("session id collision, minting another")
	}

	return model.Session{}, apperrors.Internal("Failed to create session", errSessionIDCollision)
}

// BindUser associates who with the session. The caller's copy of the session
// is not modified.
func (s *SessionService) BindUser(ctx context.Context, sessionID string, who model.Who) error {
	if err := s.sessionRepo.SetWho(ctx, sessionID, who); err != nil {
		return apperrors.Database("Failed to associate user with current session", err)
	}
	return nil
}

// Logout clears the bound identity. cleared is false when nobody was logged in.
func (s *SessionService) Logout(ctx context.Context, session model.Session) (cleared bool, err error) {
	if !session.LoggedIn() {
		metrics.LogoutsTotal.WithLabelValues("anonymous").Inc()
		return false, nil
	}

	if err := s.sessionRepo.RemoveWho(ctx, session.ID); err != nil {
		metrics.LogoutsTotal.WithLabelValues("error").Inc()
		return false, apperrors.Database("Failed to log the user out from the current session", err)
	}

	metrics.LogoutsTotal.WithLabelValues("cleared").Inc()
	s.recorder.Record(ctx, audit.Event{
		Type:    audit.TypeSession,
		Action:  audit.ActionLogout,
		UserID:  session.Who.ID,
		Message: fmt.Sprintf("User %s logged out", session.Who.Email),
	})
	return true, nil
}

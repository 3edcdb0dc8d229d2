// Package audit records account and session activity. Every event goes to the
// structured log and, best effort, to the events table.
package audit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spotmap/spot-api/internal/config"
	"github.com/spotmap/spot-api/internal/metrics"
	"github.com/spotmap/spot-api/internal/model"
	"github.com/spotmap/spot-api/internal/repository"
)

type EventType string

const (
	TypeAccount EventType = "account"
	TypeSession EventType = "session"
)

const (
	ActionCreated = "created"
	ActionLogin   = "login"
	ActionLogout  = "logout"
)

type Event struct {
	Type    EventType
	Action  string
	UserID  string
	Message string
}

type clientInfo struct {
	IP        string
	UserAgent string
}

type clientKey struct{}

// Middleware remembers the caller's address and user agent so events recorded
// further down the stack can carry them.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := clientInfo{IP: getClientIP(r), UserAgent: r.UserAgent()}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientKey{}, info)))
	})
}

func clientFromContext(ctx context.Context) clientInfo {
	info, _ := ctx.Value(clientKey{}).(clientInfo)
	return info
}

// Recorder never reports failures to its caller. Persisting happens in the
// background under its own deadline.
type Recorder struct {
	repo    repository.EventRepository
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRecorder(repo repository.EventRepository) *Recorder {
	return &Recorder{repo: repo, timeout: config.AuditWriteTimeout}
}

func (r *Recorder) Record(ctx context.Context, event Event) {
	client := clientFromContext(ctx)

	logger := log.With().
		Str("audit", "activity").
		Str("event_type", string(event.Type)).
		Str("action", event.Action).
		Logger()

	if event.UserID != "" {
		logger = logger.With().Str("user_id", event.UserID).Logger()
	}
	if client.IP != "" {
		logger = logger.With().Str("ip", client.IP).Logger()
	}
	if client.UserAgent != "" {
		logger = logger.With().Str("user_agent", client.UserAgent).Logger()
	}
	logger.Info().Msg(event.Message)

	if r.repo == nil {
		return
	}

	params := model.CreateEventParams{
		ID:        uuid.NewString(),
		Type:      string(event.Type),
		Action:    event.Action,
		UserID:    optional(event.UserID),
		Message:   event.Message,
		IP:        optional(client.IP),
		UserAgent: optional(client.UserAgent),
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		if err := r.repo.Create(writeCtx, params); err != nil {
			metrics.AuditWriteFailuresTotal.Inc()
			log.Warn().Err(err).Str("event_id", params.ID).Msg("failed to persist audit event")
		}
	}()
}

// Wait blocks until pending writes have finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/spotmap/spot-api/internal/model"
	"github.com/spotmap/spot-api/internal/redis"
)

var (
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
)

// SessionRepository persists session records. Physical removal of expired
// records is left to the store's own TTL.
type SessionRepository interface {
	// FindByID returns nil without error when no record exists.
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// Create stores a new record and fails with ErrSessionExists if the id is taken.
	Create(ctx context.Context, session model.Session) error
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error
	SetWho(ctx context.Context, id string, who model.Who) error
	RemoveWho(ctx context.Context, id string) error
}

const (
	fieldID        = "id"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
	fieldWho       = "who"
)

var createSessionScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
    return 0
end
redis.call('HSET', KEYS[1], 'id', ARGV[1], 'created_at', ARGV[2], 'expires_at', ARGV[3])
redis.call('EXPIREAT', KEYS[1], ARGV[3])
return 1
`)

var updateExpiryScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
    return 0
end
redis.call('HSET', KEYS[1], 'expires_at', ARGV[1])
redis.call('EXPIREAT', KEYS[1], ARGV[1])
return 1
`)

var setWhoScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
    return 0
end
redis.call('HSET', KEYS[1], 'who', ARGV[1])
return 1
`)

type sessionRepo struct {
	client goredis.Cmdable
	prefix string
}

func NewSessionRepository(client *goredis.Client, keyPrefix string) SessionRepository {
	return &sessionRepo{client: client, prefix: keyPrefix}
}

func (r *sessionRepo) key(id string) string {
	return redis.SessionKey(r.prefix, id)
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	session, err := decodeSession(id, fields)
	if err != nil {
		log.Warn().Err(err).Str("session_id", id).Msg("discarding unreadable session record")
		return nil, nil
	}
	return session, nil
}

func (r *sessionRepo) Create(ctx context.Context, session model.Session) error {
	created, err := createSessionScript.Run(
		ctx,
		r.client,
		[]string{r.key(session.ID)},
		session.ID,
		session.CreatedAt.UTC().Format(http.TimeFormat),
		session.ExpiresAt.Unix(),
	).Int64()
	if err != nil {
		return err
	}
	if created == 0 {
		return ErrSessionExists
	}
	return nil
}

func (r *sessionRepo) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	return r.runGuarded(ctx, updateExpiryScript, id, expiresAt.Unix())
}

func (r *sessionRepo) SetWho(ctx context.Context, id string, who model.Who) error {
	data, err := json.Marshal(who)
	if err != nil {
		return fmt.Errorf("encode who: %w", err)
	}
	return r.runGuarded(ctx, setWhoScript, id, string(data))
}

// RemoveWho is a no-op for records that no longer exist.
func (r *sessionRepo) RemoveWho(ctx context.Context, id string) error {
	return r.client.HDel(ctx, r.key(id), fieldWho).Err()
}

func (r *sessionRepo) runGuarded(ctx context.Context, script *goredis.Script, id string, args ...interface{}) error {
	updated, err := script.Run(ctx, r.client, []string{r.key(id)}, args...).Int64()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func decodeSession(id string, fields map[string]string) (*model.Session, error) {
	expiresAt, err := strconv.ParseInt(fields[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fieldExpiresAt, err)
	}

	session := &model.Session{
		ID:        id,
		ExpiresAt: time.Unix(expiresAt, 0),
	}

	if raw := fields[fieldCreatedAt]; raw != "" {
		createdAt, err := http.ParseTime(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", fieldCreatedAt, err)
		}
		session.CreatedAt = createdAt
	}

	if raw := fields[fieldWho]; raw != "" {
		var who model.Who
		if err := json.Unmarshal([]byte(raw), &who); err != nil {
			return nil, fmt.Errorf("parse %s: %w", fieldWho, err)
		}
		session.Who = &who
	}

	if stored := fields[fieldID]; stored != "" && stored != id {
		return nil, fmt.Errorf("record id %q does not match key", stored)
	}

	return session, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/spotmap/spot-api/internal/database"
	"github.com/spotmap/spot-api/internal/model"
)

type EventRepository interface {
	Create(ctx context.Context, params model.CreateEventParams) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type eventRepo struct {
	db    database.DBTX
	table string
}

func NewEventRepository(db *sqlx.DB, table string) EventRepository {
	return &eventRepo{db: db, table: pq.QuoteIdentifier(table)}
}

func (r *eventRepo) Create(ctx context.Context, params model.CreateEventParams) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, type, action, user_id, message, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.table), params.ID, params.Type, params.Action, params.UserID, params.Message, params.IP, params.UserAgent)
	return err
}

func (r *eventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE created_at < $1`, r.table), cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

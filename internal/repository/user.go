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

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, params model.UpdateUserParams) (*model.User, error)
}

type userRepo struct {
	db    database.DBTX
	table string
	now   func() time.Time
}

// NewUserRepository binds the repository to the given table. The name comes
// from configuration and is quoted as an identifier.
func NewUserRepository(db *sqlx.DB, table string) UserRepository {
	return &userRepo{db: db, table: pq.QuoteIdentifier(table), now: time.Now}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, fmt.Sprintf(`
		SELECT id, name, email, avatar, registered_at FROM %s WHERE id = $1
	`, r.table), id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, fmt.Sprintf(`
		INSERT INTO %s (id, name, email, avatar, registered_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, email, avatar, registered_at
	`, r.table), params.ID, params.Name, params.Email, params.Avatar, r.now().UTC())
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile refreshes the provider-sourced fields and leaves
// registered_at untouched.
func (r *userRepo) UpdateProfile(ctx context.Context, id string, params model.UpdateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, fmt.Sprintf(`
		UPDATE %s SET name = $2, email = $3, avatar = $4
		WHERE id = $1
		RETURNING id, name, email, avatar, registered_at
	`, r.table), id, params.Name, params.Email, params.Avatar)
	return HandleNotFound(&user, err)
}

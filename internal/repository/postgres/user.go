package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/repository"
)

const userColumns = `id, username, email, about, avatar, password, created_at, updated_at`

type userRepository struct {
	db sqlx.ExtContext
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, about, avatar, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := r.db.QueryRowxContext(ctx, query,
		user.Username,
		user.Email,
		user.About,
		user.Avatar,
		user.Password,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepository) FindTaken(ctx context.Context, username, email string, excludeID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE (username = $1 OR email = $2) AND id <> $3
		LIMIT 1`
	return r.getOne(ctx, query, username, email, excludeID)
}

func (r *userRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	if err := sqlx.GetContext(ctx, r.db, user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var users []*models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	if err := sqlx.SelectContext(ctx, r.db, &users, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	return users, nil
}

func (r *userRepository) Search(ctx context.Context, q string) ([]*models.User, error) {
	var users []*models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1 ORDER BY id`
	if err := sqlx.SelectContext(ctx, r.db, &users, query, q); err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		UPDATE users
		SET username = $2, email = $3, about = $4, avatar = $5, password = $6, updated_at = $7
		WHERE id = $1
		RETURNING updated_at`

	user.UpdatedAt = time.Now()

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.About,
		user.Avatar,
		user.Password,
		user.UpdatedAt,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/repository"
)

const wishColumns = `id, name, link, image, price, raised, description, owner_id, copied, created_at, updated_at`

type wishRepository struct {
	db sqlx.ExtContext
}

func (r *wishRepository) Create(ctx context.Context, wish *models.Wish) (*models.Wish, error) {
	query := `
		INSERT INTO wishes (name, link, image, price, raised, description, owner_id, copied, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	wish.CreatedAt = now
	wish.UpdatedAt = now

	err := r.db.QueryRowxContext(ctx, query,
		wish.Name,
		wish.Link,
		wish.Image,
		wish.Price,
		wish.Raised,
		wish.Description,
		wish.OwnerID,
		wish.Copied,
		wish.CreatedAt,
		wish.UpdatedAt,
	).Scan(&wish.ID, &wish.CreatedAt, &wish.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create wish: %w", err)
	}

	return wish, nil
}

func (r *wishRepository) GetByID(ctx context.Context, id int64) (*models.Wish, error) {
	return r.getOne(ctx, `SELECT `+wishColumns+` FROM wishes WHERE id = $1`, id)
}

func (r *wishRepository) GetForUpdate(ctx context.Context, id int64) (*models.Wish, error) {
	return r.getOne(ctx, `SELECT `+wishColumns+` FROM wishes WHERE id = $1 FOR UPDATE`, id)
}

func (r *wishRepository) getOne(ctx context.Context, query string, id int64) (*models.Wish, error) {
	wish := &models.Wish{}
	if err := sqlx.GetContext(ctx, r.db, wish, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wish: %w", err)
	}
	return wish, nil
}

func (r *wishRepository) Find(ctx context.Context, filters repository.WishFilters) ([]*models.Wish, error) {
	query := `SELECT ` + wishColumns + ` FROM wishes WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filters.OwnerID != nil {
		query += fmt.Sprintf(" AND owner_id = $%d", argIdx)
		args = append(args, *filters.OwnerID)
		argIdx++
	}
	if filters.IDs != nil {
		query += fmt.Sprintf(" AND id = ANY($%d)", argIdx)
		args = append(args, pq.Array(filters.IDs))
		argIdx++
	}

	switch filters.Order {
	case repository.OrderNewest:
		query += " ORDER BY created_at DESC, id DESC"
	case repository.OrderMostCopied:
		query += " ORDER BY copied DESC, id ASC"
	default:
		query += " ORDER BY id"
	}

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
	}

	var wishes []*models.Wish
	if err := sqlx.SelectContext(ctx, r.db, &wishes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query wishes: %w", err)
	}
	return wishes, nil
}

func (r *wishRepository) Update(ctx context.Context, wish *models.Wish) (*models.Wish, error) {
	query := `UPDATE wishes SET name=$2, link=$3, image=$4, price=$5, description=$6, updated_at=$7
		WHERE id=$1 RETURNING updated_at`

	wish.UpdatedAt = time.Now()
	err := r.db.QueryRowxContext(ctx, query,
		wish.ID, wish.Name, wish.Link, wish.Image, wish.Price, wish.Description, wish.UpdatedAt,
	).Scan(&wish.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update wish: %w", err)
	}
	return wish, nil
}

func (r *wishRepository) SetRaised(ctx context.Context, id int64, raised decimal.Decimal) error {
	result, err := r.db.ExecContext(ctx, `UPDATE wishes SET raised = $2, updated_at = $3 WHERE id = $1`, id, raised, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set raised amount: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("wish %d not found", id)
	}
	return nil
}

func (r *wishRepository) IncrementCopied(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE wishes SET copied = copied + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment copied counter: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("wish %d not found", id)
	}
	return nil
}

func (r *wishRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM wishes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete wish: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("wish %d not found", id)
	}
	return nil
}

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

const offerColumns = `id, amount, hidden, wish_id, user_id, created_at, updated_at`

type offerRepository struct {
	db sqlx.ExtContext
}

func (r *offerRepository) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	query := `
		INSERT INTO offers (amount, hidden, wish_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	offer.CreatedAt = now
	offer.UpdatedAt = now

	err := r.db.QueryRowxContext(ctx, query,
		offer.Amount,
		offer.Hidden,
		offer.WishID,
		offer.UserID,
		offer.CreatedAt,
		offer.UpdatedAt,
	).Scan(&offer.ID, &offer.CreatedAt, &offer.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	return offer, nil
}

func (r *offerRepository) GetByID(ctx context.Context, id int64) (*models.Offer, error) {
	offer := &models.Offer{}
	err := sqlx.GetContext(ctx, r.db, offer, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return offer, nil
}

func (r *offerRepository) Find(ctx context.Context, filters repository.OfferFilters) ([]*models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filters.ID != nil {
		query += fmt.Sprintf(" AND id = $%d", argIdx)
		args = append(args, *filters.ID)
		argIdx++
	}
	if filters.WishID != nil {
		query += fmt.Sprintf(" AND wish_id = $%d", argIdx)
		args = append(args, *filters.WishID)
		argIdx++
	}
	if filters.WishIDs != nil {
		query += fmt.Sprintf(" AND wish_id = ANY($%d)", argIdx)
		args = append(args, pq.Array(filters.WishIDs))
		argIdx++
	}
	if filters.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, *filters.UserID)
		argIdx++
	}
	if filters.Hidden != nil {
		query += fmt.Sprintf(" AND hidden = $%d", argIdx)
		args = append(args, *filters.Hidden)
		argIdx++
	}
	if filters.Amount != nil {
		query += fmt.Sprintf(" AND amount = $%d", argIdx)
		args = append(args, *filters.Amount)
	}

	query += " ORDER BY created_at, id"

	var offers []*models.Offer
	if err := sqlx.SelectContext(ctx, r.db, &offers, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	return offers, nil
}

func (r *offerRepository) Update(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	query := `UPDATE offers SET amount=$2, hidden=$3, updated_at=$4 WHERE id=$1 RETURNING updated_at`

	offer.UpdatedAt = time.Now()
	err := r.db.QueryRowxContext(ctx, query, offer.ID, offer.Amount, offer.Hidden, offer.UpdatedAt).Scan(&offer.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}
	return offer, nil
}

func (r *offerRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("offer %d not found", id)
	}
	return nil
}

func (r *offerRepository) DeleteByWish(ctx context.Context, wishID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM offers WHERE wish_id = $1`, wishID); err != nil {
		return fmt.Errorf("failed to delete offers of wish %d: %w", wishID, err)
	}
	return nil
}

func (r *offerRepository) CountForWish(ctx context.Context, wishID int64) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM offers WHERE wish_id = $1`, wishID); err != nil {
		return 0, fmt.Errorf("failed to count offers: %w", err)
	}
	return n, nil
}

func (r *offerRepository) SumForWish(ctx context.Context, wishID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := sqlx.GetContext(ctx, r.db, &sum, `SELECT COALESCE(SUM(amount), 0) FROM offers WHERE wish_id = $1`, wishID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum offers: %w", err)
	}
	return sum, nil
}

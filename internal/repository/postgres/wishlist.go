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
)

const wishlistColumns = `id, name, description, image, owner_id, created_at, updated_at`

type wishlistRepository struct {
	db sqlx.ExtContext
}

func (r *wishlistRepository) Create(ctx context.Context, list *models.Wishlist) (*models.Wishlist, error) {
	query := `
		INSERT INTO wishlists (name, description, image, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	list.CreatedAt = now
	list.UpdatedAt = now

	err := r.db.QueryRowxContext(ctx, query,
		list.Name,
		list.Description,
		list.Image,
		list.OwnerID,
		list.CreatedAt,
		list.UpdatedAt,
	).Scan(&list.ID, &list.CreatedAt, &list.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create wishlist: %w", err)
	}

	return list, nil
}

func (r *wishlistRepository) GetByID(ctx context.Context, id int64) (*models.Wishlist, error) {
	list := &models.Wishlist{}
	err := sqlx.GetContext(ctx, r.db, list, `SELECT `+wishlistColumns+` FROM wishlists WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}
	return list, nil
}

func (r *wishlistRepository) List(ctx context.Context) ([]*models.Wishlist, error) {
	var lists []*models.Wishlist
	if err := sqlx.SelectContext(ctx, r.db, &lists, `SELECT `+wishlistColumns+` FROM wishlists ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list wishlists: %w", err)
	}
	return lists, nil
}

func (r *wishlistRepository) Update(ctx context.Context, list *models.Wishlist) (*models.Wishlist, error) {
	query := `UPDATE wishlists SET name=$2, description=$3, image=$4, updated_at=$5 WHERE id=$1 RETURNING updated_at`

	list.UpdatedAt = time.Now()
	err := r.db.QueryRowxContext(ctx, query, list.ID, list.Name, list.Description, list.Image, list.UpdatedAt).Scan(&list.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update wishlist: %w", err)
	}
	return list, nil
}

func (r *wishlistRepository) ReplaceItems(ctx context.Context, listID int64, wishIDs []int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE wishlist_id = $1`, listID); err != nil {
		return fmt.Errorf("failed to clear wishlist items: %w", err)
	}
	if len(wishIDs) == 0 {
		return nil
	}

	// Key-share locks keep the referenced wishes alive until commit; a wish
	// deleted in the meantime is skipped.
	query := `
		WITH kept AS (
			SELECT item.wish_id, item.position
			FROM unnest($2::bigint[]) WITH ORDINALITY AS item(wish_id, position)
			JOIN wishes w ON w.id = item.wish_id
			FOR KEY SHARE OF w
		)
		INSERT INTO wishlist_items (wishlist_id, wish_id, position)
		SELECT $1, wish_id, position FROM kept`
	if _, err := r.db.ExecContext(ctx, query, listID, pq.Array(wishIDs)); err != nil {
		return fmt.Errorf("failed to insert wishlist items: %w", err)
	}
	return nil
}

func (r *wishlistRepository) ItemIDs(ctx context.Context, listIDs []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64, len(listIDs))
	if len(listIDs) == 0 {
		return result, nil
	}

	query := `SELECT wishlist_id, wish_id FROM wishlist_items
		WHERE wishlist_id = ANY($1)
		ORDER BY wishlist_id, position`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(listIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var listID, wishID int64
		if err := rows.Scan(&listID, &wishID); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		result[listID] = append(result[listID], wishID)
	}
	return result, rows.Err()
}

func (r *wishlistRepository) RemoveWish(ctx context.Context, wishID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE wish_id = $1`, wishID); err != nil {
		return fmt.Errorf("failed to remove wish %d from wishlists: %w", wishID, err)
	}
	return nil
}

func (r *wishlistRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE wishlist_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete wishlist items: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM wishlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete wishlist: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("wishlist %d not found", id)
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Kerhoff/wishfund/internal/repository"
)

const uniqueViolation = "23505"

var (
	_ repository.Store              = (*Store)(nil)
	_ repository.UserRepository     = (*userRepository)(nil)
	_ repository.WishRepository     = (*wishRepository)(nil)
	_ repository.OfferRepository    = (*offerRepository)(nil)
	_ repository.WishlistRepository = (*wishlistRepository)(nil)
)

// Store is the PostgreSQL implementation of repository.Store.
type Store struct {
	db *sqlx.DB
	repositories
}

// NewStore wraps an open PostgreSQL connection pool.
func NewStore(db *sql.DB) *Store {
	x := sqlx.NewDb(db, "postgres")
	return &Store{db: x, repositories: newRepositories(x)}
}

// Atomic runs fn inside a single database transaction.
func (s *Store) Atomic(ctx context.Context, fn func(tx repository.Repositories) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(newRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// repositories binds every repository to the same connection or transaction.
type repositories struct {
	users     *userRepository
	wishes    *wishRepository
	offers    *offerRepository
	wishlists *wishlistRepository
}

func newRepositories(db sqlx.ExtContext) repositories {
	return repositories{
		users:     &userRepository{db: db},
		wishes:    &wishRepository{db: db},
		offers:    &offerRepository{db: db},
		wishlists: &wishlistRepository{db: db},
	}
}

func (r repositories) Users() repository.UserRepository         { return r.users }
func (r repositories) Wishes() repository.WishRepository        { return r.wishes }
func (r repositories) Offers() repository.OfferRepository       { return r.offers }
func (r repositories) Wishlists() repository.WishlistRepository { return r.wishlists }

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

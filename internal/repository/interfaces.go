package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Kerhoff/wishfund/internal/models"
)

// ErrDuplicate is returned when an insert or update violates a uniqueness
// constraint (username or email).
var ErrDuplicate = errors.New("duplicate key")

// Lookups return (nil, nil) when the row does not exist.

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// FindTaken returns a user other than excludeID holding the username or email.
	FindTaken(ctx context.Context, username, email string, excludeID int64) (*models.User, error)
	// Search matches the query exactly against username or email.
	Search(ctx context.Context, query string) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
}

// WishRepository defines the interface for wish data operations
type WishRepository interface {
	Create(ctx context.Context, wish *models.Wish) (*models.Wish, error)
	GetByID(ctx context.Context, id int64) (*models.Wish, error)
	// GetForUpdate reads the wish and locks its row until the surrounding
	// transaction ends. Outside a transaction it behaves like GetByID.
	GetForUpdate(ctx context.Context, id int64) (*models.Wish, error)
	Find(ctx context.Context, filters WishFilters) ([]*models.Wish, error)
	// Update persists the descriptive fields only.
	Update(ctx context.Context, wish *models.Wish) (*models.Wish, error)
	SetRaised(ctx context.Context, id int64, raised decimal.Decimal) error
	IncrementCopied(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// OfferRepository defines the interface for offer data operations
type OfferRepository interface {
	Create(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	GetByID(ctx context.Context, id int64) (*models.Offer, error)
	Find(ctx context.Context, filters OfferFilters) ([]*models.Offer, error)
	Update(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	Delete(ctx context.Context, id int64) error
	DeleteByWish(ctx context.Context, wishID int64) error
	CountForWish(ctx context.Context, wishID int64) (int, error)
	SumForWish(ctx context.Context, wishID int64) (decimal.Decimal, error)
}

// WishlistRepository defines the interface for wishlist operations
type WishlistRepository interface {
	Create(ctx context.Context, list *models.Wishlist) (*models.Wishlist, error)
	GetByID(ctx context.Context, id int64) (*models.Wishlist, error)
	List(ctx context.Context) ([]*models.Wishlist, error)
	// Update persists the scalar fields only.
	Update(ctx context.Context, list *models.Wishlist) (*models.Wishlist, error)
	// ReplaceItems makes wishIDs, in order, the complete item set of the list.
	// Ids of wishes that no longer exist are skipped.
	ReplaceItems(ctx context.Context, listID int64, wishIDs []int64) error
	// ItemIDs returns the ordered item ids of each requested list.
	ItemIDs(ctx context.Context, listIDs []int64) (map[int64][]int64, error)
	// RemoveWish drops the wish from every list that references it.
	RemoveWish(ctx context.Context, wishID int64) error
	// Delete removes the list and its item associations.
	Delete(ctx context.Context, id int64) error
}

// Repositories groups the repositories that share one connection or
// transaction.
type Repositories interface {
	Users() UserRepository
	Wishes() WishRepository
	Offers() OfferRepository
	Wishlists() WishlistRepository
}

// Store is the relational store. Atomic runs fn in a single transaction:
// every write made through the passed repositories commits together when fn
// returns nil and is rolled back otherwise.
type Store interface {
	Repositories
	Atomic(ctx context.Context, fn func(tx Repositories) error) error
	Close() error
}

// WishOrder selects the ordering of a wish listing
type WishOrder int

const (
	OrderNone WishOrder = iota
	OrderNewest
	OrderMostCopied
)

// WishFilters represents filters for querying wishes
type WishFilters struct {
	OwnerID *int64
	IDs     []int64
	Order   WishOrder
	Limit   int
}

// OfferFilters represents filters for querying offers
type OfferFilters struct {
	ID      *int64
	WishID  *int64
	WishIDs []int64
	UserID  *int64
	Hidden  *bool
	Amount  *decimal.Decimal
}

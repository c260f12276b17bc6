// Package memory is an in-process implementation of repository.Store used
// by tests and by STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/repository"
)

// dataset is the full contents of the store.
type dataset struct {
	users     map[int64]*models.User
	wishes    map[int64]*models.Wish
	offers    map[int64]*models.Offer
	wishlists map[int64]*models.Wishlist
	items     map[int64][]int64

	nextUser, nextWish, nextOffer, nextWishlist int64
}

func newDataset() *dataset {
	return &dataset{
		users:     make(map[int64]*models.User),
		wishes:    make(map[int64]*models.Wish),
		offers:    make(map[int64]*models.Offer),
		wishlists: make(map[int64]*models.Wishlist),
		items:     make(map[int64][]int64),
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		users:        make(map[int64]*models.User, len(d.users)),
		wishes:       make(map[int64]*models.Wish, len(d.wishes)),
		offers:       make(map[int64]*models.Offer, len(d.offers)),
		wishlists:    make(map[int64]*models.Wishlist, len(d.wishlists)),
		items:        make(map[int64][]int64, len(d.items)),
		nextUser:     d.nextUser,
		nextWish:     d.nextWish,
		nextOffer:    d.nextOffer,
		nextWishlist: d.nextWishlist,
	}
	for id, u := range d.users {
		c.users[id] = copyUser(u)
	}
	for id, w := range d.wishes {
		c.wishes[id] = copyWish(w)
	}
	for id, o := range d.offers {
		c.offers[id] = copyOffer(o)
	}
	for id, l := range d.wishlists {
		c.wishlists[id] = copyWishlist(l)
	}
	for id, ids := range d.items {
		c.items[id] = append([]int64(nil), ids...)
	}
	return c
}

// Store keeps every record in maps guarded by a single mutex. Atomic runs
// against a private copy of the data that replaces the live data only when
// the callback succeeds.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

func (s *Store) Users() repository.UserRepository         { return &userRepository{s: s} }
func (s *Store) Wishes() repository.WishRepository        { return &wishRepository{s: s} }
func (s *Store) Offers() repository.OfferRepository       { return &offerRepository{s: s} }
func (s *Store) Wishlists() repository.WishlistRepository { return &wishlistRepository{s: s} }

// Atomic holds the store lock for the whole callback, so concurrent
// transactions are serialized.
func (s *Store) Atomic(ctx context.Context, fn func(tx repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.data.clone()
	if err := fn(&txRepositories{tx: &txState{data: work}}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) Close() error { return nil }

// view runs fn with the live data under the store lock.
func (s *Store) view(fn func(d *dataset)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

// txState is a dataset already owned by a running transaction.
type txState struct {
	data *dataset
}

func (t *txState) view(fn func(d *dataset)) { fn(t.data) }

type txRepositories struct {
	tx *txState
}

func (r *txRepositories) Users() repository.UserRepository         { return &userRepository{s: r.tx} }
func (r *txRepositories) Wishes() repository.WishRepository        { return &wishRepository{s: r.tx} }
func (r *txRepositories) Offers() repository.OfferRepository       { return &offerRepository{s: r.tx} }
func (r *txRepositories) Wishlists() repository.WishlistRepository { return &wishlistRepository{s: r.tx} }

// viewer abstracts the locked live store and an in-flight transaction.
type viewer interface {
	view(fn func(d *dataset))
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyWish(w *models.Wish) *models.Wish {
	c := *w
	c.Owner = nil
	c.Offers = nil
	return &c
}

func copyOffer(o *models.Offer) *models.Offer {
	c := *o
	c.Item = nil
	c.User = nil
	return &c
}

func copyWishlist(l *models.Wishlist) *models.Wishlist {
	c := *l
	if l.Description != nil {
		d := *l.Description
		c.Description = &d
	}
	if l.Image != nil {
		i := *l.Image
		c.Image = &i
	}
	c.ItemIDs = nil
	c.Owner = nil
	c.Items = nil
	return &c
}

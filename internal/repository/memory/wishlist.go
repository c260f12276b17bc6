package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Kerhoff/wishfund/internal/models"
)

type wishlistRepository struct {
	s viewer
}

func (r *wishlistRepository) Create(ctx context.Context, list *models.Wishlist) (*models.Wishlist, error) {
	r.s.view(func(d *dataset) {
		d.nextWishlist++
		now := time.Now()
		list.ID = d.nextWishlist
		list.CreatedAt = now
		list.UpdatedAt = now
		d.wishlists[list.ID] = copyWishlist(list)
	})
	return list, nil
}

func (r *wishlistRepository) GetByID(ctx context.Context, id int64) (*models.Wishlist, error) {
	var list *models.Wishlist
	r.s.view(func(d *dataset) {
		if l, ok := d.wishlists[id]; ok {
			list = copyWishlist(l)
		}
	})
	return list, nil
}

func (r *wishlistRepository) List(ctx context.Context) ([]*models.Wishlist, error) {
	var lists []*models.Wishlist
	r.s.view(func(d *dataset) {
		for _, l := range d.wishlists {
			lists = append(lists, copyWishlist(l))
		}
	})
	sort.Slice(lists, func(i, j int) bool { return lists[i].ID < lists[j].ID })
	return lists, nil
}

func (r *wishlistRepository) Update(ctx context.Context, list *models.Wishlist) (*models.Wishlist, error) {
	var found bool
	r.s.view(func(d *dataset) {
		stored, ok := d.wishlists[list.ID]
		if !ok {
			return
		}
		found = true
		list.UpdatedAt = time.Now()
		updated := copyWishlist(list)
		updated.OwnerID = stored.OwnerID
		updated.CreatedAt = stored.CreatedAt
		d.wishlists[list.ID] = updated
	})
	if !found {
		return nil, nil
	}
	return list, nil
}

func (r *wishlistRepository) ReplaceItems(ctx context.Context, listID int64, wishIDs []int64) error {
	var err error
	r.s.view(func(d *dataset) {
		if _, ok := d.wishlists[listID]; !ok {
			err = fmt.Errorf("wishlist %d not found", listID)
			return
		}
		kept := make([]int64, 0, len(wishIDs))
		for _, id := range wishIDs {
			if _, ok := d.wishes[id]; ok {
				kept = append(kept, id)
			}
		}
		d.items[listID] = kept
	})
	return err
}

func (r *wishlistRepository) ItemIDs(ctx context.Context, listIDs []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64, len(listIDs))
	r.s.view(func(d *dataset) {
		for _, id := range listIDs {
			if ids, ok := d.items[id]; ok && len(ids) > 0 {
				result[id] = append([]int64(nil), ids...)
			}
		}
	})
	return result, nil
}

func (r *wishlistRepository) RemoveWish(ctx context.Context, wishID int64) error {
	r.s.view(func(d *dataset) {
		removeFromLists(d, wishID)
	})
	return nil
}

func (r *wishlistRepository) Delete(ctx context.Context, id int64) error {
	var found bool
	r.s.view(func(d *dataset) {
		if _, found = d.wishlists[id]; found {
			delete(d.wishlists, id)
			delete(d.items, id)
		}
	})
	if !found {
		return fmt.Errorf("wishlist %d not found", id)
	}
	return nil
}

func removeFromLists(d *dataset, wishID int64) {
	for listID, ids := range d.items {
		kept := ids[:0]
		for _, id := range ids {
			if id != wishID {
				kept = append(kept, id)
			}
		}
		d.items[listID] = kept
	}
}

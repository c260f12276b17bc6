package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/repository"
)

type wishRepository struct {
	s viewer
}

func (r *wishRepository) Create(ctx context.Context, wish *models.Wish) (*models.Wish, error) {
	r.s.view(func(d *dataset) {
		d.nextWish++
		now := time.Now()
		wish.ID = d.nextWish
		wish.CreatedAt = now
		wish.UpdatedAt = now
		d.wishes[wish.ID] = copyWish(wish)
	})
	return wish, nil
}

func (r *wishRepository) GetByID(ctx context.Context, id int64) (*models.Wish, error) {
	var wish *models.Wish
	r.s.view(func(d *dataset) {
		if w, ok := d.wishes[id]; ok {
			wish = copyWish(w)
		}
	})
	return wish, nil
}

// GetForUpdate needs no row lock: transactions already hold the store lock.
func (r *wishRepository) GetForUpdate(ctx context.Context, id int64) (*models.Wish, error) {
	return r.GetByID(ctx, id)
}

func (r *wishRepository) Find(ctx context.Context, filters repository.WishFilters) ([]*models.Wish, error) {
	var wishes []*models.Wish
	r.s.view(func(d *dataset) {
		var ids map[int64]bool
		if filters.IDs != nil {
			ids = make(map[int64]bool, len(filters.IDs))
			for _, id := range filters.IDs {
				ids[id] = true
			}
		}
		for _, w := range d.wishes {
			if filters.OwnerID != nil && w.OwnerID != *filters.OwnerID {
				continue
			}
			if ids != nil && !ids[w.ID] {
				continue
			}
			wishes = append(wishes, copyWish(w))
		}
	})

	sort.Slice(wishes, func(i, j int) bool {
		a, b := wishes[i], wishes[j]
		switch filters.Order {
		case repository.OrderNewest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		case repository.OrderMostCopied:
			if a.Copied != b.Copied {
				return a.Copied > b.Copied
			}
			return a.ID < b.ID
		default:
			return a.ID < b.ID
		}
	})

	if filters.Limit > 0 && len(wishes) > filters.Limit {
		wishes = wishes[:filters.Limit]
	}
	return wishes, nil
}

func (r *wishRepository) Update(ctx context.Context, wish *models.Wish) (*models.Wish, error) {
	var found bool
	r.s.view(func(d *dataset) {
		stored, ok := d.wishes[wish.ID]
		if !ok {
			return
		}
		found = true
		stored.Name = wish.Name
		stored.Link = wish.Link
		stored.Image = wish.Image
		stored.Price = wish.Price
		stored.Description = wish.Description
		stored.UpdatedAt = time.Now()
		wish.UpdatedAt = stored.UpdatedAt
	})
	if !found {
		return nil, nil
	}
	return wish, nil
}

func (r *wishRepository) SetRaised(ctx context.Context, id int64, raised decimal.Decimal) error {
	return r.mutate(id, func(w *models.Wish) {
		w.Raised = raised
		w.UpdatedAt = time.Now()
	})
}

func (r *wishRepository) IncrementCopied(ctx context.Context, id int64) error {
	return r.mutate(id, func(w *models.Wish) {
		w.Copied++
	})
}

func (r *wishRepository) mutate(id int64, fn func(w *models.Wish)) error {
	var found bool
	r.s.view(func(d *dataset) {
		if w, ok := d.wishes[id]; ok {
			found = true
			fn(w)
		}
	})
	if !found {
		return fmt.Errorf("wish %d not found", id)
	}
	return nil
}

// Delete mirrors the ON DELETE CASCADE foreign keys of the relational schema.
func (r *wishRepository) Delete(ctx context.Context, id int64) error {
	var found bool
	r.s.view(func(d *dataset) {
		if _, found = d.wishes[id]; !found {
			return
		}
		delete(d.wishes, id)
		for oid, o := range d.offers {
			if o.WishID == id {
				delete(d.offers, oid)
			}
		}
		removeFromLists(d, id)
	})
	if !found {
		return fmt.Errorf("wish %d not found", id)
	}
	return nil
}

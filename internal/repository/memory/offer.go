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

type offerRepository struct {
	s viewer
}

func (r *offerRepository) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	var err error
	r.s.view(func(d *dataset) {
		if _, ok := d.wishes[offer.WishID]; !ok {
			err = fmt.Errorf("failed to create offer: wish %d not found", offer.WishID)
			return
		}
		if _, ok := d.users[offer.UserID]; !ok {
			err = fmt.Errorf("failed to create offer: user %d not found", offer.UserID)
			return
		}
		d.nextOffer++
		now := time.Now()
		offer.ID = d.nextOffer
		offer.CreatedAt = now
		offer.UpdatedAt = now
		d.offers[offer.ID] = copyOffer(offer)
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

func (r *offerRepository) GetByID(ctx context.Context, id int64) (*models.Offer, error) {
	var offer *models.Offer
	r.s.view(func(d *dataset) {
		if o, ok := d.offers[id]; ok {
			offer = copyOffer(o)
		}
	})
	return offer, nil
}

func (r *offerRepository) Find(ctx context.Context, filters repository.OfferFilters) ([]*models.Offer, error) {
	var offers []*models.Offer
	r.s.view(func(d *dataset) {
		var wishIDs map[int64]bool
		if filters.WishIDs != nil {
			wishIDs = make(map[int64]bool, len(filters.WishIDs))
			for _, id := range filters.WishIDs {
				wishIDs[id] = true
			}
		}
		for _, o := range d.offers {
			if filters.ID != nil && o.ID != *filters.ID {
				continue
			}
			if filters.WishID != nil && o.WishID != *filters.WishID {
				continue
			}
			if wishIDs != nil && !wishIDs[o.WishID] {
				continue
			}
			if filters.UserID != nil && o.UserID != *filters.UserID {
				continue
			}
			if filters.Hidden != nil && o.Hidden != *filters.Hidden {
				continue
			}
			if filters.Amount != nil && !o.Amount.Equal(*filters.Amount) {
				continue
			}
			offers = append(offers, copyOffer(o))
		}
	})
	sort.Slice(offers, func(i, j int) bool { return offers[i].ID < offers[j].ID })
	return offers, nil
}

func (r *offerRepository) Update(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	var found bool
	r.s.view(func(d *dataset) {
		stored, ok := d.offers[offer.ID]
		if !ok {
			return
		}
		found = true
		stored.Amount = offer.Amount
		stored.Hidden = offer.Hidden
		stored.UpdatedAt = time.Now()
		offer.UpdatedAt = stored.UpdatedAt
	})
	if !found {
		return nil, nil
	}
	return offer, nil
}

func (r *offerRepository) Delete(ctx context.Context, id int64) error {
	var found bool
	r.s.view(func(d *dataset) {
		if _, found = d.offers[id]; found {
			delete(d.offers, id)
		}
	})
	if !found {
		return fmt.Errorf("offer %d not found", id)
	}
	return nil
}

func (r *offerRepository) DeleteByWish(ctx context.Context, wishID int64) error {
	r.s.view(func(d *dataset) {
		for id, o := range d.offers {
			if o.WishID == wishID {
				delete(d.offers, id)
			}
		}
	})
	return nil
}

func (r *offerRepository) CountForWish(ctx context.Context, wishID int64) (int, error) {
	var n int
	r.s.view(func(d *dataset) {
		for _, o := range d.offers {
			if o.WishID == wishID {
				n++
			}
		}
	})
	return n, nil
}

func (r *offerRepository) SumForWish(ctx context.Context, wishID int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	r.s.view(func(d *dataset) {
		for _, o := range d.offers {
			if o.WishID == wishID {
				sum = sum.Add(o.Amount)
			}
		}
	})
	return sum, nil
}

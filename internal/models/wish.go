package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wish is a funding target. Raised always equals the sum of its offers and
// never exceeds Price.
type Wish struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Link        string          `json:"link" db:"link"`
	Image       string          `json:"image" db:"image"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Raised      decimal.Decimal `json:"raised" db:"raised"`
	Description string          `json:"description" db:"description"`
	OwnerID     int64           `json:"ownerId" db:"owner_id"`
	Copied      int             `json:"copied" db:"copied"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`

	// Resolved at read time, never persisted.
	Owner  *User    `json:"owner,omitempty" db:"-"`
	Offers []*Offer `json:"offers,omitempty" db:"-"`
}

// Remaining returns how much can still be pledged before the wish is fully funded.
func (w *Wish) Remaining() decimal.Decimal {
	return w.Price.Sub(w.Raised)
}

// IsFunded returns true once the raised amount has reached the price.
func (w *Wish) IsFunded() bool {
	return w.Raised.GreaterThanOrEqual(w.Price)
}

// WishPatch carries the descriptive fields an owner may change. Nil fields
// are left untouched.
type WishPatch struct {
	Name        *string
	Link        *string
	Image       *string
	Price       *decimal.Decimal
	Description *string
}

// Apply merges the patch into the wish.
func (p WishPatch) Apply(w *Wish) {
	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Link != nil {
		w.Link = *p.Link
	}
	if p.Image != nil {
		w.Image = *p.Image
	}
	if p.Price != nil {
		w.Price = *p.Price
	}
	if p.Description != nil {
		w.Description = *p.Description
	}
}

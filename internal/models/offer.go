package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer is a pledge by a user toward someone else's wish.
type Offer struct {
	ID        int64           `json:"id" db:"id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Hidden    bool            `json:"hidden" db:"hidden"`
	WishID    int64           `json:"itemId" db:"wish_id"`
	UserID    int64           `json:"userId,omitempty" db:"user_id"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`

	// Resolved at read time, never persisted.
	Item *Wish `json:"item,omitempty" db:"-"`
	User *User `json:"user,omitempty" db:"-"`
}

// Masked returns a copy of a hidden offer with the contributor removed.
// Visible offers are returned unchanged.
func (o *Offer) Masked() *Offer {
	if !o.Hidden {
		return o
	}
	c := *o
	c.UserID = 0
	c.User = nil
	return &c
}

// OfferPatch carries the fields a contributor may change.
type OfferPatch struct {
	Amount *decimal.Decimal
	Hidden *bool
}

// Apply merges the patch into the offer.
func (p OfferPatch) Apply(o *Offer) {
	if p.Amount != nil {
		o.Amount = *p.Amount
	}
	if p.Hidden != nil {
		o.Hidden = *p.Hidden
	}
}

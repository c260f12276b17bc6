package models

import "time"

// Wishlist is a named, owner-curated collection of wishes.
type Wishlist struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	Image       *string   `json:"image" db:"image"`
	OwnerID     int64     `json:"ownerId" db:"owner_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	// ItemIDs is the ordered set of referenced wishes.
	ItemIDs []int64 `json:"-" db:"-"`

	// Resolved at read time, never persisted.
	Owner *User   `json:"owner,omitempty" db:"-"`
	Items []*Wish `json:"items" db:"-"`
}

// WishlistPatch carries the scalar fields of a wishlist update. The item set
// is replaced through a separate operation.
type WishlistPatch struct {
	Name        *string
	Description *string
	Image       *string
}

// Apply merges the scalar patch into the wishlist.
func (p WishlistPatch) Apply(l *Wishlist) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Description != nil {
		l.Description = p.Description
	}
	if p.Image != nil {
		l.Image = p.Image
	}
}

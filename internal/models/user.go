package models

import "time"

const (
	DefaultAbout  = "Пока ничего не рассказал о себе"
	DefaultAvatar = "https://i.pravatar.cc/300"
)

// User represents a registered account. It owns wishes, offers and wishlists.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email,omitempty" db:"email"`
	About     string    `json:"about" db:"about"`
	Avatar    string    `json:"avatar" db:"avatar"`
	Password  string    `json:"-" db:"password"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// PublicProfile is the shape of a user shown to other users.
type PublicProfile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	About     string    `json:"about"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public strips private fields from the user.
func (u *User) Public() *PublicProfile {
	return &PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		About:     u.About,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Sanitized returns a copy without the password hash and email, suitable
// for embedding as the owner or contributor of another resource.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Password = ""
	c.Email = ""
	return &c
}

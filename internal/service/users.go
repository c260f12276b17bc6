package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishfund/internal/auth"
	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/repository"
	"github.com/Kerhoff/wishfund/pkg/apperrors"
)

// SignupInput holds the fields of a new account.
type SignupInput struct {
	Username string
	Email    string
	Password string
	About    string
	Avatar   string
}

// UserPatch carries the profile fields a user may change. Nil fields are left
// untouched.
type UserPatch struct {
	Username *string
	Email    *string
	Password *string
	About    *string
	Avatar   *string
}

// UserDirectory manages accounts and profiles.
type UserDirectory struct {
	store    repository.Store
	logger   *logrus.Logger
	hasher   *auth.Hasher
	registry *WishRegistry
}

// Register creates an account. The username and the email must both be free.
func (d *UserDirectory) Register(ctx context.Context, in SignupInput) (*models.User, error) {
	taken, err := d.store.Users().FindTaken(ctx, in.Username, in.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken != nil {
		return nil, apperrors.Conflict("a user with this username or email already exists")
	}

	hash, err := d.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		About:    in.About,
		Avatar:   in.Avatar,
		Password: hash,
	}
	if user.About == "" {
		user.About = models.DefaultAbout
	}
	if user.Avatar == "" {
		user.Avatar = models.DefaultAvatar
	}

	user, err = d.store.Users().Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("a user with this username or email already exists")
		}
		return nil, fmt.Errorf("failed to create user %s: %w", in.Username, err)
	}

	d.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User registered")

	return user, nil
}

// FindOwn returns the full profile of username, email included.
func (d *UserDirectory) FindOwn(ctx context.Context, username string) (*models.User, error) {
	return userByUsername(ctx, d.store, username)
}

// FindPublic returns the profile of username as other users see it.
func (d *UserDirectory) FindPublic(ctx context.Context, username string) (*models.PublicProfile, error) {
	user, err := userByUsername(ctx, d.store, username)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// UpdateOwn applies patch to the profile of username.
func (d *UserDirectory) UpdateOwn(ctx context.Context, username string, patch UserPatch) (*models.User, error) {
	user, err := userByUsername(ctx, d.store, username)
	if err != nil {
		return nil, err
	}

	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.About != nil {
		user.About = *patch.About
	}
	if patch.Avatar != nil {
		user.Avatar = *patch.Avatar
	}

	if patch.Username != nil || patch.Email != nil {
		taken, err := d.store.Users().FindTaken(ctx, user.Username, user.Email, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if taken != nil {
			return nil, apperrors.Conflict("a user with this username or email already exists")
		}
	}

	if patch.Password != nil {
		if user.Password, err = d.hasher.Hash(*patch.Password); err != nil {
			return nil, err
		}
	}

	updated, err := d.store.Users().Update(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("a user with this username or email already exists")
		}
		return nil, fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}
	if updated == nil {
		return nil, apperrors.NotFound("user not found")
	}

	d.logger.WithFields(logrus.Fields{
		"user_id":  updated.ID,
		"username": updated.Username,
	}).Info("User profile updated")

	return updated, nil
}

// WishesOf returns the wishes owned by username.
func (d *UserDirectory) WishesOf(ctx context.Context, username string) ([]*models.Wish, error) {
	user, err := userByUsername(ctx, d.store, username)
	if err != nil {
		return nil, err
	}
	return d.registry.FindMany(ctx, repository.WishFilters{OwnerID: &user.ID})
}

// Search returns the users whose username or email equals query.
func (d *UserDirectory) Search(ctx context.Context, query string) ([]*models.User, error) {
	users, err := d.store.Users().Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

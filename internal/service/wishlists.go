package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/repository"
	"github.com/Kerhoff/wishfund/pkg/apperrors"
)

// WishlistInput holds the fields of a new wishlist.
type WishlistInput struct {
	Name        string
	Description *string
	Image       *string
	ItemIDs     []int64
}

// WishlistCurator owns named collections of existing wishes.
type WishlistCurator struct {
	store  repository.Store
	logger *logrus.Logger
}

// Create stores a wishlist for the owner. Item ids that do not name an
// existing wish are dropped; repeated ids keep their first position.
func (c *WishlistCurator) Create(ctx context.Context, in WishlistInput, ownerUsername string) (*models.Wishlist, error) {
	var list *models.Wishlist
	err := c.store.Atomic(ctx, func(tx repository.Repositories) error {
		owner, err := userByUsername(ctx, tx, ownerUsername)
		if err != nil {
			return err
		}

		list, err = tx.Wishlists().Create(ctx, &models.Wishlist{
			Name:        in.Name,
			Description: in.Description,
			Image:       in.Image,
			OwnerID:     owner.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to create wishlist: %w", err)
		}

		return c.replaceItems(ctx, tx, list.ID, in.ItemIDs)
	})
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"wishlist_id": list.ID,
		"username":    ownerUsername,
	}).Info("Wishlist created")

	return c.FindOne(ctx, list.ID)
}

// FindOne returns the wishlist with its owner and items.
func (c *WishlistCurator) FindOne(ctx context.Context, id int64) (*models.Wishlist, error) {
	list, err := c.store.Wishlists().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get wishlist %d: %w", id, err)
	}
	if list == nil {
		return nil, apperrors.NotFound("wishlist not found")
	}
	if err := resolveWishlists(ctx, c.store, []*models.Wishlist{list}); err != nil {
		return nil, err
	}
	return list, nil
}

// FindMany returns every wishlist, resolved like FindOne.
func (c *WishlistCurator) FindMany(ctx context.Context) ([]*models.Wishlist, error) {
	lists, err := c.store.Wishlists().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlists: %w", err)
	}
	if err := resolveWishlists(ctx, c.store, lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// Update merges the scalar fields of patch. When itemIDs is non-nil the
// item set is replaced with it as a whole.
func (c *WishlistCurator) Update(ctx context.Context, id int64, patch models.WishlistPatch, itemIDs []int64, actorUsername string) (*models.Wishlist, error) {
	err := c.store.Atomic(ctx, func(tx repository.Repositories) error {
		list, err := c.ownList(ctx, tx, id, actorUsername)
		if err != nil {
			return err
		}

		patch.Apply(list)
		if _, err := tx.Wishlists().Update(ctx, list); err != nil {
			return fmt.Errorf("failed to update wishlist %d: %w", id, err)
		}

		if itemIDs == nil {
			return nil
		}
		return c.replaceItems(ctx, tx, id, itemIDs)
	})
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"wishlist_id":    id,
		"username":       actorUsername,
		"items_replaced": itemIDs != nil,
	}).Info("Wishlist updated")

	return c.FindOne(ctx, id)
}

// ReplaceItems makes wishIDs the complete item set of the wishlist. Ids
// absent from wishIDs are dropped even if they were present before.
func (c *WishlistCurator) ReplaceItems(ctx context.Context, id int64, wishIDs []int64, actorUsername string) (*models.Wishlist, error) {
	err := c.store.Atomic(ctx, func(tx repository.Repositories) error {
		if _, err := c.ownList(ctx, tx, id, actorUsername); err != nil {
			return err
		}
		return c.replaceItems(ctx, tx, id, wishIDs)
	})
	if err != nil {
		return nil, err
	}
	return c.FindOne(ctx, id)
}

func (c *WishlistCurator) replaceItems(ctx context.Context, tx repository.Repositories, id int64, wishIDs []int64) error {
	requested := uniqueIDs(wishIDs)

	resolved := make([]int64, 0, len(requested))
	if len(requested) > 0 {
		wishes, err := tx.Wishes().Find(ctx, repository.WishFilters{IDs: requested})
		if err != nil {
			return fmt.Errorf("failed to resolve wishlist items: %w", err)
		}
		existing := make(map[int64]bool, len(wishes))
		for _, w := range wishes {
			existing[w.ID] = true
		}
		for _, wishID := range requested {
			if existing[wishID] {
				resolved = append(resolved, wishID)
			}
		}
	}

	if dropped := len(requested) - len(resolved); dropped > 0 {
		c.logger.WithFields(logrus.Fields{
			"wishlist_id": id,
			"dropped":     dropped,
		}).Debug("Unknown wish ids dropped from wishlist")
	}

	if err := tx.Wishlists().ReplaceItems(ctx, id, resolved); err != nil {
		return fmt.Errorf("failed to replace items of wishlist %d: %w", id, err)
	}
	return nil
}

// Remove deletes the owner's wishlist and its item associations. The wishes
// themselves are kept.
func (c *WishlistCurator) Remove(ctx context.Context, id int64, actorUsername string) (*models.Wishlist, error) {
	removed, err := c.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	err = c.store.Atomic(ctx, func(tx repository.Repositories) error {
		if _, err := c.ownList(ctx, tx, id, actorUsername); err != nil {
			return err
		}
		return tx.Wishlists().Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"wishlist_id": id,
		"username":    actorUsername,
	}).Info("Wishlist deleted")

	return removed, nil
}

// ValidateOwner fails NotFound for an unknown wishlist and Forbidden when
// actorUsername does not own it.
func (c *WishlistCurator) ValidateOwner(ctx context.Context, id int64, actorUsername string) error {
	_, err := c.ownList(ctx, c.store, id, actorUsername)
	return err
}

func (c *WishlistCurator) ownList(ctx context.Context, repos repository.Repositories, id int64, actorUsername string) (*models.Wishlist, error) {
	list, err := repos.Wishlists().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get wishlist %d: %w", id, err)
	}
	if list == nil {
		return nil, apperrors.NotFound("wishlist not found")
	}

	actor, err := userByUsername(ctx, repos, actorUsername)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(list.OwnerID, actor, "you can only change your own wishlists"); err != nil {
		return nil, err
	}
	return list, nil
}

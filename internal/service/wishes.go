package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishfund/internal/metrics"
	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/repository"
	"github.com/Kerhoff/wishfund/pkg/apperrors"
)

const (
	LastWishesLimit = 40
	TopWishesLimit  = 10
)

// WishInput holds the descriptive fields of a new wish.
type WishInput struct {
	Name        string
	Link        string
	Image       string
	Price       decimal.Decimal
	Description string
}

// WishRegistry owns wish records and their raised amount.
type WishRegistry struct {
	store   repository.Store
	logger  *logrus.Logger
	metrics *metrics.Metrics
	ledger  *OfferLedger
}

// Create publishes a new wish for the owner with nothing raised yet.
func (r *WishRegistry) Create(ctx context.Context, in WishInput, ownerUsername string) (*models.Wish, error) {
	owner, err := userByUsername(ctx, r.store, ownerUsername)
	if err != nil {
		return nil, err
	}

	wish, err := r.store.Wishes().Create(ctx, &models.Wish{
		Name:        in.Name,
		Link:        in.Link,
		Image:       in.Image,
		Price:       in.Price,
		Raised:      decimal.Zero,
		Description: in.Description,
		OwnerID:     owner.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create wish for %s: %w", ownerUsername, err)
	}

	r.logger.WithFields(logrus.Fields{
		"wish_id":  wish.ID,
		"username": ownerUsername,
	}).Info("Wish created")

	return r.FindOne(ctx, wish.ID)
}

// FindOne returns the wish with its owner, offers and contributors.
func (r *WishRegistry) FindOne(ctx context.Context, id int64) (*models.Wish, error) {
	wish, err := r.store.Wishes().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get wish %d: %w", id, err)
	}
	if wish == nil {
		return nil, apperrors.NotFound("wish not found")
	}
	if err := resolveWishes(ctx, r.store, []*models.Wish{wish}); err != nil {
		return nil, err
	}
	return wish, nil
}

// FindMany returns every wish matching filters, resolved like FindOne.
func (r *WishRegistry) FindMany(ctx context.Context, filters repository.WishFilters) ([]*models.Wish, error) {
	wishes, err := r.store.Wishes().Find(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to find wishes: %w", err)
	}
	if err := resolveWishes(ctx, r.store, wishes); err != nil {
		return nil, err
	}
	return wishes, nil
}

// FindLast returns the most recently created wishes, newest first.
func (r *WishRegistry) FindLast(ctx context.Context) ([]*models.Wish, error) {
	return r.FindMany(ctx, repository.WishFilters{Order: repository.OrderNewest, Limit: LastWishesLimit})
}

// FindTop returns the most copied wishes.
func (r *WishRegistry) FindTop(ctx context.Context) ([]*models.Wish, error) {
	return r.FindMany(ctx, repository.WishFilters{Order: repository.OrderMostCopied, Limit: TopWishesLimit})
}

// Update merges the descriptive fields of patch into the owner's wish.
// The price may not drop below what has already been raised.
func (r *WishRegistry) Update(ctx context.Context, id int64, patch models.WishPatch, actorUsername string) (*models.Wish, error) {
	err := r.store.Atomic(ctx, func(tx repository.Repositories) error {
		wish, err := tx.Wishes().GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get wish %d: %w", id, err)
		}
		if wish == nil {
			return apperrors.NotFound("wish not found")
		}

		actor, err := userByUsername(ctx, tx, actorUsername)
		if err != nil {
			return err
		}
		if err := requireOwner(wish.OwnerID, actor, "you can only edit your own wishes"); err != nil {
			return err
		}

		patch.Apply(wish)
		if wish.Price.LessThan(wish.Raised) {
			return apperrors.Forbidden("price cannot be lower than the amount already raised")
		}

		if _, err := tx.Wishes().Update(ctx, wish); err != nil {
			return fmt.Errorf("failed to update wish %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"wish_id":  id,
		"username": actorUsername,
	}).Info("Wish updated")

	return r.FindOne(ctx, id)
}

// Remove deletes the owner's wish. A wish that still has offers cannot be
// removed; the count is checked again under the row lock.
func (r *WishRegistry) Remove(ctx context.Context, id int64, actorUsername string) (*models.Wish, error) {
	wish, err := r.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	actor, err := userByUsername(ctx, r.store, actorUsername)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(wish.OwnerID, actor, "you can only delete your own wishes"); err != nil {
		return nil, err
	}

	count, err := r.ledger.CountFor(ctx, id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperrors.Forbidden("a wish with offers cannot be deleted")
	}

	err = r.store.Atomic(ctx, func(tx repository.Repositories) error {
		locked, err := tx.Wishes().GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to lock wish %d: %w", id, err)
		}
		if locked == nil {
			return apperrors.NotFound("wish not found")
		}

		count, err := tx.Offers().CountForWish(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count offers of wish %d: %w", id, err)
		}
		if count > 0 {
			return apperrors.Forbidden("a wish with offers cannot be deleted")
		}

		if err := tx.Wishlists().RemoveWish(ctx, id); err != nil {
			return err
		}
		if err := tx.Offers().DeleteByWish(ctx, id); err != nil {
			return err
		}
		return tx.Wishes().Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"wish_id":  id,
		"username": actorUsername,
	}).Info("Wish deleted")

	return wish, nil
}

// Copy duplicates the descriptive fields of a wish into the copier's
// registry and bumps the original's copied counter in the same transaction.
func (r *WishRegistry) Copy(ctx context.Context, id int64, copierUsername string) (*models.Wish, error) {
	var copied *models.Wish
	err := r.store.Atomic(ctx, func(tx repository.Repositories) error {
		original, err := tx.Wishes().GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get wish %d: %w", id, err)
		}
		if original == nil {
			return apperrors.NotFound("wish not found")
		}

		copier, err := userByUsername(ctx, tx, copierUsername)
		if err != nil {
			return err
		}

		copied, err = tx.Wishes().Create(ctx, &models.Wish{
			Name:        original.Name,
			Link:        original.Link,
			Image:       original.Image,
			Price:       original.Price,
			Raised:      decimal.Zero,
			Description: original.Description,
			OwnerID:     copier.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to copy wish %d: %w", id, err)
		}

		return tx.Wishes().IncrementCopied(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.WishesCopied.Inc()
	}
	r.logger.WithFields(logrus.Fields{
		"wish_id":  id,
		"copy_id":  copied.ID,
		"username": copierUsername,
	}).Info("Wish copied")

	return r.FindOne(ctx, copied.ID)
}

// RecomputeRaised sets the raised amount of the wish to the sum of its
// current offers, hidden ones included. It runs inside the caller's
// transaction.
func (r *WishRegistry) RecomputeRaised(ctx context.Context, tx repository.Repositories, wishID int64) (decimal.Decimal, error) {
	sum, err := tx.Offers().SumForWish(ctx, wishID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum offers of wish %d: %w", wishID, err)
	}
	if err := tx.Wishes().SetRaised(ctx, wishID, sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

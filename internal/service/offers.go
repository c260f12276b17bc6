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

// OfferInput holds the fields of a new offer.
type OfferInput struct {
	ItemID int64
	Amount decimal.Decimal
	Hidden bool
}

// OfferLedger owns offers. Every change to the offer set of a wish runs in
// one transaction holding the wish row lock and ends with a recomputation of
// the wish's raised amount.
type OfferLedger struct {
	store    repository.Store
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	registry *WishRegistry
	strict   bool
}

// Create pledges amount toward someone else's wish. The pledge is refused
// when it would take the raised amount past the price.
func (l *OfferLedger) Create(ctx context.Context, in OfferInput, contributorUsername string) (*models.Offer, error) {
	if !in.Amount.IsPositive() {
		return nil, apperrors.Validation("amount must be positive", nil)
	}

	var (
		offer  *models.Offer
		raised decimal.Decimal
		reason string
	)
	err := l.store.Atomic(ctx, func(tx repository.Repositories) error {
		wish, err := tx.Wishes().GetForUpdate(ctx, in.ItemID)
		if err != nil {
			return fmt.Errorf("failed to lock wish %d: %w", in.ItemID, err)
		}
		if wish == nil {
			return apperrors.NotFound("wish not found")
		}

		owner, err := tx.Users().GetByID(ctx, wish.OwnerID)
		if err != nil {
			return fmt.Errorf("failed to get owner of wish %d: %w", wish.ID, err)
		}
		if owner != nil && owner.Username == contributorUsername {
			reason = metrics.ReasonSelfFunding
			return apperrors.Forbidden("you cannot fund your own wish")
		}

		if wish.Raised.Add(in.Amount).GreaterThan(wish.Price) {
			reason = metrics.ReasonOverfunding
			return apperrors.Forbidden(fmt.Sprintf("the offer exceeds the remaining amount of %s", wish.Remaining().StringFixed(2)))
		}

		contributor, err := userByUsername(ctx, tx, contributorUsername)
		if err != nil {
			return err
		}

		offer, err = tx.Offers().Create(ctx, &models.Offer{
			Amount: in.Amount,
			Hidden: in.Hidden,
			WishID: wish.ID,
			UserID: contributor.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to create offer: %w", err)
		}

		raised, err = l.registry.RecomputeRaised(ctx, tx, wish.ID)
		return err
	})
	if err != nil {
		l.reject(reason, in.ItemID, contributorUsername, err)
		return nil, err
	}

	if l.metrics != nil {
		l.metrics.OffersCreated.Inc()
	}
	l.logger.WithFields(logrus.Fields{
		"offer_id": offer.ID,
		"wish_id":  in.ItemID,
		"username": contributorUsername,
		"raised":   raised.String(),
	}).Info("Offer created")

	return l.FindOne(ctx, offer.ID)
}

func (l *OfferLedger) reject(reason string, wishID int64, username string, err error) {
	if reason == "" {
		return
	}
	if l.metrics != nil {
		l.metrics.OffersRejected.WithLabelValues(reason).Inc()
	}
	l.logger.WithFields(logrus.Fields{
		"wish_id":  wishID,
		"username": username,
		"reason":   reason,
	}).WithError(err).Warn("Offer rejected")
}

// FindOne returns the offer with its wish and contributor.
func (l *OfferLedger) FindOne(ctx context.Context, id int64) (*models.Offer, error) {
	offer, err := l.store.Offers().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get offer %d: %w", id, err)
	}
	if offer == nil {
		return nil, apperrors.NotFound("offer not found")
	}
	if err := resolveOffers(ctx, l.store, []*models.Offer{offer}); err != nil {
		return nil, err
	}
	return offer, nil
}

// FindMany returns every offer matching filters, resolved like FindOne.
func (l *OfferLedger) FindMany(ctx context.Context, filters repository.OfferFilters) ([]*models.Offer, error) {
	offers, err := l.store.Offers().Find(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to find offers: %w", err)
	}
	if err := resolveOffers(ctx, l.store, offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// Update lets the contributor change the amount or visibility of an offer.
// Without strict mode the funding ceiling is not re-checked and the raised
// amount of the wish is left as it was.
func (l *OfferLedger) Update(ctx context.Context, id int64, patch models.OfferPatch, actorUsername string) (*models.Offer, error) {
	if patch.Amount != nil && !patch.Amount.IsPositive() {
		return nil, apperrors.Validation("amount must be positive", nil)
	}

	var err error
	if l.strict {
		err = l.store.Atomic(ctx, func(tx repository.Repositories) error {
			return l.updateStrict(ctx, tx, id, patch, actorUsername)
		})
	} else {
		err = l.updateLegacy(ctx, id, patch, actorUsername)
	}
	if err != nil {
		return nil, err
	}

	l.logger.WithFields(logrus.Fields{
		"offer_id": id,
		"username": actorUsername,
		"strict":   l.strict,
	}).Info("Offer updated")

	return l.FindOne(ctx, id)
}

func (l *OfferLedger) updateLegacy(ctx context.Context, id int64, patch models.OfferPatch, actorUsername string) error {
	offer, err := l.ownOffer(ctx, l.store, id, actorUsername)
	if err != nil {
		return err
	}

	patch.Apply(offer)
	if _, err := l.store.Offers().Update(ctx, offer); err != nil {
		return fmt.Errorf("failed to update offer %d: %w", id, err)
	}
	return nil
}

func (l *OfferLedger) updateStrict(ctx context.Context, tx repository.Repositories, id int64, patch models.OfferPatch, actorUsername string) error {
	offer, err := l.ownOffer(ctx, tx, id, actorUsername)
	if err != nil {
		return err
	}

	wish, err := tx.Wishes().GetForUpdate(ctx, offer.WishID)
	if err != nil {
		return fmt.Errorf("failed to lock wish %d: %w", offer.WishID, err)
	}
	if wish == nil {
		return apperrors.NotFound("wish not found")
	}

	// Re-read under the lock so the ceiling check sees the committed amount.
	if offer, err = l.ownOffer(ctx, tx, id, actorUsername); err != nil {
		return err
	}

	if patch.Amount != nil {
		sum, err := tx.Offers().SumForWish(ctx, wish.ID)
		if err != nil {
			return fmt.Errorf("failed to sum offers of wish %d: %w", wish.ID, err)
		}
		if sum.Sub(offer.Amount).Add(*patch.Amount).GreaterThan(wish.Price) {
			l.reject(metrics.ReasonOverfunding, wish.ID, actorUsername, nil)
			return apperrors.Forbidden("the new amount would exceed the price of the wish")
		}
	}

	patch.Apply(offer)
	if _, err := tx.Offers().Update(ctx, offer); err != nil {
		return fmt.Errorf("failed to update offer %d: %w", id, err)
	}

	_, err = l.registry.RecomputeRaised(ctx, tx, wish.ID)
	return err
}

// Remove deletes the contributor's offer and recomputes the wish total.
func (l *OfferLedger) Remove(ctx context.Context, id int64, actorUsername string) (*models.Offer, error) {
	removed, err := l.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	err = l.store.Atomic(ctx, func(tx repository.Repositories) error {
		offer, err := tx.Offers().GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get offer %d: %w", id, err)
		}
		if offer == nil {
			return apperrors.NotFound("offer not found")
		}

		if _, err := tx.Wishes().GetForUpdate(ctx, offer.WishID); err != nil {
			return fmt.Errorf("failed to lock wish %d: %w", offer.WishID, err)
		}

		// A concurrent remove may have won the lock.
		if offer, err = l.ownOffer(ctx, tx, id, actorUsername); err != nil {
			return err
		}

		if err := tx.Offers().Delete(ctx, id); err != nil {
			return err
		}

		_, err = l.registry.RecomputeRaised(ctx, tx, offer.WishID)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.logger.WithFields(logrus.Fields{
		"offer_id": id,
		"wish_id":  removed.WishID,
		"username": actorUsername,
	}).Info("Offer removed")

	return removed, nil
}

// CountFor returns how many offers reference the wish.
func (l *OfferLedger) CountFor(ctx context.Context, wishID int64) (int, error) {
	n, err := l.store.Offers().CountForWish(ctx, wishID)
	if err != nil {
		return 0, fmt.Errorf("failed to count offers of wish %d: %w", wishID, err)
	}
	return n, nil
}

// ownOffer loads the offer and checks that actorUsername contributed it.
func (l *OfferLedger) ownOffer(ctx context.Context, repos repository.Repositories, id int64, actorUsername string) (*models.Offer, error) {
	offer, err := repos.Offers().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get offer %d: %w", id, err)
	}
	if offer == nil {
		return nil, apperrors.NotFound("offer not found")
	}

	actor, err := userByUsername(ctx, repos, actorUsername)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(offer.UserID, actor, "you can only change your own offers"); err != nil {
		return nil, err
	}
	return offer, nil
}

package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishfund/internal/auth"
	"github.com/Kerhoff/wishfund/internal/metrics"
	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/repository"
	"github.com/Kerhoff/wishfund/pkg/apperrors"
)

// Options tunes business rules that have more than one accepted behavior.
type Options struct {
	// StrictOfferUpdate re-checks the funding ceiling and recomputes the
	// raised amount when an offer is edited.
	StrictOfferUpdate bool
}

// Service is the central business logic layer. It wires the components that
// share the store, the logger and the metrics.
type Service struct {
	Wishes    *WishRegistry
	Offers    *OfferLedger
	Wishlists *WishlistCurator
	Users     *UserDirectory
	Auth      *Authenticator
}

// New creates a new Service with all required dependencies.
func New(store repository.Store, logger *logrus.Logger, m *metrics.Metrics,
	hasher *auth.Hasher,
	tokens *auth.Tokens,
	opts Options,
) *Service {
	wishes := &WishRegistry{store: store, logger: logger, metrics: m}
	offers := &OfferLedger{store: store, logger: logger, metrics: m, registry: wishes, strict: opts.StrictOfferUpdate}
	wishes.ledger = offers

	users := &UserDirectory{store: store, logger: logger, hasher: hasher, registry: wishes}

	return &Service{
		Wishes:    wishes,
		Offers:    offers,
		Wishlists: &WishlistCurator{store: store, logger: logger},
		Users:     users,
		Auth:      &Authenticator{store: store, logger: logger, hasher: hasher, tokens: tokens},
	}
}

// userByUsername resolves an acting or referenced user, failing NotFound when
// the account does not exist.
func userByUsername(ctx context.Context, repos repository.Repositories, username string) (*models.User, error) {
	user, err := repos.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user %q: %w", username, err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}
	return user, nil
}

// uniqueIDs drops repeated ids, keeping the first occurrence of each.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

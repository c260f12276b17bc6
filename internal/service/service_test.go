package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kerhoff/wishfund/internal/auth"
	"github.com/Kerhoff/wishfund/internal/metrics"
	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/repository"
	"github.com/Kerhoff/wishfund/internal/repository/memory"
	"github.com/Kerhoff/wishfund/pkg/apperrors"
)

type fixture struct {
	svc     *Service
	store   repository.Store
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memory.NewStore(), opts)
}

func newFixtureWithStore(t *testing.T, store repository.Store, opts Options) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	m := metrics.New(nil)
	svc := New(store, logger, m,
		auth.NewHasher(bcrypt.MinCost),
		auth.NewTokens("test-secret", time.Hour),
		opts,
	)
	return &fixture{svc: svc, store: store, metrics: m}
}

func (f *fixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.svc.Users.Register(context.Background(), SignupInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) wish(t *testing.T, owner string, price int64) *models.Wish {
	t.Helper()
	w, err := f.svc.Wishes.Create(context.Background(), WishInput{
		Name:        "Bike",
		Link:        "https://example.com/bike",
		Image:       "https://example.com/bike.png",
		Price:       decimal.NewFromInt(price),
		Description: "A red bike",
	}, owner)
	require.NoError(t, err)
	return w
}

func (f *fixture) offer(t *testing.T, contributor string, wishID, amount int64, hidden bool) (*models.Offer, error) {
	t.Helper()
	return f.svc.Offers.Create(context.Background(), OfferInput{
		ItemID: wishID,
		Amount: decimal.NewFromInt(amount),
		Hidden: hidden,
	}, contributor)
}

func (f *fixture) raised(t *testing.T, wishID int64) decimal.Decimal {
	t.Helper()
	w, err := f.store.Wishes().GetByID(context.Background(), wishID)
	require.NoError(t, err)
	require.NotNil(t, w)
	return w.Raised
}

// assertLedger checks that every wish's raised amount equals the sum of its
// offers and stays within its price.
func assertLedger(t *testing.T, store repository.Store) {
	t.Helper()
	ctx := context.Background()

	wishes, err := store.Wishes().Find(ctx, repository.WishFilters{})
	require.NoError(t, err)
	for _, w := range wishes {
		sum, err := store.Offers().SumForWish(ctx, w.ID)
		require.NoError(t, err)
		assert.True(t, w.Raised.Equal(sum), "wish %d: raised %s, offers %s", w.ID, w.Raised, sum)
		assert.True(t, w.Raised.LessThanOrEqual(w.Price), "wish %d: raised %s over price %s", w.ID, w.Raised, w.Price)
	}
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperrors.KindOf(err), "unexpected error: %v", err)
}

// failingStore injects an error into IncrementCopied inside transactions.
type failingStore struct {
	repository.Store
}

func (s failingStore) Atomic(ctx context.Context, fn func(tx repository.Repositories) error) error {
	return s.Store.Atomic(ctx, func(tx repository.Repositories) error {
		return fn(failingRepos{tx})
	})
}

type failingRepos struct {
	repository.Repositories
}

func (r failingRepos) Wishes() repository.WishRepository {
	return failingWishes{r.Repositories.Wishes()}
}

type failingWishes struct {
	repository.WishRepository
}

func (failingWishes) IncrementCopied(context.Context, int64) error {
	return errors.New("counter unavailable")
}

func TestAuthorize(t *testing.T) {
	owner := &models.User{ID: 1, Username: "alice"}
	other := &models.User{ID: 2, Username: "bob"}

	assert.True(t, Authorize(1, owner))
	assert.False(t, Authorize(1, other))
	assert.False(t, Authorize(1, nil))
	assertKind(t, requireOwner(1, other, "nope"), apperrors.KindForbidden)
	assert.NoError(t, requireOwner(1, owner, "nope"))
}

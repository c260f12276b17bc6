package service

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/wishfund/internal/metrics"
	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/repository"
	"github.com/Kerhoff/wishfund/pkg/apperrors"
)

func TestOfferRaisesTotal(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")
	w := f.wish(t, "owner", 100)

	offer, err := f.offer(t, "friend", w.ID, 30, false)
	require.NoError(t, err)

	assert.Equal(t, w.ID, offer.WishID)
	require.NotNil(t, offer.Item)
	require.NotNil(t, offer.User)
	assert.Equal(t, "friend", offer.User.Username)
	assert.Empty(t, offer.User.Password)
	assert.True(t, f.raised(t, w.ID).Equal(decimal.NewFromInt(30)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OffersCreated))
	assertLedger(t, f.store)
}

func TestOfferOverfundingRejected(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")
	w := f.wish(t, "owner", 100)

	_, err := f.offer(t, "friend", w.ID, 90, false)
	require.NoError(t, err)

	_, err = f.offer(t, "friend", w.ID, 20, false)
	assertKind(t, err, apperrors.KindForbidden)

	assert.True(t, f.raised(t, w.ID).Equal(decimal.NewFromInt(90)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OffersRejected.WithLabelValues(metrics.ReasonOverfunding)))
	assertLedger(t, f.store)
}

func TestOfferExactlyFundsWish(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")
	w := f.wish(t, "owner", 100)

	_, err := f.offer(t, "friend", w.ID, 100, false)
	require.NoError(t, err)

	got, err := f.svc.Wishes.FindOne(context.Background(), w.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFunded())
}

func TestSelfFundingRejected(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	w := f.wish(t, "owner", 100)

	_, err := f.offer(t, "owner", w.ID, 10, false)
	assertKind(t, err, apperrors.KindForbidden)

	n, err := f.svc.Offers.CountFor(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OffersRejected.WithLabelValues(metrics.ReasonSelfFunding)))
}

func TestOfferUnknownWishOrContributor(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	w := f.wish(t, "owner", 100)

	_, err := f.offer(t, "owner", 999, 10, false)
	assertKind(t, err, apperrors.KindNotFound)

	_, err = f.offer(t, "ghost", w.ID, 10, false)
	assertKind(t, err, apperrors.KindNotFound)
}

func TestOfferAmountMustBePositive(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")
	w := f.wish(t, "owner", 100)

	_, err := f.offer(t, "friend", w.ID, 0, false)
	assertKind(t, err, apperrors.KindValidation)
}

func TestConcurrentOffersCannotOverfund(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "alice")
	f.user(t, "bob")
	w := f.wish(t, "owner", 100)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, name := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			_, errs[i] = f.svc.Offers.Create(context.Background(), OfferInput{
				ItemID: w.ID,
				Amount: decimal.NewFromInt(60),
			}, name)
		}(i, name)
	}
	wg.Wait()

	var ok, forbidden int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperrors.Is(err, apperrors.KindForbidden):
			forbidden++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, forbidden)
	assert.True(t, f.raised(t, w.ID).Equal(decimal.NewFromInt(60)))
	assertLedger(t, f.store)
}

func TestManyConcurrentOffersStayWithinPrice(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")
	w := f.wish(t, "owner", 100)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Offers.Create(context.Background(), OfferInput{
				ItemID: w.ID,
				Amount: decimal.NewFromInt(7),
			}, "friend")
		}()
	}
	wg.Wait()

	n, err := f.svc.Offers.CountFor(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, 14, n)
	assert.True(t, f.raised(t, w.ID).Equal(decimal.NewFromInt(98)))
	assertLedger(t, f.store)
}

func TestHiddenOffersAreCounted(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")
	w := f.wish(t, "owner", 100)

	_, err := f.offer(t, "friend", w.ID, 40, true)
	require.NoError(t, err)
	_, err = f.offer(t, "friend", w.ID, 10, false)
	require.NoError(t, err)

	assert.True(t, f.raised(t, w.ID).Equal(decimal.NewFromInt(50)))

	hidden := true
	offers, err := f.svc.Offers.FindMany(context.Background(), repository.OfferFilters{Hidden: &hidden})
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.True(t, offers[0].Amount.Equal(decimal.NewFromInt(40)))
}

func TestOfferUpdateLegacyKeepsRaised(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")
	w := f.wish(t, "owner", 100)

	offer, err := f.offer(t, "friend", w.ID, 30, false)
	require.NoError(t, err)

	amount := decimal.NewFromInt(50)
	hidden := true
	updated, err := f.svc.Offers.Update(context.Background(), offer.ID, models.OfferPatch{Amount: &amount, Hidden: &hidden}, "friend")
	require.NoError(t, err)

	assert.True(t, updated.Amount.Equal(amount))
	assert.True(t, updated.Hidden)
	assert.True(t, f.raised(t, w.ID).Equal(decimal.NewFromInt(30)))
}

func TestOfferUpdateStrictRecomputes(t *testing.T) {
	f := newFixture(t, Options{StrictOfferUpdate: true})
	f.user(t, "owner")
	f.user(t, "friend")
	w := f.wish(t, "owner", 100)

	offer, err := f.offer(t, "friend", w.ID, 30, false)
	require.NoError(t, err)

	amount := decimal.NewFromInt(50)
	_, err = f.svc.Offers.Update(context.Background(), offer.ID, models.OfferPatch{Amount: &amount}, "friend")
	require.NoError(t, err)

	assert.True(t, f.raised(t, w.ID).Equal(amount))
	assertLedger(t, f.store)
}

func TestOfferUpdateStrictRejectsOverfunding(t *testing.T) {
	f := newFixture(t, Options{StrictOfferUpdate: true})
	f.user(t, "owner")
	f.user(t, "friend")
	w := f.wish(t, "owner", 100)

	first, err := f.offer(t, "friend", w.ID, 30, false)
	require.NoError(t, err)
	_, err = f.offer(t, "friend", w.ID, 60, false)
	require.NoError(t, err)

	amount := decimal.NewFromInt(45)
	_, err = f.svc.Offers.Update(context.Background(), first.ID, models.OfferPatch{Amount: &amount}, "friend")
	assertKind(t, err, apperrors.KindForbidden)

	got, err := f.store.Offers().GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(30)))
	assertLedger(t, f.store)
}

func TestOfferUpdateOnlyByContributor(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")
	f.user(t, "stranger")
	w := f.wish(t, "owner", 100)

	offer, err := f.offer(t, "friend", w.ID, 30, false)
	require.NoError(t, err)

	hidden := true
	_, err = f.svc.Offers.Update(context.Background(), offer.ID, models.OfferPatch{Hidden: &hidden}, "stranger")
	assertKind(t, err, apperrors.KindForbidden)

	_, err = f.svc.Offers.Update(context.Background(), 999, models.OfferPatch{Hidden: &hidden}, "friend")
	assertKind(t, err, apperrors.KindNotFound)

	_, err = f.svc.Offers.Remove(context.Background(), offer.ID, "owner")
	assertKind(t, err, apperrors.KindForbidden)
}

func TestOfferRemoveRecomputes(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")
	w := f.wish(t, "owner", 100)

	first, err := f.offer(t, "friend", w.ID, 30, false)
	require.NoError(t, err)
	_, err = f.offer(t, "friend", w.ID, 20, false)
	require.NoError(t, err)

	removed, err := f.svc.Offers.Remove(context.Background(), first.ID, "friend")
	require.NoError(t, err)
	assert.Equal(t, first.ID, removed.ID)

	assert.True(t, f.raised(t, w.ID).Equal(decimal.NewFromInt(20)))
	_, err = f.svc.Offers.FindOne(context.Background(), first.ID)
	assertKind(t, err, apperrors.KindNotFound)
	assertLedger(t, f.store)
}

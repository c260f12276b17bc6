package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/repository/memory"
	"github.com/Kerhoff/wishfund/pkg/apperrors"
)

func TestCreateWish(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")

	w := f.wish(t, "owner", 100)
	assert.True(t, w.Raised.IsZero())
	assert.Zero(t, w.Copied)
	assert.Empty(t, w.Offers)
	require.NotNil(t, w.Owner)
	assert.Equal(t, "owner", w.Owner.Username)
	assert.Empty(t, w.Owner.Email)

	_, err := f.svc.Wishes.Create(context.Background(), WishInput{Name: "x", Price: decimal.NewFromInt(1)}, "ghost")
	assertKind(t, err, apperrors.KindNotFound)
}

func TestFindOneResolvesOffers(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")
	w := f.wish(t, "owner", 100)

	_, err := f.offer(t, "friend", w.ID, 10, false)
	require.NoError(t, err)

	got, err := f.svc.Wishes.FindOne(context.Background(), w.ID)
	require.NoError(t, err)
	require.Len(t, got.Offers, 1)
	require.NotNil(t, got.Offers[0].User)
	assert.Equal(t, "friend", got.Offers[0].User.Username)

	_, err = f.svc.Wishes.FindOne(context.Background(), 999)
	assertKind(t, err, apperrors.KindNotFound)
}

func TestUpdateWish(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")
	w := f.wish(t, "owner", 100)

	name := "Blue bike"
	price := decimal.NewFromInt(120)
	updated, err := f.svc.Wishes.Update(context.Background(), w.ID, models.WishPatch{Name: &name, Price: &price}, "owner")
	require.NoError(t, err)
	assert.Equal(t, "Blue bike", updated.Name)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, "A red bike", updated.Description)

	_, err = f.svc.Wishes.Update(context.Background(), w.ID, models.WishPatch{Name: &name}, "friend")
	assertKind(t, err, apperrors.KindForbidden)

	_, err = f.svc.Wishes.Update(context.Background(), 999, models.WishPatch{Name: &name}, "owner")
	assertKind(t, err, apperrors.KindNotFound)
}

func TestUpdateWishPriceBelowRaised(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")
	w := f.wish(t, "owner", 100)

	_, err := f.offer(t, "friend", w.ID, 60, false)
	require.NoError(t, err)

	price := decimal.NewFromInt(50)
	_, err = f.svc.Wishes.Update(context.Background(), w.ID, models.WishPatch{Price: &price}, "owner")
	assertKind(t, err, apperrors.KindForbidden)

	got, err := f.svc.Wishes.FindOne(context.Background(), w.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(100)))
	assertLedger(t, f.store)
}

func TestRemoveWishWithOffers(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")
	w := f.wish(t, "owner", 100)

	offer, err := f.offer(t, "friend", w.ID, 10, false)
	require.NoError(t, err)

	_, err = f.svc.Wishes.Remove(context.Background(), w.ID, "owner")
	assertKind(t, err, apperrors.KindForbidden)

	_, err = f.svc.Offers.Remove(context.Background(), offer.ID, "friend")
	require.NoError(t, err)

	removed, err := f.svc.Wishes.Remove(context.Background(), w.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, w.ID, removed.ID)

	_, err = f.svc.Wishes.FindOne(context.Background(), w.ID)
	assertKind(t, err, apperrors.KindNotFound)
}

func TestRemoveWishOnlyByOwner(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")
	w := f.wish(t, "owner", 100)

	_, err := f.svc.Wishes.Remove(context.Background(), w.ID, "friend")
	assertKind(t, err, apperrors.KindForbidden)

	_, err = f.svc.Wishes.Remove(context.Background(), 999, "owner")
	assertKind(t, err, apperrors.KindNotFound)
}

func TestRemoveWishLeavesWishlists(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	first := f.wish(t, "owner", 100)
	second := f.wish(t, "owner", 50)

	list, err := f.svc.Wishlists.Create(context.Background(), WishlistInput{
		Name:    "Birthday",
		ItemIDs: []int64{first.ID, second.ID},
	}, "owner")
	require.NoError(t, err)

	_, err = f.svc.Wishes.Remove(context.Background(), first.ID, "owner")
	require.NoError(t, err)

	got, err := f.svc.Wishlists.FindOne(context.Background(), list.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID}, got.ItemIDs)
}

func TestCopyWish(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")
	f.user(t, "copier")
	w := f.wish(t, "owner", 50)

	_, err := f.offer(t, "friend", w.ID, 20, false)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := f.svc.Wishes.Copy(context.Background(), w.ID, "friend")
		require.NoError(t, err)
	}

	copied, err := f.svc.Wishes.Copy(context.Background(), w.ID, "copier")
	require.NoError(t, err)

	assert.NotEqual(t, w.ID, copied.ID)
	assert.True(t, copied.Price.Equal(decimal.NewFromInt(50)))
	assert.True(t, copied.Raised.IsZero())
	assert.Zero(t, copied.Copied)
	assert.Empty(t, copied.Offers)
	require.NotNil(t, copied.Owner)
	assert.Equal(t, "copier", copied.Owner.Username)
	assert.Equal(t, w.Name, copied.Name)

	original, err := f.svc.Wishes.FindOne(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, original.Copied)
}

func TestCopyWishNotFound(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	w := f.wish(t, "owner", 50)

	_, err := f.svc.Wishes.Copy(context.Background(), 999, "owner")
	assertKind(t, err, apperrors.KindNotFound)

	_, err = f.svc.Wishes.Copy(context.Background(), w.ID, "ghost")
	assertKind(t, err, apperrors.KindNotFound)
}

func TestCopyWishIsAtomic(t *testing.T) {
	store := memory.NewStore()
	f := newFixtureWithStore(t, failingStore{store}, Options{})
	f.user(t, "owner")
	f.user(t, "copier")
	w := f.wish(t, "owner", 50)

	_, err := f.svc.Wishes.Copy(context.Background(), w.ID, "copier")
	require.Error(t, err)

	owned, err := f.svc.Users.WishesOf(context.Background(), "copier")
	require.NoError(t, err)
	assert.Empty(t, owned)

	original, err := f.svc.Wishes.FindOne(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Zero(t, original.Copied)
}

func TestFindLastAndTop(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "owner")
	f.user(t, "friend")

	var ids []int64
	for i := 0; i < 45; i++ {
		ids = append(ids, f.wish(t, "owner", 10).ID)
	}
	copied, err := f.svc.Wishes.Copy(context.Background(), ids[3], "friend")
	require.NoError(t, err)

	last, err := f.svc.Wishes.FindLast(context.Background())
	require.NoError(t, err)
	require.Len(t, last, LastWishesLimit)
	assert.Equal(t, copied.ID, last[0].ID)
	assert.Equal(t, ids[44], last[1].ID)
	for i := 1; i < len(last); i++ {
		prev, cur := last[i-1], last[i]
		assert.False(t, cur.CreatedAt.After(prev.CreatedAt), "wish %d is newer than %d", cur.ID, prev.ID)
		assert.Less(t, cur.ID, prev.ID)
	}

	top, err := f.svc.Wishes.FindTop(context.Background())
	require.NoError(t, err)
	require.Len(t, top, TopWishesLimit)
	assert.Equal(t, ids[3], top[0].ID)
	assert.Equal(t, 1, top[0].Copied)
}

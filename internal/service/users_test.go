package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/pkg/apperrors"
)

func TestRegisterDefaults(t *testing.T) {
	f := newFixture(t, Options{})
	u := f.user(t, "alice")

	assert.Equal(t, models.DefaultAbout, u.About)
	assert.Equal(t, models.DefaultAvatar, u.Avatar)
	assert.NotEqual(t, "password", u.Password)
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "alice")

	_, err := f.svc.Users.Register(context.Background(), SignupInput{Username: "alice", Email: "other@example.com", Password: "x"})
	assertKind(t, err, apperrors.KindConflict)

	_, err = f.svc.Users.Register(context.Background(), SignupInput{Username: "other", Email: "alice@example.com", Password: "x"})
	assertKind(t, err, apperrors.KindConflict)
}

func TestUpdateOwnProfile(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "alice")
	f.user(t, "bob")

	taken := "bob"
	_, err := f.svc.Users.UpdateOwn(context.Background(), "alice", UserPatch{Username: &taken})
	assertKind(t, err, apperrors.KindConflict)

	about := "Likes bikes"
	password := "new-password"
	updated, err := f.svc.Users.UpdateOwn(context.Background(), "alice", UserPatch{About: &about, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "Likes bikes", updated.About)

	_, err = f.svc.Auth.Signin(context.Background(), "alice", "new-password")
	assert.NoError(t, err)
}

func TestPublicProfileAndSearch(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "alice")

	profile, err := f.svc.Users.FindPublic(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)

	_, err = f.svc.Users.FindPublic(context.Background(), "ghost")
	assertKind(t, err, apperrors.KindNotFound)

	found, err := f.svc.Users.Search(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alice", found[0].Username)

	found, err = f.svc.Users.Search(context.Background(), "ali")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestWishesOf(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "alice")
	f.user(t, "bob")
	f.wish(t, "alice", 10)
	f.wish(t, "bob", 10)

	wishes, err := f.svc.Users.WishesOf(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, wishes, 1)
	assert.Equal(t, "alice", wishes[0].Owner.Username)

	_, err = f.svc.Users.WishesOf(context.Background(), "ghost")
	assertKind(t, err, apperrors.KindNotFound)
}

func TestSignin(t *testing.T) {
	f := newFixture(t, Options{})
	alice := f.user(t, "alice")

	token, err := f.svc.Auth.Signin(context.Background(), "alice", "password")
	require.NoError(t, err)

	principal, err := f.svc.Auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", principal.Username)
	assert.Equal(t, alice.ID, principal.ID)

	_, err = f.svc.Auth.Signin(context.Background(), "alice", "wrong")
	assertKind(t, err, apperrors.KindUnauthorized)

	_, err = f.svc.Auth.Signin(context.Background(), "ghost", "password")
	assertKind(t, err, apperrors.KindUnauthorized)

	_, err = f.svc.Auth.Verify("garbage")
	assertKind(t, err, apperrors.KindUnauthorized)
}

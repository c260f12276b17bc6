package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishfund/internal/auth"
	"github.com/Kerhoff/wishfund/internal/repository"
	"github.com/Kerhoff/wishfund/pkg/apperrors"
)

// Authenticator exchanges credentials for access tokens.
type Authenticator struct {
	store  repository.Store
	logger *logrus.Logger
	hasher *auth.Hasher
	tokens *auth.Tokens
}

// Signin checks the password of username and issues a token.
func (a *Authenticator) Signin(ctx context.Context, username, password string) (string, error) {
	user, err := a.store.Users().GetByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to lookup user %q: %w", username, err)
	}
	if user == nil {
		return "", apperrors.Unauthorized("invalid username or password")
	}

	ok, err := a.hasher.Verify(user.Password, password)
	if err != nil {
		return "", err
	}
	if !ok {
		a.logger.WithField("username", username).Warn("Sign-in rejected")
		return "", apperrors.Unauthorized("invalid username or password")
	}

	token, err := a.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", err
	}

	a.logger.WithField("username", username).Info("User signed in")
	return token, nil
}

// Principal is the authenticated caller of a request.
type Principal struct {
	ID       int64
	Username string
}

// Verify resolves a bearer token to the principal it was issued for.
func (a *Authenticator) Verify(token string) (*Principal, error) {
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}
	return &Principal{ID: id, Username: claims.Username}, nil
}

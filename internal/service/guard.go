package service

import (
	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/pkg/apperrors"
)

// Authorize reports whether actor may mutate a resource owned by ownerID.
func Authorize(ownerID int64, actor *models.User) bool {
	return actor != nil && actor.ID == ownerID
}

func requireOwner(ownerID int64, actor *models.User, message string) error {
	if !Authorize(ownerID, actor) {
		return apperrors.Forbidden(message)
	}
	return nil
}

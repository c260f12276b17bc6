package service

import (
	"context"
	"fmt"

	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/repository"
)

// Relations are stored as ids. The helpers below load every referenced row
// with one query per table and attach them to the view fields.

func usersByID(ctx context.Context, repos repository.Repositories, ids []int64) (map[int64]*models.User, error) {
	users, err := repos.Users().GetByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}
	byID := make(map[int64]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u.Sanitized()
	}
	return byID, nil
}

// resolveWishes attaches the owner, the offers and each offer's contributor.
func resolveWishes(ctx context.Context, repos repository.Repositories, wishes []*models.Wish) error {
	if len(wishes) == 0 {
		return nil
	}

	wishIDs := make([]int64, 0, len(wishes))
	userIDs := make([]int64, 0, len(wishes))
	for _, w := range wishes {
		wishIDs = append(wishIDs, w.ID)
		userIDs = append(userIDs, w.OwnerID)
	}

	offers, err := repos.Offers().Find(ctx, repository.OfferFilters{WishIDs: wishIDs})
	if err != nil {
		return fmt.Errorf("failed to resolve offers: %w", err)
	}
	for _, o := range offers {
		userIDs = append(userIDs, o.UserID)
	}

	users, err := usersByID(ctx, repos, userIDs)
	if err != nil {
		return err
	}

	byWish := make(map[int64][]*models.Offer, len(wishes))
	for _, o := range offers {
		o.User = users[o.UserID]
		byWish[o.WishID] = append(byWish[o.WishID], o)
	}
	for _, w := range wishes {
		w.Owner = users[w.OwnerID]
		w.Offers = byWish[w.ID]
	}
	return nil
}

// resolveOffers attaches the funded wish (with its owner) and the contributor.
func resolveOffers(ctx context.Context, repos repository.Repositories, offers []*models.Offer) error {
	if len(offers) == 0 {
		return nil
	}

	wishIDs := make([]int64, 0, len(offers))
	userIDs := make([]int64, 0, len(offers)*2)
	for _, o := range offers {
		wishIDs = append(wishIDs, o.WishID)
		userIDs = append(userIDs, o.UserID)
	}

	wishes, err := repos.Wishes().Find(ctx, repository.WishFilters{IDs: uniqueIDs(wishIDs)})
	if err != nil {
		return fmt.Errorf("failed to resolve wishes: %w", err)
	}
	for _, w := range wishes {
		userIDs = append(userIDs, w.OwnerID)
	}

	users, err := usersByID(ctx, repos, userIDs)
	if err != nil {
		return err
	}

	byID := make(map[int64]*models.Wish, len(wishes))
	for _, w := range wishes {
		w.Owner = users[w.OwnerID]
		byID[w.ID] = w
	}
	for _, o := range offers {
		o.Item = byID[o.WishID]
		o.User = users[o.UserID]
	}
	return nil
}

// resolveWishlists attaches the owner and the ordered, resolved items.
func resolveWishlists(ctx context.Context, repos repository.Repositories, lists []*models.Wishlist) error {
	if len(lists) == 0 {
		return nil
	}

	listIDs := make([]int64, 0, len(lists))
	ownerIDs := make([]int64, 0, len(lists))
	for _, l := range lists {
		listIDs = append(listIDs, l.ID)
		ownerIDs = append(ownerIDs, l.OwnerID)
	}

	items, err := repos.Wishlists().ItemIDs(ctx, listIDs)
	if err != nil {
		return fmt.Errorf("failed to resolve wishlist items: %w", err)
	}

	var wishIDs []int64
	for _, ids := range items {
		wishIDs = append(wishIDs, ids...)
	}

	wishes := []*models.Wish{}
	if len(wishIDs) > 0 {
		wishes, err = repos.Wishes().Find(ctx, repository.WishFilters{IDs: uniqueIDs(wishIDs)})
		if err != nil {
			return fmt.Errorf("failed to resolve wishes: %w", err)
		}
		if err := resolveWishes(ctx, repos, wishes); err != nil {
			return err
		}
	}
	byID := make(map[int64]*models.Wish, len(wishes))
	for _, w := range wishes {
		byID[w.ID] = w
	}

	owners, err := usersByID(ctx, repos, ownerIDs)
	if err != nil {
		return err
	}

	for _, l := range lists {
		l.Owner = owners[l.OwnerID]
		l.ItemIDs = items[l.ID]
		l.Items = make([]*models.Wish, 0, len(l.ItemIDs))
		for _, id := range l.ItemIDs {
			if w, ok := byID[id]; ok {
				l.Items = append(l.Items, w)
			}
		}
	}
	return nil
}

package api

import (
	"net/http"

	"github.com/Kerhoff/wishfund/internal/models"
)

// Hidden offers keep their amount but lose the contributor for everyone
// except the contributor.

func viewerID(r *http.Request) int64 {
	if p := principalFrom(r.Context()); p != nil {
		return p.ID
	}
	return 0
}

func maskOffer(o *models.Offer, viewer int64) *models.Offer {
	if o == nil || o.UserID == viewer {
		return o
	}
	return o.Masked()
}

func maskOffers(offers []*models.Offer, viewer int64) []*models.Offer {
	out := make([]*models.Offer, 0, len(offers))
	for _, o := range offers {
		out = append(out, maskOffer(o, viewer))
	}
	return out
}

func maskWish(w *models.Wish, viewer int64) *models.Wish {
	if w == nil {
		return nil
	}
	w.Offers = maskOffers(w.Offers, viewer)
	return w
}

func maskWishes(wishes []*models.Wish, viewer int64) []*models.Wish {
	out := make([]*models.Wish, 0, len(wishes))
	for _, w := range wishes {
		out = append(out, maskWish(w, viewer))
	}
	return out
}

func maskWishlist(l *models.Wishlist, viewer int64) *models.Wishlist {
	l.Items = maskWishes(l.Items, viewer)
	return l
}

package api

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/repository"
	"github.com/Kerhoff/wishfund/internal/service"
	"github.com/Kerhoff/wishfund/pkg/apperrors"
)

type createOfferRequest struct {
	ItemID int64           `json:"itemId" validate:"required,gt=0"`
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0,lte=99999999.99"`
	Hidden bool            `json:"hidden"`
}

type updateOfferRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"omitempty,gt=0,lte=99999999.99"`
	Hidden *bool            `json:"hidden"`
}

func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var req createOfferRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	offer, err := s.svc.Offers.Create(r.Context(), service.OfferInput{
		ItemID: req.ItemID,
		Amount: req.Amount.Round(2),
		Hidden: req.Hidden,
	}, principalFrom(r.Context()).Username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, offer)
}

// offerFilters reads the itemId, userId and hidden query parameters.
func offerFilters(r *http.Request) (repository.OfferFilters, error) {
	q := r.URL.Query()
	var filters repository.OfferFilters

	if raw := q.Get("itemId"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filters, apperrors.Validation("itemId must be an integer", err)
		}
		filters.WishID = &v
	}
	if raw := q.Get("userId"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filters, apperrors.Validation("userId must be an integer", err)
		}
		filters.UserID = &v
	}
	if raw := q.Get("hidden"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, apperrors.Validation("hidden must be a boolean", err)
		}
		filters.Hidden = &v
	}
	if raw := q.Get("amount"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return filters, apperrors.Validation("amount must be a number", err)
		}
		filters.Amount = &v
	}
	return filters, nil
}

func (s *Server) handleGetOffers(w http.ResponseWriter, r *http.Request) {
	filters, err := offerFilters(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	viewer := viewerID(r)
	if filters.UserID != nil && *filters.UserID != viewer {
		// Hidden offers are never attributable to another user.
		visible := false
		filters.Hidden = &visible
	}

	offers, err := s.svc.Offers.FindMany(r.Context(), filters)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, maskOffers(offers, viewer))
}

func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	offer, err := s.svc.Offers.FindOne(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, maskOffer(offer, viewerID(r)))
}

func (s *Server) handleUpdateOffer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req updateOfferRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Amount != nil {
		rounded := req.Amount.Round(2)
		req.Amount = &rounded
	}

	offer, err := s.svc.Offers.Update(r.Context(), id, models.OfferPatch{
		Amount: req.Amount,
		Hidden: req.Hidden,
	}, principalFrom(r.Context()).Username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, offer)
}

func (s *Server) handleDeleteOffer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	offer, err := s.svc.Offers.Remove(r.Context(), id, principalFrom(r.Context()).Username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, offer)
}

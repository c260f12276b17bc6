package api

import (
	"net/http"

	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/service"
)

type createWishlistRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=250"`
	Description *string `json:"description" validate:"omitempty,max=1500"`
	Image       *string `json:"image" validate:"omitempty,url"`
	ItemsID     []int64 `json:"itemsId"`
}

type updateWishlistRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=250"`
	Description *string `json:"description" validate:"omitempty,max=1500"`
	Image       *string `json:"image" validate:"omitempty,url"`
	// ItemsID replaces the whole item set when present.
	ItemsID []int64 `json:"itemsId"`
}

func (s *Server) handleGetWishlists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.svc.Wishlists.FindMany(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	viewer := viewerID(r)
	for _, l := range lists {
		maskWishlist(l, viewer)
	}
	s.respondJSON(w, http.StatusOK, lists)
}

func (s *Server) handleCreateWishlist(w http.ResponseWriter, r *http.Request) {
	var req createWishlistRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	list, err := s.svc.Wishlists.Create(r.Context(), service.WishlistInput{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		ItemIDs:     req.ItemsID,
	}, principalFrom(r.Context()).Username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, maskWishlist(list, viewerID(r)))
}

func (s *Server) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	list, err := s.svc.Wishlists.FindOne(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, maskWishlist(list, viewerID(r)))
}

func (s *Server) handleUpdateWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req updateWishlistRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	list, err := s.svc.Wishlists.Update(r.Context(), id, models.WishlistPatch{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
	}, req.ItemsID, principalFrom(r.Context()).Username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, maskWishlist(list, viewerID(r)))
}

func (s *Server) handleDeleteWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	list, err := s.svc.Wishlists.Remove(r.Context(), id, principalFrom(r.Context()).Username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, maskWishlist(list, viewerID(r)))
}

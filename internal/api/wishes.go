package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/service"
)

type createWishRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=250"`
	Link        string          `json:"link" validate:"required,url"`
	Image       string          `json:"image" validate:"required,url"`
	Price       decimal.Decimal `json:"price" validate:"required,gt=0,lte=99999999.99"`
	Description string          `json:"description" validate:"required,min=1,max=1024"`
}

type updateWishRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=250"`
	Link        *string          `json:"link" validate:"omitempty,url"`
	Image       *string          `json:"image" validate:"omitempty,url"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gt=0,lte=99999999.99"`
	Description *string          `json:"description" validate:"omitempty,min=1,max=1024"`
}

func (s *Server) handleCreateWish(w http.ResponseWriter, r *http.Request) {
	var req createWishRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	wish, err := s.svc.Wishes.Create(r.Context(), service.WishInput{
		Name:        req.Name,
		Link:        req.Link,
		Image:       req.Image,
		Price:       req.Price.Round(2),
		Description: req.Description,
	}, principalFrom(r.Context()).Username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, wish)
}

func (s *Server) handleLastWishes(w http.ResponseWriter, r *http.Request) {
	wishes, err := s.svc.Wishes.FindLast(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, maskWishes(wishes, viewerID(r)))
}

func (s *Server) handleTopWishes(w http.ResponseWriter, r *http.Request) {
	wishes, err := s.svc.Wishes.FindTop(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, maskWishes(wishes, viewerID(r)))
}

func (s *Server) handleGetWish(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	wish, err := s.svc.Wishes.FindOne(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, maskWish(wish, viewerID(r)))
}

func (s *Server) handleUpdateWish(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req updateWishRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Price != nil {
		rounded := req.Price.Round(2)
		req.Price = &rounded
	}

	wish, err := s.svc.Wishes.Update(r.Context(), id, models.WishPatch{
		Name:        req.Name,
		Link:        req.Link,
		Image:       req.Image,
		Price:       req.Price,
		Description: req.Description,
	}, principalFrom(r.Context()).Username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, maskWish(wish, viewerID(r)))
}

func (s *Server) handleDeleteWish(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	wish, err := s.svc.Wishes.Remove(r.Context(), id, principalFrom(r.Context()).Username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, maskWish(wish, viewerID(r)))
}

func (s *Server) handleCopyWish(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	wish, err := s.svc.Wishes.Copy(r.Context(), id, principalFrom(r.Context()).Username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, wish)
}

package api

import (
	"net/http"

	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/internal/service"
)

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

type signupRequest struct {
	Username string `json:"username" validate:"required,min=2,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=2"`
	About    string `json:"about" validate:"omitempty,min=2,max=200"`
	Avatar   string `json:"avatar" validate:"omitempty,url"`
}

type signinRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type signinResponse struct {
	AccessToken string `json:"access_token"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.svc.Users.Register(r.Context(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		About:    req.About,
		Avatar:   req.Avatar,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	token, err := s.svc.Auth.Signin(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, signinResponse{AccessToken: token})
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type updateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=2,max=30"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=2"`
	About    *string `json:"about" validate:"omitempty,min=2,max=200"`
	Avatar   *string `json:"avatar" validate:"omitempty,url"`
}

type findUsersRequest struct {
	Query string `json:"query" validate:"required"`
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Users.FindOwn(r.Context(), principalFrom(r.Context()).Username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.svc.Users.UpdateOwn(r.Context(), principalFrom(r.Context()).Username, service.UserPatch{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		About:    req.About,
		Avatar:   req.Avatar,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetMyWishes(w http.ResponseWriter, r *http.Request) {
	s.respondUserWishes(w, r, principalFrom(r.Context()).Username)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	profile, err := s.svc.Users.FindPublic(r.Context(), r.PathValue("username"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleGetUserWishes(w http.ResponseWriter, r *http.Request) {
	s.respondUserWishes(w, r, r.PathValue("username"))
}

func (s *Server) respondUserWishes(w http.ResponseWriter, r *http.Request, username string) {
	wishes, err := s.svc.Users.WishesOf(r.Context(), username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, maskWishes(wishes, viewerID(r)))
}

func (s *Server) handleFindUsers(w http.ResponseWriter, r *http.Request) {
	var req findUsersRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	users, err := s.svc.Users.Search(r.Context(), req.Query)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	profiles := make([]*models.PublicProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Public())
	}
	s.respondJSON(w, http.StatusOK, profiles)
}

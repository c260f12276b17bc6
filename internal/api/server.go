package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishfund/internal/metrics"
	"github.com/Kerhoff/wishfund/internal/service"
	"github.com/Kerhoff/wishfund/pkg/apperrors"
)

// Server provides the HTTP API.
type Server struct {
	svc      *service.Service
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate
	mux      *http.ServeMux
	origins  []string
}

// NewServer creates a Server, registers all routes, and returns it. Browser
// requests are accepted from origins; an empty list allows any origin.
func NewServer(svc *service.Service, logger *logrus.Logger, m *metrics.Metrics, origins []string) *Server {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s := &Server{
		svc:      svc,
		logger:   logger,
		metrics:  m,
		validate: newValidator(),
		mux:      http.NewServeMux(),
		origins:  origins,
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(s.logger),
		handlers.PrintRecoveryStack(true),
	)
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
	)
	return cors(s.requestLogger(recovery(s.mux)))
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Accounts
	s.mux.HandleFunc("POST /signup", s.handleSignup)
	s.mux.HandleFunc("POST /signin", s.handleSignin)

	// Users
	s.mux.Handle("GET /users/me", s.authed(s.handleGetMe))
	s.mux.Handle("PATCH /users/me", s.authed(s.handleUpdateMe))
	s.mux.Handle("GET /users/me/wishes", s.authed(s.handleGetMyWishes))
	s.mux.Handle("GET /users/{username}", s.authed(s.handleGetUser))
	s.mux.Handle("GET /users/{username}/wishes", s.authed(s.handleGetUserWishes))
	s.mux.Handle("POST /users/find", s.authed(s.handleFindUsers))

	// Wishes
	s.mux.HandleFunc("GET /wishes/last", s.handleLastWishes)
	s.mux.HandleFunc("GET /wishes/top", s.handleTopWishes)
	s.mux.Handle("POST /wishes", s.authed(s.handleCreateWish))
	s.mux.Handle("GET /wishes/{id}", s.authed(s.handleGetWish))
	s.mux.Handle("PATCH /wishes/{id}", s.authed(s.handleUpdateWish))
	s.mux.Handle("DELETE /wishes/{id}", s.authed(s.handleDeleteWish))
	s.mux.Handle("POST /wishes/{id}/copy", s.authed(s.handleCopyWish))

	// Offers
	s.mux.Handle("GET /offers", s.authed(s.handleGetOffers))
	s.mux.Handle("POST /offers", s.authed(s.handleCreateOffer))
	s.mux.Handle("GET /offers/{id}", s.authed(s.handleGetOffer))
	s.mux.Handle("PATCH /offers/{id}", s.authed(s.handleUpdateOffer))
	s.mux.Handle("DELETE /offers/{id}", s.authed(s.handleDeleteOffer))

	// Wishlists
	s.mux.Handle("GET /wishlists", s.authed(s.handleGetWishlists))
	s.mux.Handle("POST /wishlists", s.authed(s.handleCreateWishlist))
	s.mux.Handle("GET /wishlists/{id}", s.authed(s.handleGetWishlist))
	s.mux.Handle("PATCH /wishlists/{id}", s.authed(s.handleUpdateWishlist))
	s.mux.Handle("DELETE /wishlists/{id}", s.authed(s.handleDeleteWishlist))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

type errorResponse struct {
	Error string         `json:"error"`
	Kind  apperrors.Kind `json:"kind"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

// respondError writes err using the status of its kind. Errors that are not
// AppErrors are logged and reported as internal.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: validationMessage(validationErrs), Kind: apperrors.KindValidation})
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Kind != apperrors.KindInternal {
		s.respondJSON(w, appErr.Status(), errorResponse{Error: appErr.Message, Kind: appErr.Kind})
		return
	}

	s.logger.WithFields(logrus.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": requestIDFrom(r.Context()),
	}).WithError(err).Error("request failed")
	s.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Kind: apperrors.KindInternal})
}

// decodeJSON reads the request body into dst and validates it.
func (s *Server) decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return apperrors.Validation("request body is empty", nil)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Validation(fmt.Sprintf("invalid JSON: %v", err), err)
	}
	return s.validate.Struct(dst)
}

// pathID extracts the {id} path value and converts it to int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, apperrors.Validation("missing id in path", nil)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("id must be a positive integer", err)
	}
	return id, nil
}

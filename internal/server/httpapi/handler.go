// Package httpapi exposes the authentication operations over HTTP. Every
// route runs inside one of three pipeline chains: public (logging, rate
// limit), protected (plus authentication and a user-role check), and admin
// (same with an admin-role check).
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mkorolev/gatekeeper/internal/common"
	"github.com/mkorolev/gatekeeper/internal/logging"
	"github.com/mkorolev/gatekeeper/internal/server/models"
	"github.com/mkorolev/gatekeeper/internal/server/pipeline"
	"github.com/mkorolev/gatekeeper/internal/server/services"
)

// Server holds the HTTP handlers and their pipeline chains.
type Server struct {
	auth *services.AuthService
	log  logging.Logger

	public    *pipeline.Chain
	protected *pipeline.Chain
	admin     *pipeline.Chain
}

// Chains groups the per-route pipeline chains used by the router.
type Chains struct {
	Public    *pipeline.Chain
	Protected *pipeline.Chain
	Admin     *pipeline.Chain
}

func NewServer(auth *services.AuthService, chains Chains, log logging.Logger) *Server {
	return &Server{
		auth:      auth,
		log:       log.With("module", "httpapi"),
		public:    chains.Public,
		protected: chains.Protected,
		admin:     chains.Admin,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/register", s.wrap(s.public, s.handleRegister)).Methods(http.MethodPost)
	api.HandleFunc("/login", s.wrap(s.public, s.handleLogin)).Methods(http.MethodPost)
	api.HandleFunc("/refresh", s.wrap(s.public, s.handleRefresh)).Methods(http.MethodPost)
	api.HandleFunc("/logout", s.wrap(s.public, s.handleLogout)).Methods(http.MethodPost)

	api.HandleFunc("/me", s.wrap(s.protected, s.handleMe)).Methods(http.MethodGet)
	api.HandleFunc("/password", s.wrap(s.protected, s.handleChangePassword)).Methods(http.MethodPost)

	api.HandleFunc("/admin/users/{id}/sessions", s.wrap(s.admin, s.handleRevokeSessions)).Methods(http.MethodDelete)

	return r
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &common.Error{Code: "BAD_REQUEST", Message: "malformed request body"}
	}
	return nil
}

func (s *Server) handleRegister(ctx context.Context, _ *pipeline.RequestContext, w http.ResponseWriter, r *http.Request) error {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return &common.Error{Code: "BAD_REQUEST", Message: "email and password are required"}
	}

	user, err := s.auth.Register(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email, Role: user.Role.String()})
	return nil
}

func (s *Server) handleLogin(ctx context.Context, _ *pipeline.RequestContext, w http.ResponseWriter, r *http.Request) error {
	var req credentialsRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	pair, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	return nil
}

func (s *Server) handleRefresh(ctx context.Context, _ *pipeline.RequestContext, w http.ResponseWriter, r *http.Request) error {
	var req refreshRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	pair, err := s.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	return nil
}

func (s *Server) handleLogout(ctx context.Context, _ *pipeline.RequestContext, w http.ResponseWriter, r *http.Request) error {
	var req refreshRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	if err := s.auth.Logout(ctx, req.RefreshToken); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleMe(_ context.Context, rc *pipeline.RequestContext, w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, userResponse{ID: rc.User.ID, Role: rc.User.Role.String()})
	return nil
}

func (s *Server) handleChangePassword(ctx context.Context, rc *pipeline.RequestContext, w http.ResponseWriter, r *http.Request) error {
	var req changePasswordRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if req.NewPassword == "" {
		return &common.Error{Code: "BAD_REQUEST", Message: "new_password is required"}
	}

	if err := s.auth.ChangePassword(ctx, rc.User.ID, req.NewPassword); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// handleRevokeSessions force-revokes every active refresh record of a user.
// Admin only.
func (s *Server) handleRevokeSessions(ctx context.Context, rc *pipeline.RequestContext, w http.ResponseWriter, r *http.Request) error {
	userID := mux.Vars(r)["id"]
	if userID == "" {
		return &common.Error{Code: "BAD_REQUEST", Message: "user id is required"}
	}

	if err := s.auth.RevokeSessions(ctx, userID); err != nil {
		return err
	}

	s.log.Info(ctx, "sessions revoked",
		"request_id", rc.RequestID,
		"target_user", userID,
		"by", rc.User.ID)

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// NewChains assembles the standard chain set from the shared stages.
func NewChains(logStage, rateStage, authStage pipeline.Stage) Chains {
	return Chains{
		Public:    pipeline.NewChain(logStage, rateStage),
		Protected: pipeline.NewChain(logStage, rateStage, authStage, pipeline.NewRoleCheckStage(models.RoleUser)),
		Admin:     pipeline.NewChain(logStage, rateStage, authStage, pipeline.NewRoleCheckStage(models.RoleAdmin)),
	}
}

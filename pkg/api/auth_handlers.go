package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/taskdesk/taskdesk/pkg/audit"
	"github.com/taskdesk/taskdesk/pkg/auth"
	"github.com/taskdesk/taskdesk/pkg/httputil"
)

// register handles POST /api/auth/register
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if req.Password == "" {
		httputil.WriteBadRequest(w, "password is required")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	user := &auth.User{
		Username:        req.Username,
		Email:           req.Email,
		Age:             req.Age,
		CanBeContacted:  req.CanBeContacted,
		CanDataBeShared: req.CanDataBeShared,
		PasswordHash:    passwordHash,
	}

	if err := s.users.CreateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameRequired), errors.Is(err, auth.ErrUnderage):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, auth.ErrUsernameTaken):
			httputil.WriteErrorMessage(w, http.StatusConflict, err.Error())
		default:
			s.logger.FromContext(r.Context()).WithError(err).Error("failed to create user")
			httputil.WriteInternalError(w, err)
		}
		return
	}

	s.recordMutation(r, audit.EventTypeAuthRegister, audit.ResourceTypeUser, formatID(user.ID))
	httputil.WriteCreated(w, user)
}

// loginResponse carries the bearer token a successful login returns
type loginResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

// login handles POST /api/auth/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	token, user, err := s.tokens.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			if s.metrics != nil {
				s.metrics.LoginsTotal.WithLabelValues("failure").Inc()
			}
			if auditErr := s.audit.LogLogin(r.Context(), nil, req.Username, false); auditErr != nil {
				s.logger.FromContext(r.Context()).WithError(auditErr).Warn("failed to record audit event")
			}
			httputil.WriteErrorMessage(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.logger.FromContext(r.Context()).WithError(err).Error("login failed")
		httputil.WriteInternalError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	}
	if auditErr := s.audit.LogLogin(r.Context(), &user.ID, user.Username, true); auditErr != nil {
		s.logger.FromContext(r.Context()).WithError(auditErr).Warn("failed to record audit event")
	}

	httputil.WriteSuccess(w, loginResponse{Token: token, User: user})
}

// logout handles POST /api/auth/logout, revoking the presented token
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		httputil.WriteBadRequest(w, "missing bearer token")
		return
	}

	if err := s.tokens.Revoke(r.Context(), parts[1]); err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			httputil.WriteNoContent(w)
			return
		}
		s.logger.FromContext(r.Context()).WithError(err).Error("logout failed")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

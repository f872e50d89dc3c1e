package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/taskdesk/taskdesk/pkg/audit"
	"github.com/taskdesk/taskdesk/pkg/auth"
	"github.com/taskdesk/taskdesk/pkg/httputil"
	"github.com/taskdesk/taskdesk/pkg/middleware"
)

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// getUser handles GET /api/users/{userID}. Only the account owner and admins
// may read an account.
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userID")
	if !ok {
		return
	}

	identity := middleware.GetIdentity(r)
	if decision := s.engine.CanMutateUser(identity, userID); !decision.Allowed {
		s.deny(w, r, "user", "read", formatID(userID), decision)
		return
	}
	s.allow("user", "read")

	user, err := s.users.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			httputil.WriteNotFound(w, "user not found")
			return
		}
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to get user")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, user)
}

// updateUser handles PATCH /api/users/{userID}
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userID")
	if !ok {
		return
	}

	identity := middleware.GetIdentity(r)
	if decision := s.engine.CanMutateUser(identity, userID); !decision.Allowed {
		s.deny(w, r, "user", "update", formatID(userID), decision)
		return
	}
	s.allow("user", "update")

	var req auth.UpdateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := s.users.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			httputil.WriteNotFound(w, "user not found")
			return
		}
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to get user")
		httputil.WriteInternalError(w, err)
		return
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Age != nil {
		user.Age = *req.Age
	}
	if req.CanBeContacted != nil {
		user.CanBeContacted = *req.CanBeContacted
	}
	if req.CanDataBeShared != nil {
		user.CanDataBeShared = *req.CanDataBeShared
	}
	if req.Password != nil {
		passwordHash, err := auth.HashPassword(*req.Password)
		if err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		user.PasswordHash = passwordHash
	}

	if err := s.users.UpdateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, auth.ErrUnderage), errors.Is(err, auth.ErrUsernameRequired):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, auth.ErrUserNotFound):
			httputil.WriteNotFound(w, "user not found")
		default:
			s.logger.FromContext(r.Context()).WithError(err).Error("failed to update user")
			httputil.WriteInternalError(w, err)
		}
		return
	}

	s.recordMutation(r, audit.EventTypeUserUpdate, audit.ResourceTypeUser, formatID(userID))
	httputil.WriteSuccess(w, user)
}

// deleteUser handles DELETE /api/users/{userID}. Authored resources cascade
// in the database.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userID")
	if !ok {
		return
	}

	identity := middleware.GetIdentity(r)
	if decision := s.engine.CanMutateUser(identity, userID); !decision.Allowed {
		s.deny(w, r, "user", "delete", formatID(userID), decision)
		return
	}
	s.allow("user", "delete")

	if err := s.users.DeleteUser(r.Context(), userID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			httputil.WriteNotFound(w, "user not found")
			return
		}
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to delete user")
		httputil.WriteInternalError(w, err)
		return
	}

	// The cascade removed the sessions; the validation cache must not keep
	// the deleted account alive.
	s.tokens.PurgeUser(userID)

	s.recordMutation(r, audit.EventTypeUserDelete, audit.ResourceTypeUser, formatID(userID))
	httputil.WriteNoContent(w)
}

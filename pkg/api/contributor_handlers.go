package api

import (
	"errors"
	"net/http"

	"github.com/taskdesk/taskdesk/pkg/audit"
	"github.com/taskdesk/taskdesk/pkg/auth"
	"github.com/taskdesk/taskdesk/pkg/httputil"
	"github.com/taskdesk/taskdesk/pkg/middleware"
	"github.com/taskdesk/taskdesk/pkg/policy"
	"github.com/taskdesk/taskdesk/pkg/tracker"
)

// listContributors handles GET /api/projects/{projectID}/contributors.
// Reading the membership list requires project membership, not management.
func (s *Server) listContributors(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}

	chain, ok := s.resolve(w, r, tracker.PathRef{ProjectID: projectID})
	if !ok {
		return
	}

	identity := middleware.GetIdentity(r)
	decision, err := s.engine.AuthorizeProject(r.Context(), identity, policy.ProjectRead, chain.Project)
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("authorization failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "contributor", "list", formatID(projectID), decision)
		return
	}
	s.allow("contributor", "list")

	contributors, err := s.store.ListContributors(r.Context(), projectID)
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to list contributors")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, contributors)
}

// addContributor handles POST /api/projects/{projectID}/contributors
func (s *Server) addContributor(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}

	chain, ok := s.resolve(w, r, tracker.PathRef{ProjectID: projectID})
	if !ok {
		return
	}

	identity := middleware.GetIdentity(r)
	decision, err := s.engine.AuthorizeProject(r.Context(), identity, policy.ProjectManageContributors, chain.Project)
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("authorization failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "contributor", "add", formatID(projectID), decision)
		return
	}
	s.allow("contributor", "add")

	var req tracker.AddContributorRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.Role.Valid() {
		httputil.WriteBadRequest(w, "invalid role")
		return
	}

	if _, err := s.users.GetUser(r.Context(), req.UserID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			httputil.WriteBadRequest(w, "user does not exist")
			return
		}
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to look up user")
		httputil.WriteInternalError(w, err)
		return
	}

	contributor := &tracker.Contributor{
		UserID:    req.UserID,
		ProjectID: projectID,
		Role:      req.Role,
	}
	if err := s.store.AddContributor(r.Context(), contributor); err != nil {
		if errors.Is(err, tracker.ErrContributorExists) {
			httputil.WriteErrorMessage(w, http.StatusConflict, "user is already a contributor")
			return
		}
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to add contributor")
		httputil.WriteInternalError(w, err)
		return
	}

	s.recordMutation(r, audit.EventTypeContributorAdd, audit.ResourceTypeContributor, formatID(contributor.ID))
	httputil.WriteCreated(w, contributor)
}

// removeContributor handles DELETE /api/projects/{projectID}/contributors/{userID}.
// Removal does not touch resources the user authored; their issues and
// comments stay, frozen for the stale author until membership returns.
func (s *Server) removeContributor(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userID")
	if !ok {
		return
	}

	chain, ok := s.resolve(w, r, tracker.PathRef{ProjectID: projectID})
	if !ok {
		return
	}

	identity := middleware.GetIdentity(r)
	decision, err := s.engine.AuthorizeProject(r.Context(), identity, policy.ProjectManageContributors, chain.Project)
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("authorization failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "contributor", "remove", formatID(projectID), decision)
		return
	}
	s.allow("contributor", "remove")

	if err := s.store.RemoveContributor(r.Context(), projectID, userID); err != nil {
		if errors.Is(err, tracker.ErrContributorNotFound) {
			httputil.WriteNotFound(w, "contributor not found")
			return
		}
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to remove contributor")
		httputil.WriteInternalError(w, err)
		return
	}

	s.recordMutation(r, audit.EventTypeContributorRemove, audit.ResourceTypeContributor, formatID(userID))
	httputil.WriteNoContent(w)
}

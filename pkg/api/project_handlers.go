package api

import (
	"net/http"

	"github.com/taskdesk/taskdesk/pkg/audit"
	"github.com/taskdesk/taskdesk/pkg/httputil"
	"github.com/taskdesk/taskdesk/pkg/middleware"
	"github.com/taskdesk/taskdesk/pkg/policy"
	"github.com/taskdesk/taskdesk/pkg/tracker"
)

// listProjects handles GET /api/projects. The visibility filter scopes the
// result to the caller's memberships.
func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	projects, decision, err := s.filter.VisibleProjects(r.Context(), identity)
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to list projects")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "project", "list", "", decision)
		return
	}
	s.allow("project", "list")

	httputil.WriteSuccess(w, projects)
}

// createProject handles POST /api/projects. The creator becomes the project's
// MANAGER contributor in the same transaction as the insert.
func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	if decision := s.engine.CanCreateProject(identity); !decision.Allowed {
		s.deny(w, r, "project", "create", "", decision)
		return
	}
	s.allow("project", "create")

	var req tracker.CreateProjectRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}
	if !req.Type.Valid() {
		httputil.WriteBadRequest(w, "invalid project type")
		return
	}

	project := &tracker.Project{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		AuthorID:    identity.UserID,
	}
	if err := s.store.CreateProjectWithManager(r.Context(), project); err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to create project")
		httputil.WriteInternalError(w, err)
		return
	}

	s.recordMutation(r, audit.EventTypeProjectCreate, audit.ResourceTypeProject, formatID(project.ID))
	httputil.WriteCreated(w, project)
}

// getProject handles GET /api/projects/{projectID}
func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
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
		s.deny(w, r, "project", "read", formatID(projectID), decision)
		return
	}
	s.allow("project", "read")

	httputil.WriteSuccess(w, chain.Project)
}

// updateProject handles PATCH /api/projects/{projectID}
func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}

	chain, ok := s.resolve(w, r, tracker.PathRef{ProjectID: projectID})
	if !ok {
		return
	}

	identity := middleware.GetIdentity(r)
	decision, err := s.engine.AuthorizeProject(r.Context(), identity, policy.ProjectUpdate, chain.Project)
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("authorization failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "project", "update", formatID(projectID), decision)
		return
	}
	s.allow("project", "update")

	var req tracker.UpdateProjectRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	project := chain.Project
	if req.Name != nil {
		if *req.Name == "" {
			httputil.WriteBadRequest(w, "name cannot be empty")
			return
		}
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			httputil.WriteBadRequest(w, "invalid project type")
			return
		}
		project.Type = *req.Type
	}

	if err := s.store.UpdateProject(r.Context(), project); err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to update project")
		httputil.WriteInternalError(w, err)
		return
	}

	s.recordMutation(r, audit.EventTypeProjectUpdate, audit.ResourceTypeProject, formatID(projectID))
	httputil.WriteSuccess(w, project)
}

// deleteProject handles DELETE /api/projects/{projectID}. Contributors,
// issues, and comments cascade.
func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}

	chain, ok := s.resolve(w, r, tracker.PathRef{ProjectID: projectID})
	if !ok {
		return
	}

	identity := middleware.GetIdentity(r)
	decision, err := s.engine.AuthorizeProject(r.Context(), identity, policy.ProjectDelete, chain.Project)
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("authorization failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "project", "delete", formatID(projectID), decision)
		return
	}
	s.allow("project", "delete")

	if err := s.store.DeleteProject(r.Context(), projectID); err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to delete project")
		httputil.WriteInternalError(w, err)
		return
	}

	s.recordMutation(r, audit.EventTypeProjectDelete, audit.ResourceTypeProject, formatID(projectID))
	httputil.WriteNoContent(w)
}

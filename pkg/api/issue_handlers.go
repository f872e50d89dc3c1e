package api

import (
	"errors"
	"net/http"

	"github.com/taskdesk/taskdesk/pkg/audit"
	"github.com/taskdesk/taskdesk/pkg/httputil"
	"github.com/taskdesk/taskdesk/pkg/middleware"
	"github.com/taskdesk/taskdesk/pkg/policy"
	"github.com/taskdesk/taskdesk/pkg/tracker"
)

// lookupAssignee resolves an assignee contributor ID, returning nil when no
// such contributor exists. The policy engine turns a nil assignee into an
// invalid_assignee denial.
func (s *Server) lookupAssignee(r *http.Request, contributorID int64) (*tracker.Contributor, error) {
	assignee, err := s.store.GetContributor(r.Context(), contributorID)
	if errors.Is(err, tracker.ErrContributorNotFound) {
		return nil, nil
	}
	return assignee, err
}

// listIssues handles GET /api/projects/{projectID}/issues
func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}

	chain, ok := s.resolve(w, r, tracker.PathRef{ProjectID: projectID})
	if !ok {
		return
	}

	identity := middleware.GetIdentity(r)
	issues, decision, err := s.filter.VisibleIssues(r.Context(), identity, chain.Project)
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to list issues")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "issue", "list", formatID(projectID), decision)
		return
	}
	s.allow("issue", "list")

	httputil.WriteSuccess(w, issues)
}

// createIssue handles POST /api/projects/{projectID}/issues
func (s *Server) createIssue(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}

	chain, ok := s.resolve(w, r, tracker.PathRef{ProjectID: projectID})
	if !ok {
		return
	}

	var req tracker.CreateIssueRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.WriteBadRequest(w, "name is required")
		return
	}
	if !req.Priority.Valid() {
		httputil.WriteBadRequest(w, "invalid priority")
		return
	}
	if !req.Tag.Valid() {
		httputil.WriteBadRequest(w, "invalid tag")
		return
	}

	assignee, err := s.lookupAssignee(r, req.AssigneeContributorID)
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to look up assignee")
		httputil.WriteInternalError(w, err)
		return
	}

	identity := middleware.GetIdentity(r)
	decision, err := s.engine.AuthorizeIssue(r.Context(), identity, policy.IssueCreate, policy.IssueContext{
		Project:  chain.Project,
		Assignee: assignee,
	})
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("authorization failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "issue", "create", formatID(projectID), decision)
		return
	}
	s.allow("issue", "create")

	issue := &tracker.Issue{
		ProjectID:             projectID,
		AuthorID:              identity.UserID,
		AssigneeContributorID: req.AssigneeContributorID,
		Name:                  req.Name,
		Description:           req.Description,
		Priority:              req.Priority,
		Tag:                   req.Tag,
		Status:                tracker.StatusToDo,
	}
	if err := s.store.CreateIssue(r.Context(), issue); err != nil {
		if errors.Is(err, tracker.ErrInvalidAssignee) {
			httputil.WriteDecision(w, policy.Deny(policy.ReasonInvalidAssignee))
			return
		}
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to create issue")
		httputil.WriteInternalError(w, err)
		return
	}

	s.recordMutation(r, audit.EventTypeIssueCreate, audit.ResourceTypeIssue, formatID(issue.ID))
	httputil.WriteCreated(w, issue)
}

// getIssue handles GET /api/projects/{projectID}/issues/{issueID}
func (s *Server) getIssue(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}
	issueID, ok := httputil.ParsePathInt64OrError(w, r, "issueID")
	if !ok {
		return
	}

	chain, ok := s.resolve(w, r, tracker.PathRef{ProjectID: projectID, IssueID: &issueID})
	if !ok {
		return
	}

	identity := middleware.GetIdentity(r)
	decision, err := s.engine.AuthorizeIssue(r.Context(), identity, policy.IssueRead, policy.IssueContext{
		Project: chain.Project,
		Issue:   chain.Issue,
	})
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("authorization failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "issue", "read", formatID(issueID), decision)
		return
	}
	s.allow("issue", "read")

	httputil.WriteSuccess(w, chain.Issue)
}

// updateIssue handles PATCH /api/projects/{projectID}/issues/{issueID}
func (s *Server) updateIssue(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}
	issueID, ok := httputil.ParsePathInt64OrError(w, r, "issueID")
	if !ok {
		return
	}

	chain, ok := s.resolve(w, r, tracker.PathRef{ProjectID: projectID, IssueID: &issueID})
	if !ok {
		return
	}

	identity := middleware.GetIdentity(r)
	decision, err := s.engine.AuthorizeIssue(r.Context(), identity, policy.IssueUpdate, policy.IssueContext{
		Project: chain.Project,
		Issue:   chain.Issue,
	})
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("authorization failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "issue", "update", formatID(issueID), decision)
		return
	}
	s.allow("issue", "update")

	var req tracker.UpdateIssueRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	issue := chain.Issue
	if req.Name != nil {
		if *req.Name == "" {
			httputil.WriteBadRequest(w, "name cannot be empty")
			return
		}
		issue.Name = *req.Name
	}
	if req.Description != nil {
		issue.Description = *req.Description
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			httputil.WriteBadRequest(w, "invalid priority")
			return
		}
		issue.Priority = *req.Priority
	}
	if req.Tag != nil {
		if !req.Tag.Valid() {
			httputil.WriteBadRequest(w, "invalid tag")
			return
		}
		issue.Tag = *req.Tag
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			httputil.WriteBadRequest(w, "invalid status")
			return
		}
		issue.Status = *req.Status
	}
	if req.AssigneeContributorID != nil {
		issue.AssigneeContributorID = *req.AssigneeContributorID
	}

	if err := s.store.UpdateIssue(r.Context(), issue); err != nil {
		switch {
		case errors.Is(err, tracker.ErrInvalidAssignee):
			httputil.WriteDecision(w, policy.Deny(policy.ReasonInvalidAssignee))
		case errors.Is(err, tracker.ErrIssueNotFound):
			httputil.WriteDecision(w, policy.Deny(policy.ReasonNotFound))
		default:
			s.logger.FromContext(r.Context()).WithError(err).Error("failed to update issue")
			httputil.WriteInternalError(w, err)
		}
		return
	}

	s.recordMutation(r, audit.EventTypeIssueUpdate, audit.ResourceTypeIssue, formatID(issueID))
	httputil.WriteSuccess(w, issue)
}

// deleteIssue handles DELETE /api/projects/{projectID}/issues/{issueID}
func (s *Server) deleteIssue(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}
	issueID, ok := httputil.ParsePathInt64OrError(w, r, "issueID")
	if !ok {
		return
	}

	chain, ok := s.resolve(w, r, tracker.PathRef{ProjectID: projectID, IssueID: &issueID})
	if !ok {
		return
	}

	identity := middleware.GetIdentity(r)
	decision, err := s.engine.AuthorizeIssue(r.Context(), identity, policy.IssueDelete, policy.IssueContext{
		Project: chain.Project,
		Issue:   chain.Issue,
	})
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("authorization failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "issue", "delete", formatID(issueID), decision)
		return
	}
	s.allow("issue", "delete")

	if err := s.store.DeleteIssue(r.Context(), issueID); err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to delete issue")
		httputil.WriteInternalError(w, err)
		return
	}

	s.recordMutation(r, audit.EventTypeIssueDelete, audit.ResourceTypeIssue, formatID(issueID))
	httputil.WriteNoContent(w)
}

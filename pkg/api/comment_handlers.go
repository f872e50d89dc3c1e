package api

import (
	"net/http"

	"github.com/taskdesk/taskdesk/pkg/audit"
	"github.com/taskdesk/taskdesk/pkg/httputil"
	"github.com/taskdesk/taskdesk/pkg/middleware"
	"github.com/taskdesk/taskdesk/pkg/policy"
	"github.com/taskdesk/taskdesk/pkg/tracker"
)

// listComments handles GET /api/projects/{projectID}/issues/{issueID}/comments
func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
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
	comments, decision, err := s.filter.VisibleComments(r.Context(), identity, chain.Project, chain.Issue)
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to list comments")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "comment", "list", formatID(issueID), decision)
		return
	}
	s.allow("comment", "list")

	httputil.WriteSuccess(w, comments)
}

// createComment handles POST /api/projects/{projectID}/issues/{issueID}/comments
func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
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
	decision, err := s.engine.AuthorizeComment(r.Context(), identity, policy.CommentCreate, policy.CommentContext{
		Project: chain.Project,
		Issue:   chain.Issue,
	})
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("authorization failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "comment", "create", formatID(issueID), decision)
		return
	}
	s.allow("comment", "create")

	var req tracker.CreateCommentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Description == "" {
		httputil.WriteBadRequest(w, "description is required")
		return
	}

	comment := &tracker.Comment{
		IssueID:     issueID,
		AuthorID:    identity.UserID,
		Description: req.Description,
	}
	if err := s.store.CreateComment(r.Context(), comment); err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to create comment")
		httputil.WriteInternalError(w, err)
		return
	}

	s.recordMutation(r, audit.EventTypeCommentCreate, audit.ResourceTypeComment, comment.ID.String())
	httputil.WriteCreated(w, comment)
}

// getComment handles GET /api/projects/{projectID}/issues/{issueID}/comments/{commentID}
func (s *Server) getComment(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}
	issueID, ok := httputil.ParsePathInt64OrError(w, r, "issueID")
	if !ok {
		return
	}
	commentID, ok := httputil.ParsePathUUIDOrError(w, r, "commentID")
	if !ok {
		return
	}

	chain, ok := s.resolve(w, r, tracker.PathRef{ProjectID: projectID, IssueID: &issueID, CommentID: &commentID})
	if !ok {
		return
	}

	identity := middleware.GetIdentity(r)
	decision, err := s.engine.AuthorizeComment(r.Context(), identity, policy.CommentRead, policy.CommentContext{
		Project: chain.Project,
		Issue:   chain.Issue,
		Comment: chain.Comment,
	})
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("authorization failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "comment", "read", commentID.String(), decision)
		return
	}
	s.allow("comment", "read")

	httputil.WriteSuccess(w, chain.Comment)
}

// updateComment handles PATCH /api/projects/{projectID}/issues/{issueID}/comments/{commentID}
func (s *Server) updateComment(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}
	issueID, ok := httputil.ParsePathInt64OrError(w, r, "issueID")
	if !ok {
		return
	}
	commentID, ok := httputil.ParsePathUUIDOrError(w, r, "commentID")
	if !ok {
		return
	}

	chain, ok := s.resolve(w, r, tracker.PathRef{ProjectID: projectID, IssueID: &issueID, CommentID: &commentID})
	if !ok {
		return
	}

	identity := middleware.GetIdentity(r)
	decision, err := s.engine.AuthorizeComment(r.Context(), identity, policy.CommentUpdate, policy.CommentContext{
		Project: chain.Project,
		Issue:   chain.Issue,
		Comment: chain.Comment,
	})
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("authorization failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "comment", "update", commentID.String(), decision)
		return
	}
	s.allow("comment", "update")

	var req tracker.UpdateCommentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Description == "" {
		httputil.WriteBadRequest(w, "description is required")
		return
	}

	comment := chain.Comment
	comment.Description = req.Description
	if err := s.store.UpdateComment(r.Context(), comment); err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to update comment")
		httputil.WriteInternalError(w, err)
		return
	}

	s.recordMutation(r, audit.EventTypeCommentUpdate, audit.ResourceTypeComment, commentID.String())
	httputil.WriteSuccess(w, comment)
}

// deleteComment handles DELETE /api/projects/{projectID}/issues/{issueID}/comments/{commentID}
func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}
	issueID, ok := httputil.ParsePathInt64OrError(w, r, "issueID")
	if !ok {
		return
	}
	commentID, ok := httputil.ParsePathUUIDOrError(w, r, "commentID")
	if !ok {
		return
	}

	chain, ok := s.resolve(w, r, tracker.PathRef{ProjectID: projectID, IssueID: &issueID, CommentID: &commentID})
	if !ok {
		return
	}

	identity := middleware.GetIdentity(r)
	decision, err := s.engine.AuthorizeComment(r.Context(), identity, policy.CommentDelete, policy.CommentContext{
		Project: chain.Project,
		Issue:   chain.Issue,
		Comment: chain.Comment,
	})
	if err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("authorization failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if !decision.Allowed {
		s.deny(w, r, "comment", "delete", commentID.String(), decision)
		return
	}
	s.allow("comment", "delete")

	if err := s.store.DeleteComment(r.Context(), commentID); err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to delete comment")
		httputil.WriteInternalError(w, err)
		return
	}

	s.recordMutation(r, audit.EventTypeCommentDelete, audit.ResourceTypeComment, commentID.String())
	httputil.WriteNoContent(w)
}

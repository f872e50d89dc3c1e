package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskdesk/taskdesk/pkg/audit"
	"github.com/taskdesk/taskdesk/pkg/auth"
	"github.com/taskdesk/taskdesk/pkg/httputil"
	"github.com/taskdesk/taskdesk/pkg/middleware"
	"github.com/taskdesk/taskdesk/pkg/observability"
	"github.com/taskdesk/taskdesk/pkg/policy"
	"github.com/taskdesk/taskdesk/pkg/tracker"
)

// Server represents the API server
type Server struct {
	store   tracker.Store
	locator *tracker.Locator
	engine  *policy.Engine
	filter  *policy.Filter
	users   *auth.Store
	tokens  *auth.TokenManager
	audit   audit.Logger
	logger  *observability.Logger
	metrics *observability.Metrics
	router  *mux.Router
}

// Options bundles the dependencies a Server needs
type Options struct {
	Store   tracker.Store
	Users   *auth.Store
	Tokens  *auth.TokenManager
	Audit   audit.Logger
	Logger  *observability.Logger
	Metrics *observability.Metrics

	// RateLimit is optional; nil uses the default limits
	RateLimit *middleware.RateLimitConfig
}

// NewServer creates a new API server and wires its routes
func NewServer(opts Options) *Server {
	if opts.Audit == nil {
		opts.Audit = audit.NopLogger{}
	}

	s := &Server{
		store:   opts.Store,
		locator: tracker.NewLocator(opts.Store),
		engine:  policy.NewEngine(opts.Store),
		filter:  policy.NewFilter(opts.Store),
		users:   opts.Users,
		tokens:  opts.Tokens,
		audit:   opts.Audit,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		router:  mux.NewRouter(),
	}

	s.setupRoutes(opts.RateLimit)
	return s
}

func (s *Server) setupRoutes(rateLimit *middleware.RateLimitConfig) {
	s.router.Use(middleware.RequestLogMiddleware(s.logger))
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}
	s.router.Use(middleware.NewRateLimiter(rateLimit).Handler)

	// Public routes
	s.router.HandleFunc("/api/auth/register", s.register).Methods("POST")
	s.router.HandleFunc("/api/auth/login", s.login).Methods("POST")

	// Everything else requires a bearer token
	protected := s.router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.NewAuthMiddleware(s.tokens, false).Handler)

	protected.HandleFunc("/auth/logout", s.logout).Methods("POST")

	protected.HandleFunc("/users/{userID}", s.getUser).Methods("GET")
	protected.HandleFunc("/users/{userID}", s.updateUser).Methods("PATCH")
	protected.HandleFunc("/users/{userID}", s.deleteUser).Methods("DELETE")

	protected.HandleFunc("/projects", s.listProjects).Methods("GET")
	protected.HandleFunc("/projects", s.createProject).Methods("POST")
	protected.HandleFunc("/projects/{projectID}", s.getProject).Methods("GET")
	protected.HandleFunc("/projects/{projectID}", s.updateProject).Methods("PATCH")
	protected.HandleFunc("/projects/{projectID}", s.deleteProject).Methods("DELETE")

	protected.HandleFunc("/projects/{projectID}/contributors", s.listContributors).Methods("GET")
	protected.HandleFunc("/projects/{projectID}/contributors", s.addContributor).Methods("POST")
	protected.HandleFunc("/projects/{projectID}/contributors/{userID}", s.removeContributor).Methods("DELETE")

	protected.HandleFunc("/projects/{projectID}/issues", s.listIssues).Methods("GET")
	protected.HandleFunc("/projects/{projectID}/issues", s.createIssue).Methods("POST")
	protected.HandleFunc("/projects/{projectID}/issues/{issueID}", s.getIssue).Methods("GET")
	protected.HandleFunc("/projects/{projectID}/issues/{issueID}", s.updateIssue).Methods("PATCH")
	protected.HandleFunc("/projects/{projectID}/issues/{issueID}", s.deleteIssue).Methods("DELETE")

	protected.HandleFunc("/projects/{projectID}/issues/{issueID}/comments", s.listComments).Methods("GET")
	protected.HandleFunc("/projects/{projectID}/issues/{issueID}/comments", s.createComment).Methods("POST")
	protected.HandleFunc("/projects/{projectID}/issues/{issueID}/comments/{commentID}", s.getComment).Methods("GET")
	protected.HandleFunc("/projects/{projectID}/issues/{issueID}/comments/{commentID}", s.updateComment).Methods("PATCH")
	protected.HandleFunc("/projects/{projectID}/issues/{issueID}/comments/{commentID}", s.deleteComment).Methods("DELETE")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// deny writes a denial and records it in metrics and the audit trail
func (s *Server) deny(w http.ResponseWriter, r *http.Request, resource, action, resourceID string, decision policy.Decision) {
	if s.metrics != nil {
		s.metrics.RecordDecision(resource, action, false, string(decision.Reason))
	}

	identity := middleware.GetIdentity(r)
	var userID *int64
	if identity.Authenticated() {
		userID = &identity.UserID
	}
	if err := s.audit.LogDenial(r.Context(), userID, audit.ResourceType(resource), resourceID, action, string(decision.Reason)); err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Warn("failed to record audit event")
	}

	httputil.WriteDecision(w, decision)
}

// allow records an allowed decision in metrics
func (s *Server) allow(resource, action string) {
	if s.metrics != nil {
		s.metrics.RecordDecision(resource, action, true, "")
	}
}

// recordMutation records a successful mutation in the audit trail
func (s *Server) recordMutation(r *http.Request, eventType audit.EventType, resource audit.ResourceType, resourceID string) {
	identity := middleware.GetIdentity(r)
	var userID *int64
	if identity.Authenticated() {
		userID = &identity.UserID
	}
	if err := s.audit.LogMutation(r.Context(), eventType, userID, resource, resourceID); err != nil {
		s.logger.FromContext(r.Context()).WithError(err).Warn("failed to record audit event")
	}
}

// resolve runs the locator, translating resolution failures into 404s. The
// bool reports whether the chain is usable.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request, ref tracker.PathRef) (*tracker.Chain, bool) {
	chain, err := s.locator.Resolve(r.Context(), ref)
	if err != nil {
		if _, ok := tracker.AsNotFound(err); ok {
			httputil.WriteDecision(w, policy.Deny(policy.ReasonNotFound))
			return nil, false
		}
		s.logger.FromContext(r.Context()).WithError(err).Error("failed to resolve resource path")
		httputil.WriteInternalError(w, err)
		return nil, false
	}
	return chain, true
}

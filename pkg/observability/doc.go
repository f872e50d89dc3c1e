// Package observability provides structured logging, Prometheus metrics, and
// health checks.
//
// # Overview
//
// This package centralizes observability infrastructure: a slog-backed JSON
// logger, a registry of taskdesk metrics, and liveness/readiness probes over
// the database and the optional Redis cache.
//
// # Structured Logging
//
// Create a logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("port", 8080).Info("server started")
//
// # Prometheus Metrics
//
// Initialize and record metrics:
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.AuthzDecisionsTotal.WithLabelValues("project", "update", "not_manager").Inc()
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	status := checker.Check(ctx)
//
// # Related Packages
//
//   - pkg/middleware: Request logging middleware built on the Logger
//   - pkg/config: Observability configuration
package observability

// Package logger constructs the structured logger shared by every subsystem
// of the cache engine. It exists to satisfy a single call site convention used
// throughout internal/engine, internal/index, internal/arena and
// internal/cluster (pkg/ybc.Open builds one with New from a service name):
// every constructor takes a *zap.SugaredLogger explicitly, never a package-level
// global, so tests can inject a test-scoped logger and production code can wire
// in whatever sink the host application prefers.
package logger

import (
	"go.uber.org/zap"
)

// New builds a *zap.SugaredLogger tagged with the owning service/component name.
// In production this is a JSON production config; tests should prefer NewNop
// instead of routing through New.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	logger, err := cfg.Build()
	if err != nil {
		// Logging construction failures must never take down the caller; fall
		// back to a no-op logger so Set/Get/Close keep working without
		// observability rather than panicking during ybc.Open.
		return zap.NewNop().Sugar()
	}
	return logger.Sugar().With("service", service)
}

// NewNop returns a logger that discards everything, used as a safe default
// when no service name is available (e.g. anonymous caches opened without a
// supplied logger).
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// NewDevelopment builds a human-readable, colorized logger suitable for the
// ybcctl CLI and for running tests with -v.
func NewDevelopment(service string) *zap.SugaredLogger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar().With("service", service)
}

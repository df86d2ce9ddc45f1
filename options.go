package foreman

import (
	"log/slog"

	"github.com/xraph/foreman/audit"
	"github.com/xraph/foreman/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithAuditLog enables decision logging to the given store. Audit write
// failures are logged, never returned to the caller.
func WithAuditLog(s audit.Store) Option { return func(e *Engine) { e.audit = s } }

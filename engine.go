package foreman

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/foreman/audit"
	"github.com/xraph/foreman/grant"
	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/project"
	"github.com/xraph/foreman/store"
	"github.com/xraph/foreman/task"
)

// Engine is the authorization engine. It is a pure predicate over current
// entity state: results are recomputed on every call, never cached, because
// a grant may change between calls. The superuser bypass is evaluated here
// first and nowhere else.
type Engine struct {
	store  store.Store
	audit  audit.Store
	logger *slog.Logger
	config Config
}

// NewEngine creates a new foreman engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("foreman: store is required")
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// CheckTask evaluates whether the actor may perform the given level of
// access on the task. This is the hot path.
func (e *Engine) CheckTask(ctx context.Context, actor Actor, t *task.Task, level grant.Level) (*CheckResult, error) {
	start := time.Now()

	if !level.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}

	result, err := e.evaluateTask(ctx, actor, t, level)
	if err != nil {
		return nil, fmt.Errorf("foreman: check task %s: %w", t.ID, err)
	}
	result.EvalTimeNs = time.Since(start).Nanoseconds()

	e.record(ctx, actor, string(level), "task", t.ID.String(), result)
	return result, nil
}

func (e *Engine) evaluateTask(ctx context.Context, actor Actor, t *task.Task, level grant.Level) (*CheckResult, error) {
	// 1. Superuser bypass, always first.
	if actor.Superuser {
		return &CheckResult{Allowed: true, Decision: DecisionAllowSuperuser}, nil
	}

	// 2. Explicit grant, checked by level implication.
	g, ok, err := e.store.FindGrant(ctx, actor.ID, t.ID)
	if err != nil {
		return nil, fmt.Errorf("grant lookup: %w", err)
	}
	if ok {
		if g.Level.Implies(level) {
			return &CheckResult{Allowed: true, Decision: DecisionAllowGrant}, nil
		}
		return &CheckResult{
			Decision: DecisionDenyGrantLevel,
			Reason:   fmt.Sprintf("grant level %s does not imply %s", g.Level, level),
		}, nil
	}

	// 3. No grant: owner fallback per the pinned policy.
	if t.OwnerID.String() == actor.ID.String() {
		switch e.config.ownerFallback() {
		case OwnerFallbackFull:
			return &CheckResult{Allowed: true, Decision: DecisionAllowOwner}, nil
		default:
			if level == grant.LevelView {
				return &CheckResult{Allowed: true, Decision: DecisionAllowOwner}, nil
			}
			return &CheckResult{
				Decision: DecisionDenyNoGrant,
				Reason:   "owner holds view only without an explicit grant",
			}, nil
		}
	}

	return &CheckResult{Decision: DecisionDenyNoGrant, Reason: "no grant for actor on task"}, nil
}

// CheckProject evaluates whether the actor may perform the given level of
// access on the project. Project access is binary owner/admin: view and
// edit pass for the owner or a superuser; delete passes for the owner only.
func (e *Engine) CheckProject(ctx context.Context, actor Actor, p *project.Project, level grant.Level) (*CheckResult, error) {
	start := time.Now()

	if !level.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}

	result := e.evaluateProject(actor, p, level)
	result.EvalTimeNs = time.Since(start).Nanoseconds()

	e.record(ctx, actor, string(level), "project", p.ID.String(), result)
	return result, nil
}

func (e *Engine) evaluateProject(actor Actor, p *project.Project, level grant.Level) *CheckResult {
	isOwner := p.OwnerID.String() == actor.ID.String()

	// Delete is owner-only: superusers may update a project but not delete
	// it. The asymmetry is deliberate.
	if level == grant.LevelDelete {
		if isOwner {
			return &CheckResult{Allowed: true, Decision: DecisionAllowOwner}
		}
		return &CheckResult{Decision: DecisionDenyNotOwner, Reason: "only the project owner may delete it"}
	}

	if actor.Superuser {
		return &CheckResult{Allowed: true, Decision: DecisionAllowSuperuser}
	}
	if isOwner {
		return &CheckResult{Allowed: true, Decision: DecisionAllowOwner}
	}
	return &CheckResult{Decision: DecisionDenyNotOwner, Reason: "actor is not the project owner"}
}

// EnforceTask returns ErrAccessDenied if the task check is denied.
func (e *Engine) EnforceTask(ctx context.Context, actor Actor, t *task.Task, level grant.Level) error {
	result, err := e.CheckTask(ctx, actor, t, level)
	if err != nil {
		return fmt.Errorf("foreman check: %w", err)
	}
	if !result.Allowed {
		return fmt.Errorf("%w: %s: %s", ErrAccessDenied, result.Decision, result.Reason)
	}
	return nil
}

// EnforceProject returns ErrAccessDenied if the project check is denied.
func (e *Engine) EnforceProject(ctx context.Context, actor Actor, p *project.Project, level grant.Level) error {
	result, err := e.CheckProject(ctx, actor, p, level)
	if err != nil {
		return fmt.Errorf("foreman check: %w", err)
	}
	if !result.Allowed {
		return fmt.Errorf("%w: %s: %s", ErrAccessDenied, result.Decision, result.Reason)
	}
	return nil
}

// CanTask is a boolean shorthand for a task check.
func (e *Engine) CanTask(ctx context.Context, actor Actor, t *task.Task, level grant.Level) (bool, error) {
	result, err := e.CheckTask(ctx, actor, t, level)
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

// CanProject is a boolean shorthand for a project check.
func (e *Engine) CanProject(ctx context.Context, actor Actor, p *project.Project, level grant.Level) (bool, error) {
	result, err := e.CheckProject(ctx, actor, p, level)
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

// record writes a decision log entry when an audit store is configured, and
// logs denials at debug level.
func (e *Engine) record(ctx context.Context, actor Actor, action, resourceType, resourceID string, result *CheckResult) {
	if !result.Allowed {
		e.logger.Debug("access denied",
			"actor", actor.ID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
			"decision", result.Decision,
			"reason", result.Reason,
		)
	}
	if e.audit == nil {
		return
	}
	entry := &audit.Entry{
		ID:           id.NewDecisionID(),
		ActorID:      actor.ID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Decision:     string(result.Decision),
		Reason:       result.Reason,
		EvalTimeNs:   result.EvalTimeNs,
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.audit.CreateEntry(ctx, entry); err != nil {
		e.logger.Error("decision log write failed", "error", err)
	}
}

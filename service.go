package foreman

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/foreman/id"
	"github.com/xraph/foreman/store"
	"github.com/xraph/foreman/user"
)

// Service implements the project and task lifecycle on top of the Engine.
// Every mutation runs inside a store critical section so the authorization
// reads and the writes they guard observe consistent state.
type Service struct {
	engine *Engine
}

// NewService creates a lifecycle service backed by the given engine.
func NewService(engine *Engine) *Service {
	return &Service{engine: engine}
}

// Engine returns the underlying authorization engine.
func (s *Service) Engine() *Engine { return s.engine }

func (s *Service) store() store.Store { return s.engine.store }

// ResolveActor loads a user by ID and converts it to an Actor. Unknown IDs
// map to ErrUserNotFound.
func (s *Service) ResolveActor(ctx context.Context, userID id.UserID) (Actor, error) {
	u, err := s.store().GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Actor{}, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return Actor{}, fmt.Errorf("foreman: resolve actor: %w", err)
	}
	return ActorFromUser(u), nil
}

// RegisterUser persists a user reference so that ownership and grant foreign
// keys hold. Identity itself lives outside foreman.
func (s *Service) RegisterUser(ctx context.Context, u *user.User) error {
	if u.ID.IsNil() {
		u.ID = id.NewUserID()
	}
	if err := s.store().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("foreman: user %s already registered: %w", u.Username, err)
		}
		return fmt.Errorf("foreman: register user: %w", err)
	}
	return nil
}

// getUser translates the store sentinel into the user error kind.
func (s *Service) getUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	u, err := s.store().GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("foreman: get user: %w", err)
	}
	return u, nil
}

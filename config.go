package foreman

// OwnerFallback selects what a task owner may do when no explicit grant
// exists for them. The tracker this engine models shipped several mutually
// inconsistent answers; the policy is pinned here, once, instead of at call
// sites.
type OwnerFallback string

const (
	// OwnerFallbackView lets an ungranted owner view their task but requires
	// an explicit grant for edit or delete. This is the canonical default:
	// it fails safe.
	OwnerFallbackView OwnerFallback = "view"

	// OwnerFallbackFull lets an ungranted owner pass every level on their
	// own task.
	OwnerFallbackFull OwnerFallback = "full"
)

// Config holds configuration for the foreman engine.
type Config struct {
	// OwnerFallback is the owner-default policy applied when a task owner
	// holds no explicit grant. Defaults to OwnerFallbackView.
	OwnerFallback OwnerFallback `json:"owner_fallback,omitempty"`
}

// DefaultConfig returns a Config with the canonical policy.
func DefaultConfig() Config {
	return Config{
		OwnerFallback: OwnerFallbackView,
	}
}

func (c Config) ownerFallback() OwnerFallback {
	if c.OwnerFallback == "" {
		return OwnerFallbackView
	}
	return c.OwnerFallback
}

package identity

import "context"

// Store is the user record repository.
//
// Lookups return ok=false when nothing matches. Mutations are linearizable:
// each one re-reads the latest state, checks its invariants and persists
// before the next mutation starts.
type Store interface {
	FindByEmail(ctx context.Context, email string) (User, bool, error)
	FindByUsername(ctx context.Context, username string) (User, bool, error)
	FindByID(ctx context.Context, id string) (User, bool, error)

	// CreateLocal stores a new password account.
	// Fails with ConflictError on email first, then username.
	CreateLocal(ctx context.Context, username, email, password string) (User, error)

	// UpsertFederated returns the account for in.Email, creating it when absent.
	// An existing account only gains ExternalID if it had none.
	UpsertFederated(ctx context.Context, in FederatedInput) (User, error)

	UpdateProfile(ctx context.Context, id, username, email string) (User, error)
	UpdatePassword(ctx context.Context, id, password string) error
}

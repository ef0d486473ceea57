package interfaces

import "context"

type Migrator interface {
	// CurrentVersion returns the persisted schema version, "" for a fresh
	// store.
	CurrentVersion(ctx context.Context) (string, error)
	// Upgrade walks the registered transitions from the persisted version
	// to target. Not safe for concurrent execution against one store.
	Upgrade(ctx context.Context, target string) error
}

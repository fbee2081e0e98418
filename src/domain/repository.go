package domain

import "context"

// KeyValueStore is the durable local key-value store the memo list is mirrored into
type KeyValueStore interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error
}

// MemoRepository defines the interface for loading and saving the memo list
type MemoRepository interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
}

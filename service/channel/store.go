package channel

import "context"

// Store persists channels keyed by identifier. Get returns nil, nil when the
// key is absent; Remove of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, id string) (*Channel, error)
	GetAll(ctx context.Context) ([]Channel, error)
	Set(ctx context.Context, id string, c Channel) error
	Remove(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

package application

import "context"

// Store is the path-addressed realtime state store shared with the dashboard.
//
// Update merges the given fields into the value at path, Set overwrites it,
// and Push appends a new child with a store-assigned id. Listen streams
// change events for the subtree at path, invoking handler with the path of
// the change relative to the subscription root ("" for a full-subtree
// replace); it blocks until ctx is done or the initial attach fails.
type Store interface {
	Update(ctx context.Context, path string, values map[string]any) error
	Set(ctx context.Context, path string, value any) error
	Push(ctx context.Context, path string, value any) (string, error)
	Listen(ctx context.Context, path string, handler func(path string, data any)) error
}

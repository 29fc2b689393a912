package store

import "context"

// Mutation runs one optimistic write against a single cache key:
//
//  1. snapshot the current cached value (if any)
//  2. apply Transform to it and write the result into the store, visible
//     to readers before the network resolves
//  3. run Call against the backend
//  4. on success, reconcile: a non-nil response becomes the new cached
//     value; a nil response keeps the optimistic value and marks it fresh
//  5. on failure, restore the snapshot verbatim and return the error
//
// When the key holds no value, the optimistic step is skipped and the
// entry is invalidated after a successful call so the next read fetches
// the settled state.
//
// Concurrent mutations on the same key linearize naturally: a second
// mutation snapshots the current (possibly still-optimistic) value, and
// its rollback restores that immediately-preceding value, not the
// original server value.
type Mutation[T any] struct {
	Store *Store
	Key   string

	// Transform must be pure: build a new value rather than mutating
	// shared slices or maps inside its input.
	Transform func(T) T

	// Call performs the network request. A nil *T result means the server
	// returned no body.
	Call func(ctx context.Context) (*T, error)
}

// Run executes the mutation. The cache is never left holding the
// optimistic value after Run returns: it resolves to either the server
// response, the marked-fresh optimistic value, or the rollback snapshot.
func (m Mutation[T]) Run(ctx context.Context) error {
	snapshot, had := Value[T](m.Store, m.Key)
	if had && m.Transform != nil {
		m.Store.Set(m.Key, m.Transform(snapshot))
	}

	result, err := m.Call(ctx)
	if err != nil {
		if had {
			m.Store.Set(m.Key, snapshot)
		}
		return err
	}

	switch {
	case result != nil:
		m.Store.Set(m.Key, *result)
	case had:
		m.Store.MarkFresh(m.Key)
	default:
		// nothing was cached and the server returned no body; force a
		// fetch-after-settle on next read
		m.Store.Invalidate(m.Key)
	}
	return nil
}

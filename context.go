package panicctx

import (
	"context"

	"github.com/peterbourgon/panicctx/internal/pcdebug"
)

type storeContextKey struct{}

var storeContextVal storeContextKey

// NewContext creates a new store, and returns a context containing that store,
// as well as the store itself. Any store already in the context is shadowed by
// the new one.
//
// Creating a store also installs the dumping hook, if it isn't already.
func NewContext(ctx context.Context) (context.Context, *Store) {
	hooks.ensureInstalled()
	pcdebug.StoreNewCount.Add(1)
	s := newStore()
	return context.WithValue(ctx, storeContextVal, s), s
}

// FromContext returns the store in the context, if it exists. If not, an
// "orphan" store is created and returned, but not injected into the context.
// Entries pushed to an orphan store are only reported by their own handles.
func FromContext(ctx context.Context) *Store {
	if s, ok := MaybeFromContext(ctx); ok {
		return s
	}

	pcdebug.StoreOrphanCount.Add(1)
	return newStore()
}

// MaybeFromContext returns the store in the context, if it exists, with true as
// the second return value. If not, a nil store is returned, with false as the
// second return value.
func MaybeFromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(storeContextVal).(*Store)
	return s, ok
}

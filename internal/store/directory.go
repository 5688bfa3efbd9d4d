// Package store defines the persistence interfaces of the bridge.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a directory entry does not exist.
var ErrNotFound = errors.New("store: not found")

// Directory maps linked-identity users to canonical phone users.
// Entries are learned from the bridge's contact-sync frames; lookups are
// consulted by the identity resolver on every mention evaluation, so
// implementations should be cheap to call.
type Directory interface {
	// LookupPhone returns the phone user for a linked-identity user,
	// or ErrNotFound when no mapping is known.
	LookupPhone(ctx context.Context, lid string) (string, error)

	// Upsert records (or refreshes) a lid→phone mapping.
	Upsert(ctx context.Context, lid, phone string) error
}

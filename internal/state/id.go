package state

import "sync/atomic"

// ID uniquely identifies a facet, provider, or state field for the lifetime
// of the process. IDs are monotonically assigned and never reused.
//
// The engine only requires IDs to be unique across the set of extensions
// presented to a single Resolve call; a process-wide counter satisfies that
// trivially and keeps decorated copies of a field (which deliberately share
// an ID) cheap to express.
type ID uint64

// nextID is the process-wide ID allocator.
// Thread-safe: extensions may be defined from any goroutine.
var nextID atomic.Uint64

// newID returns the next unique entity ID.
func newID() ID {
	return ID(nextID.Add(1))
}

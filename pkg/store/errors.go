package store

import "errors"

// ErrNotFound is returned by read accessors when the requested block,
// transaction or tree entry does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrReservedTree is returned when code outside this package tries to open
// a contract tree using one of the reserved names (TreeZkas, TreeMonotree,
// TreeWasm).
var ErrReservedTree = errors.New("store: tree name is reserved")

// ErrOverlayConsumed is returned by Apply/Discard when called a second time
// on the same overlay, and by any mutation attempted after the first call.
var ErrOverlayConsumed = errors.New("store: overlay already applied or discarded")

package wasmvm

import "errors"

var (
	// ErrForbiddenHostCall is returned when a guest calls a host function
	// its current section does not permit.
	ErrForbiddenHostCall = errors.New("wasmvm: host call not permitted in this section")

	// ErrMissingExport is returned when a compiled module is missing one of
	// the four required exports or its memory export.
	ErrMissingExport = errors.New("wasmvm: module missing a required export")

	// ErrGuestMemory is returned when a host call's pointer/length pair
	// falls outside the guest's linear memory.
	ErrGuestMemory = errors.New("wasmvm: guest memory access out of bounds")
)

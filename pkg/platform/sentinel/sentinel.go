package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Store backends return these
// (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: record or collection does not exist
//   - ErrConflict: a versioned write lost against a concurrent writer
//   - ErrCorrupt: persisted bytes could not be decoded
//   - ErrAlreadyUsed: unique key (email, appointment payment) already taken
//   - ErrUnavailable: backend temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrCorrupt     = errors.New("corrupt")
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
)

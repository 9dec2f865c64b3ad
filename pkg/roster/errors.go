package roster

import "errors"

var (
	// ErrMemberNotFound is returned when no member has the requested key.
	ErrMemberNotFound = errors.New("member not found")
	// ErrMemberExists is returned when a name is already taken by another member.
	ErrMemberExists = errors.New("member already exists")
	// ErrInvalidName is returned for empty member names.
	ErrInvalidName = errors.New("member name must not be empty")
)

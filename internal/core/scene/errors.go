package scene

import "errors"

// Scene errors
var (
	ErrNonFiniteVector   = errors.New("vector component is not a finite number")
	ErrInvalidScale      = errors.New("invalid scale")
	ErrInvalidOffsetStep = errors.New("offset step not allowed")
	ErrInvalidOptions    = errors.New("invalid scene options")
)

package primitive

import "errors"

// Primitive builder errors
var (
	ErrInvalidGeometryParameter = errors.New("invalid geometry parameter")
	ErrInvalidAxis              = errors.New("invalid axis")
)

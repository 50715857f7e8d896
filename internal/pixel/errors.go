package pixel

import "errors"

// ErrOutOfBounds is returned by operations that require a point or rect to
// lie within the image's oriented bounds.
var ErrOutOfBounds = errors.New("pixel: out of bounds")

// ErrInvalidSize is returned when a requested width or height is <= 0.
var ErrInvalidSize = errors.New("pixel: invalid size")

// ErrDestroyed is returned by operations invoked on a destroyed image.
var ErrDestroyed = errors.New("pixel: image destroyed")

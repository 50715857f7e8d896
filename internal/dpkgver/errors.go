package dpkgver

import "errors"

// ErrInvalidSyntax is returned by Parse when the input violates the Debian
// version grammar.
var ErrInvalidSyntax = errors.New("dpkgver: invalid version syntax")

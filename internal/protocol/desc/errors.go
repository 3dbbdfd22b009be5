package desc

import "errors"

var (
	ErrEncoding       = errors.New("desc: encoding error")
	ErrTypeMismatch   = errors.New("desc: type mismatch")
	ErrInvalidKeyForm = errors.New("desc: invalid key form")
	ErrTruncated      = errors.New("desc: truncated data")
	ErrInvalidLength  = errors.New("desc: invalid length")
	ErrTooDeep        = errors.New("desc: nesting too deep")
	ErrDuplicateKey   = errors.New("desc: duplicate record key")
	ErrMissingKey     = errors.New("desc: missing record key")
)

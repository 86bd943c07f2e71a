package cscope

import (
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrMalformedHeader is returned when the prolog or epilog cannot be parsed
	ErrMalformedHeader = errors.Base("malformed cscope header")

	// ErrTruncatedInput is returned when the input ends inside a fixed-format section
	ErrTruncatedInput = errors.Base("truncated cscope database")

	// ErrLineTooLong is returned when a record exceeds the configured line length
	ErrLineTooLong = errors.Base("line too long")
)

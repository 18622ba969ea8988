package profile

import "errors"

// Subject-level failures abort the run. ErrEmptySample and ErrDivisionByZero
// are recoverable depending on where they occur.
var (
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrSubjectExcluded  = errors.New("subject excluded")
	ErrNoRankedHistory  = errors.New("no ranked history")
	ErrEmptySample      = errors.New("empty sample")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrMalformedMetrics = errors.New("malformed metrics")
)

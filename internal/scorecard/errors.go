package scorecard

import (
	"github.com/pkg/errors"
)

var (
	// ErrCarrierNotFound: the carrier has no rows in the requested weeks.
	ErrCarrierNotFound = errors.New("carrier not found")
	// ErrInvariantViolation means an upstream counting bug; reports must fail loudly.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrDataUnavailable is reported for failures of the external row source.
	ErrDataUnavailable = errors.New("data unavailable")
	ErrNoWeeks         = errors.New("no weeks selected")
)

// SourceError wraps a row source failure so callers can tell it apart from
// ErrCarrierNotFound while keeping the original cause.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return ErrDataUnavailable.Error() + ": " + e.Err.Error()
}

func (e *SourceError) Unwrap() []error {
	return []error{ErrDataUnavailable, e.Err}
}

func NewSourceError(err error) error {
	if err == nil {
		return nil
	}
	return &SourceError{Err: err}
}

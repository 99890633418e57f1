package models

import "errors"

// Input validation errors raised at the boundary of risk-cone and big-moves operations.
// Callers wrap them with context and match with errors.Is.
var (
	ErrInvalidTenor          = errors.New("invalid tenor")
	ErrInvalidPeriod         = errors.New("invalid period")
	ErrTenorExceedsRange     = errors.New("tenor exceeds schedule range")
	ErrEmptySeries           = errors.New("empty price series")
	ErrUnsupportedWindowSize = errors.New("unsupported window size")
	ErrInvalidPercentile     = errors.New("percentile must be in (0,1)")
	ErrInvalidFrequency      = errors.New("invalid frequency")
	ErrInvalidEndDate        = errors.New("end date must be after pricing date")
	ErrInvalidRequest        = errors.New("invalid request")
)

// IsInvalidInput reports whether err stems from caller input rather than
// market data or pricing failures.
func IsInvalidInput(err error) bool {
	for _, target := range []error{
		ErrInvalidTenor, ErrInvalidPeriod, ErrTenorExceedsRange, ErrUnsupportedWindowSize,
		ErrInvalidPercentile, ErrInvalidFrequency, ErrInvalidEndDate, ErrInvalidRequest,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

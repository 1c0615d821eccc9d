package models

import "errors"

// Error kinds raised while building one symbol's metrics. They are matched with
// errors.Is and never escape the screening call.
var (
	// ErrDataUnavailable: the provider has no data for the symbol or expiry.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInsufficientData: the series is too short for a required window.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrProviderFailure: transient or unknown fetch error.
	ErrProviderFailure = errors.New("provider failure")
)

// ErrorKind maps an error onto a short label for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrProviderFailure):
		return "provider_failure"
	default:
		return "unexpected"
	}
}

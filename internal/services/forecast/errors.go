package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData marks a topic with fewer than two observations.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrMalformedData marks an unparseable timestamp or a negative view count.
	ErrMalformedData = errors.New("malformed data")
	// ErrComputation marks an arithmetic failure while forecasting a topic.
	ErrComputation = errors.New("computation failed")
	// ErrInvalidConfig is returned by New for unusable settings.
	ErrInvalidConfig = errors.New("invalid forecaster configuration")
)

// TopicError reports why one topic was left out of a batch forecast.
type TopicError struct {
	Topic string
	Err   error
}

func (e *TopicError) Error() string {
	return fmt.Sprintf("forecast topic %q: %v", e.Topic, e.Err)
}

func (e *TopicError) Unwrap() error { return e.Err }

// Kind maps an error to a short label for logs and metrics.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrMalformedData):
		return "data"
	case errors.Is(err, ErrComputation):
		return "computation"
	default:
		return "unknown"
	}
}

package swap

import (
	"errors"
	"fmt"
)

// OutcomeKind classifies the result of one venue execution.
type OutcomeKind int

const (
	// OutcomeSuccess means the swap landed and confirmed.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeRouteUnavailable means the venue has no market for the token.
	// It is the only kind that lets the router try the next venue.
	OutcomeRouteUnavailable
	// OutcomeTransient means retries were exhausted on recoverable failures.
	OutcomeTransient
	// OutcomeHardReject means the venue or the chain refused the request.
	OutcomeHardReject
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRouteUnavailable:
		return "route_unavailable"
	case OutcomeTransient:
		return "transient"
	case OutcomeHardReject:
		return "hard_reject"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the tagged result of Adapter.Execute.
type Outcome struct {
	Kind      OutcomeKind
	Signature string // set on success, and on landing failures after broadcast
	Attempts  int
	Err       error
}

// Classification errors returned by TxBuilders. Anything else is transient.
var (
	ErrRouteUnavailable = errors.New("route unavailable")
	ErrHardReject       = errors.New("rejected")
)

func routeUnavailable(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrRouteUnavailable, fmt.Sprintf(format, args...))
}

func hardReject(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrHardReject, fmt.Sprintf(format, args...))
}

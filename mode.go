package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMode is returned when a deployment mode name is not recognised.
var ErrInvalidMode = errors.New("invalid deployment mode")

// Mode is the deployment mode. It is consulted once, when a pipeline is
// assembled.
type Mode int

const (
	// Development exposes full error detail and stack traces.
	Development Mode = iota
	// Production enables rate limiting and hides defect details.
	Production
)

// ParseMode converts "development" or "production" (case-insensitive) to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development":
		return Development, nil
	case "production":
		return Production, nil
	}
	return Development, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func (m Mode) String() string {
	switch m {
	case Development:
		return "development"
	case Production:
		return "production"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) valid() bool {
	return m == Development || m == Production
}

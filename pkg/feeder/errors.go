package feeder

import (
	"errors"
	"fmt"

	"github.com/robotalks/pnpfeeder/pkg/gcode"
)

var (
	// ErrAngleOutOfRange indicates an angle outside [0, 180] degrees.
	ErrAngleOutOfRange = errors.New("angle out of range")
	// ErrPwmValueOutOfRange indicates a PWM limit the servo can't produce.
	ErrPwmValueOutOfRange = errors.New("pwm value out of range")
	// ErrFeederDisabled is returned for motion requests while disabled.
	ErrFeederDisabled = errors.New("feeder disabled")
	// ErrFeederNotReady is returned when the feedback switch blocks a feed.
	ErrFeederNotReady = errors.New("feeder not ready")
	// ErrInvalidFeederCommandResponse indicates a response not matching
	// the request.
	ErrInvalidFeederCommandResponse = errors.New("invalid feeder command response")
)

// InvalidFeedLengthError is returned when a length is not a multiple of
// the feed step.
type InvalidFeedLengthError struct {
	Length gcode.Value
}

// Error implements error.
func (e *InvalidFeedLengthError) Error() string {
	return fmt.Sprintf("invalid feed length %s", e.Length)
}

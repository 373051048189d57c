package dispatch

import (
	"errors"
	"fmt"

	"github.com/robotalks/pnpfeeder/pkg/gcode"
)

// ErrNoIndex indicates a feeder command without the N argument.
var ErrNoIndex = errors.New("no index specified")

// UnsupportedCommandError is returned for unknown command words.
type UnsupportedCommandError struct {
	Word gcode.Word
}

// Error implements error.
func (e *UnsupportedCommandError) Error() string {
	return fmt.Sprintf("unsupported command %s", e.Word)
}

// InvalidIndexError is returned when N doesn't name a feeder.
type InvalidIndexError struct {
	Index int64
}

// Error implements error.
func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("no feeder %d", e.Index)
}

// InvalidArgumentError is returned for an argument the command doesn't take.
type InvalidArgumentError struct {
	Letter byte
}

// Error implements error.
func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument type %c", e.Letter)
}

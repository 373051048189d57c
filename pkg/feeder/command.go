package feeder

import (
	"github.com/shopspring/decimal"

	"github.com/robotalks/pnpfeeder/pkg/gcode"
)

// Command is a request sent to a feeder.
type Command interface {
	isCommand()
}

// SetConfigCommand replaces the feeder config.
type SetConfigCommand struct {
	Config Config
}

// GetConfigCommand reads the feeder config.
type GetConfigCommand struct{}

// SetServoAngleCommand moves the servo to an angle.
type SetServoAngleCommand struct {
	Angle gcode.Value
}

// AdvanceCommand feeds tape. Length defaults to the configured feed length.
type AdvanceCommand struct {
	Length        decimal.NullDecimal
	OverrideError bool
}

// EnableCommand enables or disables the feeder.
type EnableCommand struct {
	Enabled bool
}

func (SetConfigCommand) isCommand()     {}
func (GetConfigCommand) isCommand()     {}
func (SetServoAngleCommand) isCommand() {}
func (AdvanceCommand) isCommand()       {}
func (EnableCommand) isCommand()        {}

// Response answers exactly one Command.
// Config is only set in response to GetConfigCommand.
type Response struct {
	Config *Config
	Err    error
}

// ChannelQueueSize is the capacity of both queues of a Channel.
const ChannelQueueSize = 2

// Channel pairs one Client with one Feeder.
// Responses are matched to commands by order.
type Channel struct {
	commands  chan Command
	responses chan Response
}

// NewChannel creates a Channel.
func NewChannel() *Channel {
	return &Channel{
		commands:  make(chan Command, ChannelQueueSize),
		responses: make(chan Response, ChannelQueueSize),
	}
}

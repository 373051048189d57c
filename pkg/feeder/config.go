package feeder

import (
	"time"

	"github.com/robotalks/pnpfeeder/pkg/gcode"
)

// Config is the per-feeder configuration.
type Config struct {
	AdvancedAngle     gcode.Value
	HalfAdvancedAngle gcode.Value
	RetractAngle      gcode.Value
	// FeedLength in mm, used when an advance doesn't specify one.
	FeedLength gcode.Value
	// SettleTime in milliseconds, waited after each servo move.
	SettleTime        uint32
	Pwm0              gcode.Value
	Pwm180            gcode.Value
	IgnoreFeedbackPin bool
	AlwaysRetract     bool
}

var (
	defaultAdvancedAngle     = gcode.NewValue(135)
	defaultHalfAdvancedAngle = gcode.MustParseValue("107.5")
	defaultRetractAngle      = gcode.NewValue(80)
	defaultFeedLength        = gcode.NewValue(2)
)

const defaultSettleTime = 300

// DefaultConfig returns the built-in config for a servo with the limits.
func DefaultConfig(limits PwmLimits) Config {
	return Config{
		AdvancedAngle:     defaultAdvancedAngle,
		HalfAdvancedAngle: defaultHalfAdvancedAngle,
		RetractAngle:      defaultRetractAngle,
		FeedLength:        defaultFeedLength,
		SettleTime:        defaultSettleTime,
		Pwm0:              limits.Zero,
		Pwm180:            limits.OneEighty,
	}
}

// SettleDuration converts SettleTime to a time.Duration.
func (c *Config) SettleDuration() time.Duration {
	return time.Duration(c.SettleTime) * time.Millisecond
}

// Equal compares configs by value.
func (c *Config) Equal(o *Config) bool {
	return c.AdvancedAngle.Equal(o.AdvancedAngle) &&
		c.HalfAdvancedAngle.Equal(o.HalfAdvancedAngle) &&
		c.RetractAngle.Equal(o.RetractAngle) &&
		c.FeedLength.Equal(o.FeedLength) &&
		c.SettleTime == o.SettleTime &&
		c.Pwm0.Equal(o.Pwm0) &&
		c.Pwm180.Equal(o.Pwm180) &&
		c.IgnoreFeedbackPin == o.IgnoreFeedbackPin &&
		c.AlwaysRetract == o.AlwaysRetract
}

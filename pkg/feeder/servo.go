package feeder

import (
	"github.com/shopspring/decimal"

	"github.com/robotalks/pnpfeeder/pkg/gcode"
)

// PwmLimits are the PWM counts at 0 and 180 degrees.
type PwmLimits struct {
	Zero      gcode.Value
	OneEighty gcode.Value
}

var maxAngle = decimal.New(180, 0)

// ScaleAngle maps an angle in degrees linearly onto PWM counts.
func (l PwmLimits) ScaleAngle(angle gcode.Value) (gcode.Value, error) {
	if angle.IsNegative() || angle.GreaterThan(maxAngle) {
		return gcode.Value{}, ErrAngleOutOfRange
	}
	counts := l.Zero.Add(l.OneEighty.Sub(l.Zero).Mul(angle).Div(maxAngle))
	if err := gcode.CheckRange(counts); err != nil {
		return gcode.Value{}, err
	}
	return counts, nil
}

// Servo drives the feeder mechanism.
type Servo interface {
	// SetAngle moves the servo, failing with ErrAngleOutOfRange.
	SetAngle(angle gcode.Value) error
	// SetPwmLimits changes the calibration, failing with
	// ErrPwmValueOutOfRange.
	SetPwmLimits(zero, oneEighty gcode.Value) error
	PwmLimits() PwmLimits
}

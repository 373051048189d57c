package sim

import (
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/pnpfeeder/pkg/feeder"
	"github.com/robotalks/pnpfeeder/pkg/gcode"
)

// CountsPerPeriod is the PWM counter wrap of a 20ms servo period.
const CountsPerPeriod = 9804

var (
	periodCounts = gcode.NewValue(CountsPerPeriod)
	countsPerMs  = periodCounts.Div(gcode.NewValue(20))
)

// DefaultPwmLimits are the counts of 1ms and 2ms pulses.
func DefaultPwmLimits() feeder.PwmLimits {
	return feeder.PwmLimits{
		Zero:      countsPerMs,
		OneEighty: countsPerMs.Mul(gcode.NewValue(2)),
	}
}

// Servo simulates a PWM hobby servo.
type Servo struct {
	Name string

	lock    sync.Mutex
	limits  feeder.PwmLimits
	angle   gcode.Value
	counts  gcode.Value
	history []gcode.Value
}

// NewServo creates a Servo with DefaultPwmLimits.
func NewServo(name string) *Servo {
	return &Servo{Name: name, limits: DefaultPwmLimits()}
}

// SetAngle implements feeder.Servo.
func (s *Servo) SetAngle(angle gcode.Value) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	counts, err := s.limits.ScaleAngle(angle)
	if err != nil {
		return err
	}
	s.angle, s.counts = angle, counts
	s.history = append(s.history, angle)
	glog.V(2).Infof("servo %s: angle %s counts %s", s.Name, angle, counts.StringFixed(1))
	return nil
}

// SetPwmLimits implements feeder.Servo.
func (s *Servo) SetPwmLimits(zero, oneEighty gcode.Value) error {
	if !validCounts(zero) || !validCounts(oneEighty) {
		return feeder.ErrPwmValueOutOfRange
	}
	s.lock.Lock()
	s.limits = feeder.PwmLimits{Zero: zero, OneEighty: oneEighty}
	s.lock.Unlock()
	return nil
}

func validCounts(v gcode.Value) bool {
	return !v.IsNegative() && !v.GreaterThan(periodCounts)
}

// PwmLimits implements feeder.Servo.
func (s *Servo) PwmLimits() feeder.PwmLimits {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.limits
}

// Angle is the last angle set.
func (s *Servo) Angle() gcode.Value {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.angle
}

// Counts is the PWM compare value of the last angle.
func (s *Servo) Counts() gcode.Value {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.counts
}

// History returns every angle set so far.
func (s *Servo) History() []gcode.Value {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]gcode.Value(nil), s.history...)
}

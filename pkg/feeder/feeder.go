package feeder

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/shopspring/decimal"

	"github.com/robotalks/pnpfeeder/pkg/gcode"
	"github.com/robotalks/pnpfeeder/pkg/metrics"
)

var (
	// StepLength is the tape pitch advanced by a half stroke, in mm.
	StepLength = gcode.NewValue(2)
	// CycleLength is the tape advanced by a full stroke, in mm.
	CycleLength = gcode.NewValue(4)
)

// Feeder owns the servo and the feedback switch of one feeder and
// serves the commands received on its Channel.
type Feeder struct {
	// Now and Sleep are the clock used for pulses and settle delays.
	Now   func() time.Time
	Sleep func(time.Duration)

	name    string
	servo   Servo
	input   Input
	channel *Channel

	config  Config
	enabled bool
	// mm into the current stroke, 0 or StepLength.
	offset     gcode.Value
	recognizer PulseRecognizer
}

// New creates a disabled Feeder configured for the servo's PWM limits.
func New(name string, servo Servo, input Input, ch *Channel) *Feeder {
	return &Feeder{
		Now:     time.Now,
		Sleep:   time.Sleep,
		name:    name,
		servo:   servo,
		input:   input,
		channel: ch,
		config:  DefaultConfig(servo.PwmLimits()),
	}
}

// Name implements framework.Named.
func (f *Feeder) Name() string {
	return "feeder/" + f.name
}

// Run implements framework.Runnable.
func (f *Feeder) Run(ctx context.Context) error {
	changes := make(chan struct{}, 1)
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go f.watchFeedback(watchCtx, changes)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changes:
			f.feedbackChanged()
		case cmd := <-f.channel.commands:
			resp := f.handle(cmd)
			select {
			case f.channel.responses <- resp:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// watchFeedback only waits on the input, the actor reads the level.
func (f *Feeder) watchFeedback(ctx context.Context, changes chan<- struct{}) {
	for {
		if err := f.input.WaitForStateChange(ctx); err != nil {
			if ctx.Err() == nil {
				glog.Errorf("%s: feedback input failed: %v", f.Name(), err)
			}
			return
		}
		select {
		case changes <- struct{}{}:
		default:
		}
	}
}

func (f *Feeder) feedbackChanged() {
	if !f.recognizer.Update(f.input.State(), f.Now()) {
		return
	}
	glog.V(1).Infof("%s: feedback pulse", f.Name())
	err := f.advance(decimal.NullDecimal{}, true)
	metrics.Feeds.WithLabelValues(f.name, "feedback", metrics.Result(err)).Inc()
	if err != nil {
		glog.V(1).Infof("%s: feed on pulse: %v", f.Name(), err)
	}
}

func (f *Feeder) handle(cmd Command) Response {
	switch c := cmd.(type) {
	case SetConfigCommand:
		return Response{Err: f.setConfig(c.Config)}
	case GetConfigCommand:
		config := f.config
		return Response{Config: &config}
	case SetServoAngleCommand:
		return Response{Err: f.setServoAngle(c.Angle)}
	case AdvanceCommand:
		err := f.advance(c.Length, c.OverrideError)
		metrics.Feeds.WithLabelValues(f.name, "command", metrics.Result(err)).Inc()
		return Response{Err: err}
	case EnableCommand:
		f.enabled = c.Enabled
		glog.V(1).Infof("%s: enabled=%v", f.Name(), f.enabled)
		return Response{}
	}
	glog.Errorf("%s: unknown command %T", f.Name(), cmd)
	return Response{Err: ErrInvalidFeederCommandResponse}
}

func (f *Feeder) setConfig(config Config) error {
	if err := f.servo.SetPwmLimits(config.Pwm0, config.Pwm180); err != nil {
		return err
	}
	f.config = config
	return nil
}

func (f *Feeder) setServoAngle(angle gcode.Value) error {
	if !f.enabled {
		return ErrFeederDisabled
	}
	return f.servo.SetAngle(angle)
}

func (f *Feeder) advance(length decimal.NullDecimal, overrideError bool) error {
	if !f.enabled {
		return ErrFeederDisabled
	}
	if !overrideError && !f.config.IgnoreFeedbackPin && f.input.State() {
		return ErrFeederNotReady
	}
	remaining := f.config.FeedLength
	if length.Valid {
		remaining = length.Decimal
	}
	if remaining.IsNegative() || !remaining.Mod(StepLength).IsZero() {
		return &InvalidFeedLengthError{Length: remaining}
	}

	// the stroke cycles the feedback switch too.
	defer f.recognizer.Reset()
	for remaining.IsPositive() {
		step := decimal.Min(CycleLength.Sub(f.offset), remaining)
		target := f.offset.Add(step)
		angle := f.config.AdvancedAngle
		if target.Equal(StepLength) {
			angle = f.config.HalfAdvancedAngle
		}
		if err := f.move(angle); err != nil {
			return err
		}
		if f.config.AlwaysRetract || target.Equal(CycleLength) {
			if err := f.move(f.config.RetractAngle); err != nil {
				return err
			}
			f.offset = decimal.Zero
		} else {
			f.offset = target
		}
		remaining = remaining.Sub(step)
	}
	return nil
}

func (f *Feeder) move(angle gcode.Value) error {
	glog.V(2).Infof("%s: servo to %s", f.Name(), angle)
	if err := f.servo.SetAngle(angle); err != nil {
		return err
	}
	f.Sleep(f.config.SettleDuration())
	return nil
}

package feeder

import (
	"context"
	"sync"

	"github.com/robotalks/pnpfeeder/pkg/gcode"
)

var maxPwmCounts = gcode.NewValue(9804)

type fakeServo struct {
	lock   sync.Mutex
	limits PwmLimits
	angles []string
}

func newFakeServo() *fakeServo {
	return &fakeServo{limits: PwmLimits{
		Zero:      gcode.MustParseValue("490.2"),
		OneEighty: gcode.MustParseValue("980.4"),
	}}
}

func (s *fakeServo) SetAngle(angle gcode.Value) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, err := s.limits.ScaleAngle(angle); err != nil {
		return err
	}
	s.angles = append(s.angles, angle.String())
	return nil
}

func (s *fakeServo) SetPwmLimits(zero, oneEighty gcode.Value) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if zero.GreaterThan(maxPwmCounts) || oneEighty.GreaterThan(maxPwmCounts) {
		return ErrPwmValueOutOfRange
	}
	s.limits = PwmLimits{Zero: zero, OneEighty: oneEighty}
	return nil
}

func (s *fakeServo) PwmLimits() PwmLimits {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.limits
}

func (s *fakeServo) count() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.angles)
}

// moves returns the angles set since the last call.
func (s *fakeServo) moves() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	angles := s.angles
	s.angles = nil
	return angles
}

type fakeInput struct {
	lock    sync.Mutex
	state   bool
	changed chan struct{}
}

func newFakeInput(state bool) *fakeInput {
	return &fakeInput{state: state, changed: make(chan struct{})}
}

func (i *fakeInput) WaitForStateChange(ctx context.Context) error {
	i.lock.Lock()
	ch := i.changed
	i.lock.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *fakeInput) State() bool {
	i.lock.Lock()
	defer i.lock.Unlock()
	return i.state
}

func (i *fakeInput) set(state bool) {
	i.lock.Lock()
	defer i.lock.Unlock()
	i.state = state
	close(i.changed)
	i.changed = make(chan struct{})
}

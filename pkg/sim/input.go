package sim

import (
	"context"
	"sync"
	"time"
)

// Input simulates the feedback switch.
type Input struct {
	lock    sync.Mutex
	level   bool
	changed chan struct{}
}

// NewInput creates an Input at the level.
func NewInput(level bool) *Input {
	return &Input{level: level, changed: make(chan struct{})}
}

// WaitForStateChange implements feeder.Input.
func (i *Input) WaitForStateChange(ctx context.Context) error {
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

// State implements feeder.Input.
func (i *Input) State() bool {
	i.lock.Lock()
	defer i.lock.Unlock()
	return i.level
}

// Set changes the level and wakes up waiters if it differs.
func (i *Input) Set(level bool) {
	i.lock.Lock()
	defer i.lock.Unlock()
	if i.level == level {
		return
	}
	i.level = level
	close(i.changed)
	i.changed = make(chan struct{})
}

// Press pulls the level low for d, like a finger on the switch.
func (i *Input) Press(d time.Duration) {
	i.Set(false)
	time.Sleep(d)
	i.Set(true)
}

package feeder

import "context"

// Input is the feedback switch of a feeder.
type Input interface {
	// WaitForStateChange blocks until the level changes or ctx is done.
	WaitForStateChange(ctx context.Context) error
	// State reads the level. true means the feeder is not ready.
	State() bool
}

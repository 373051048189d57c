package link

import (
	"fmt"
	"io"
	"sync"
)

// Output is the reply sink of the dispatcher.
// It forwards writes to the connection of the current session.
type Output struct {
	lock sync.Mutex
	w    io.Writer
}

// Write implements io.Writer.
func (o *Output) Write(p []byte) (int, error) {
	o.lock.Lock()
	defer o.lock.Unlock()
	if o.w == nil {
		return 0, ErrDisconnected
	}
	n, err := o.w.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return n, nil
}

// Connected tells whether a connection is attached.
func (o *Output) Connected() bool {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.w != nil
}

func (o *Output) attach(w io.Writer) {
	o.lock.Lock()
	o.w = w
	o.lock.Unlock()
}

func (o *Output) detach(w io.Writer) {
	o.lock.Lock()
	if o.w == w {
		o.w = nil
	}
	o.lock.Unlock()
}

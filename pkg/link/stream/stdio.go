package stream

import (
	"context"
	"io"
	"os"
	"sync"
)

// Stdio yields a single connection over the process standard streams.
type Stdio struct {
	In  io.Reader
	Out io.Writer

	lock     sync.Mutex
	accepted bool
}

// NewStdio creates a Stdio on os.Stdin and os.Stdout.
func NewStdio() *Stdio {
	return &Stdio{In: os.Stdin, Out: os.Stdout}
}

// Accept implements link.Acceptor.
// The first call returns the connection, later calls block until ctx is done.
func (s *Stdio) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	s.lock.Lock()
	accepted := s.accepted
	s.accepted = true
	s.lock.Unlock()
	if accepted {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return newPipedConn(s.In, s.Out), nil
}

// pipedConn reads the input through a pipe so Close unblocks a pending
// Read even when the underlying reader can't be interrupted.
type pipedConn struct {
	*io.PipeReader
	out io.Writer
}

func newPipedConn(in io.Reader, out io.Writer) *pipedConn {
	r, w := io.Pipe()
	go func() {
		_, err := io.Copy(w, in)
		if err == nil {
			err = io.EOF
		}
		w.CloseWithError(err)
	}()
	return &pipedConn{PipeReader: r, out: out}
}

func (c *pipedConn) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

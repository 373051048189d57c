package link

import (
	"context"
	"io"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/robotalks/pnpfeeder/pkg/framework"
	"github.com/robotalks/pnpfeeder/pkg/gcode"
	"github.com/robotalks/pnpfeeder/pkg/metrics"
)

// Acceptor yields host connections, one at a time.
// Accept blocks until a host is connected or ctx is done.
type Acceptor interface {
	Accept(ctx context.Context) (io.ReadWriteCloser, error)
}

// EventQueueSize is the recommended capacity of the event channel.
const EventQueueSize = 2

const readBufferSize = 64

var newline = []byte{'\n'}

// Session serves host connections and turns received bytes into events.
type Session struct {
	Acceptor     Acceptor
	Output       *Output
	Events       chan<- gcode.Event
	LineCapacity int
	// Echo writes received bytes back to the host.
	Echo bool
}

// NewSession creates a Session.
func NewSession(acceptor Acceptor, events chan<- gcode.Event) *Session {
	return &Session{
		Acceptor:     acceptor,
		Output:       &Output{},
		Events:       events,
		LineCapacity: DefaultLineCapacity,
	}
}

// Name implements framework.Named.
func (s *Session) Name() string {
	return "link"
}

// Run implements framework.Runnable.
func (s *Session) Run(ctx context.Context) error {
	for {
		conn, err := s.Acceptor.Accept(ctx)
		if err != nil {
			return err
		}
		s.serve(ctx, conn)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (s *Session) serve(ctx context.Context, conn io.ReadWriteCloser) {
	id := uuid.New()
	glog.Infof("session %s connected", id)
	metrics.Sessions.Inc()
	defer metrics.Sessions.Dec()

	s.Output.attach(conn)
	s.emit(ctx, gcode.ConnectEvent())
	err := framework.RunWithContextCloser(ctx, conn, func() error {
		return s.receive(ctx, conn)
	})
	s.Output.detach(conn)
	glog.Infof("session %s disconnected: %v", id, err)

	// the next host is attached only after the events of this one are
	// processed, so none of its replies go to the next host.
	ev := gcode.DisconnectEvent()
	ev.Handled = make(chan struct{})
	s.emit(ctx, ev)
	select {
	case <-ev.Handled:
	case <-ctx.Done():
	}
}

func (s *Session) receive(ctx context.Context, conn io.Reader) error {
	framer := NewFramer(s.LineCapacity)
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 && s.Echo {
			s.Output.Write(buf[:n])
		}
		for _, b := range buf[:n] {
			line, ok, ferr := framer.HandleByte(b)
			if ferr != nil {
				metrics.LinkErrors.WithLabelValues("overflow").Inc()
				s.emit(ctx, gcode.ErrorEvent(ferr))
				continue
			}
			if !ok {
				continue
			}
			if s.Echo {
				s.Output.Write(newline)
			}
			s.handleLine(ctx, line)
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) handleLine(ctx context.Context, text string) {
	glog.V(3).Infof("RCV %q", text)
	line, err := gcode.Parse(text)
	if err != nil {
		metrics.LinkErrors.WithLabelValues("parse").Inc()
		s.emit(ctx, gcode.ErrorEvent(err))
		return
	}
	s.emit(ctx, gcode.LineEvent(line))
}

func (s *Session) emit(ctx context.Context, ev gcode.Event) {
	select {
	case s.Events <- ev:
	case <-ctx.Done():
	}
}

package stream

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/pnpfeeder/pkg/framework"
)

// Listener accepts hosts over a stream socket, one at a time.
type Listener struct {
	Network string
	Addr    string

	lock     sync.Mutex
	listener net.Listener
}

// NewTCPListener creates a Listener on a TCP address.
func NewTCPListener(addr string) *Listener {
	return &Listener{Network: "tcp", Addr: addr}
}

// Listen opens the listening socket if not yet opened.
func (l *Listener) Listen() (net.Listener, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.listener != nil {
		return l.listener, nil
	}
	ln, err := net.Listen(l.Network, l.Addr)
	if err != nil {
		return nil, err
	}
	glog.Infof("listening on %s %s", l.Network, ln.Addr())
	l.listener = ln
	return ln, nil
}

// Accept implements link.Acceptor.
func (l *Listener) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	ln, err := l.Listen()
	if err != nil {
		return nil, err
	}
	var conn net.Conn
	err = framework.RunWithContextCancel(ctx, func() {
		ln.Close()
	}, func() (err error) {
		conn, err = ln.Accept()
		return
	})
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, err
	}
	glog.Infof("accepted %s", conn.RemoteAddr())
	return conn, nil
}

// Package websocket serves the host link over WebSocket.
package websocket

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/pnpfeeder/pkg/framework"
)

// DefaultPath is the HTTP path of the WebSocket endpoint.
const DefaultPath = "/gcode"

// Server accepts hosts as WebSocket connections.
// Run serves HTTP, Accept hands out one connection at a time.
type Server struct {
	Addr string
	Path string

	conns chan *conn
}

// NewServer creates a Server.
func NewServer(addr, path string) *Server {
	if path == "" {
		path = DefaultPath
	}
	return &Server{Addr: addr, Path: path, conns: make(chan *conn)}
}

// Name implements framework.Named.
func (s *Server) Name() string {
	return "websocket"
}

// Handler returns the HTTP handler for the endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.Path, websocket.Handler(s.handle))
	return mux
}

// Run implements framework.Runnable.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.Addr, Handler: s.Handler()}
	glog.Infof("websocket listening on %s%s", s.Addr, s.Path)
	return framework.RunWithContextCancel(ctx, func() {
		srv.Close()
	}, srv.ListenAndServe)
}

// Accept implements link.Acceptor.
func (s *Server) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	select {
	case c := <-s.conns:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// handle keeps the WebSocket open until the session closes it.
func (s *Server) handle(ws *websocket.Conn) {
	c := &conn{Conn: ws, closed: make(chan struct{})}
	select {
	case s.conns <- c:
	case <-ws.Request().Context().Done():
		return
	}
	glog.Infof("websocket connected from %s", ws.Request().RemoteAddr)
	<-c.closed
}

type conn struct {
	*websocket.Conn
	once   sync.Once
	closed chan struct{}
}

func (c *conn) Close() error {
	err := c.Conn.Close()
	c.once.Do(func() { close(c.closed) })
	return err
}

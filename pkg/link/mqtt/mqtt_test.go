package mqtt

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientOptionsFromURL(t *testing.T) {
	testCases := []struct {
		url      string
		server   string
		prefix   string
		user     string
		password string
		clientID string
	}{
		{url: "mqtt://localhost:1883/pnpfeeder/", server: "tcp://localhost:1883", prefix: "pnpfeeder/"},
		{url: "mqtt://broker:1883", server: "tcp://broker:1883"},
		{url: "ssl://u:p@broker:8883/a/b/", server: "ssl://broker:8883", prefix: "a/b/", user: "u", password: "p"},
		{url: "mqtt://broker:1883/?client-id=feeder1", server: "tcp://broker:1883", clientID: "feeder1"},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			opts, prefix, err := ClientOptionsFromURL(tc.url)
			require.NoError(t, err)
			require.Len(t, opts.Servers, 1)
			require.Equal(t, tc.server, opts.Servers[0].String())
			require.Equal(t, tc.prefix, prefix)
			require.Equal(t, tc.user, opts.Username)
			require.Equal(t, tc.password, opts.Password)
			require.Equal(t, tc.clientID, opts.ClientID)
			require.True(t, opts.AutoReconnect)
		})
	}
}

func TestTopics(t *testing.T) {
	a, err := New("mqtt://localhost:1883/pnpfeeder/", Meta{ID: "abc", Feeders: 2})
	require.NoError(t, err)
	require.Equal(t, "pnpfeeder/abc/gcode/in", a.Topic(InTopic))
	require.Equal(t, "pnpfeeder/abc/gcode/out", a.Topic(OutTopic))
	require.Equal(t, "pnpfeeder/abc/meta", a.Topic(MetaTopic))
}

func TestConnStream(t *testing.T) {
	var published []string
	c := &conn{
		publish: func(p []byte) error {
			published = append(published, string(p))
			return nil
		},
		data:   make(chan []byte),
		closed: make(chan struct{}),
	}
	go func() {
		c.deliver([]byte("M610"))
		c.deliver([]byte(" S1\n"))
	}()
	buf := make([]byte, 8)
	_, err := io.ReadFull(c, buf)
	require.NoError(t, err)
	require.Equal(t, "M610 S1\n", string(buf))

	n, err := c.Write([]byte("ok\n"))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []string{"ok\n"}, published)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	_, err = c.Read(buf)
	require.Equal(t, io.EOF, err)
	_, err = c.Write([]byte("ok\n"))
	require.Error(t, err)
	// delivery after close doesn't block.
	c.deliver([]byte("M621 N0\n"))
}

func TestConnectionLostClosesConn(t *testing.T) {
	a, err := New("mqtt://localhost:1883/", Meta{ID: "abc"})
	require.NoError(t, err)
	c := newConn(a)
	a.current = c
	a.onConnectionLost(nil, errors.New("broken pipe"))
	_, err = c.Read(make([]byte, 1))
	require.Equal(t, io.EOF, err)
	require.Nil(t, a.current)
}

func TestAcceptCanceled(t *testing.T) {
	a, err := New("mqtt://localhost:1883/", Meta{ID: "abc"})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Accept(ctx)
	require.True(t, errors.Is(err, context.Canceled))
}

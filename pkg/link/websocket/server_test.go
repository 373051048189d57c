package websocket

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func TestServerAcceptsConnection(t *testing.T) {
	s := NewServer("", "")
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + DefaultPath
	client, err := websocket.Dial(wsURL, "", ts.URL)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	conn, err := s.Accept(ctx)
	require.NoError(t, err)

	_, err = client.Write([]byte("M610 S1\n"))
	require.NoError(t, err)
	buf := make([]byte, 8)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	require.Equal(t, "M610 S1\n", string(buf))

	_, err = conn.Write([]byte("ok\n"))
	require.NoError(t, err)
	buf = make([]byte, 3)
	_, err = io.ReadFull(client, buf)
	require.NoError(t, err)
	require.Equal(t, "ok\n", string(buf))

	require.NoError(t, conn.Close())
	_, err = client.Read(buf)
	require.Error(t, err)
}

func TestServerAcceptCanceled(t *testing.T) {
	s := NewServer(":0", "/ws")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Accept(ctx)
	require.True(t, errors.Is(err, context.Canceled))
}

package env

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/robotalks/pnpfeeder/pkg/configstore"
	"github.com/robotalks/pnpfeeder/pkg/configstore/sqlstore"
	"github.com/robotalks/pnpfeeder/pkg/link"
	"github.com/robotalks/pnpfeeder/pkg/link/mqtt"
	"github.com/robotalks/pnpfeeder/pkg/link/serial"
	"github.com/robotalks/pnpfeeder/pkg/link/stream"
	"github.com/robotalks/pnpfeeder/pkg/link/websocket"
)

// urlPath accepts both file:name and file://name forms.
func urlPath(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Host + u.Path
}

// NewAcceptor creates the host transport using current config.
// Acceptors which also implement framework.Runnable must be run.
func (c *Config) NewAcceptor() (link.Acceptor, error) {
	u, err := url.Parse(c.LinkURL)
	if err != nil {
		return nil, fmt.Errorf("invalid link URL: %w", err)
	}
	switch u.Scheme {
	case "stdio":
		return stream.NewStdio(), nil
	case "tcp":
		return stream.NewTCPListener(u.Host), nil
	case "serial":
		baud := serial.DefaultBaudRate
		if val := u.Query().Get("baud"); val != "" {
			if baud, err = strconv.Atoi(val); err != nil {
				return nil, fmt.Errorf("invalid baud rate %q", val)
			}
		}
		return serial.New(urlPath(u), baud), nil
	case "ws":
		return websocket.NewServer(u.Host, u.Path), nil
	case "mqtt", "ssl", "tls":
		return mqtt.New(c.LinkURL, mqtt.Meta{
			ID:      c.ID,
			Banner:  c.Banner(),
			Feeders: c.Feeders,
		})
	default:
		return nil, fmt.Errorf("unknown link URL scheme: %q", u.Scheme)
	}
}

// NewStore creates the config store using current config.
func (c *Config) NewStore() (configstore.Store, error) {
	u, err := url.Parse(c.StoreURL)
	if err != nil {
		return nil, fmt.Errorf("invalid store URL: %w", err)
	}
	switch u.Scheme {
	case "memory":
		return configstore.NewMemory(), nil
	case "file":
		return configstore.NewFileStore(urlPath(u)), nil
	case "sqlite":
		return sqlstore.Open(urlPath(u))
	default:
		return nil, fmt.Errorf("unknown store URL scheme: %q", u.Scheme)
	}
}

package mqtt

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// Topics under <prefix><id>/.
const (
	InTopic   = "gcode/in"
	OutTopic  = "gcode/out"
	MetaTopic = "meta"
)

const (
	// DefaultRetryInterval is the delay between attempts to reach the broker.
	DefaultRetryInterval = time.Second

	disconnectQuiesce = 250 // ms
)

// Meta is the retained description of the feeder controller.
type Meta struct {
	ID      string `json:"id"`
	Banner  string `json:"banner,omitempty"`
	Feeders int    `json:"feeders"`
}

// Acceptor treats each broker connection as a host connection.
// Payloads received on the in topic form the byte stream, writes are
// published to the out topic.
type Acceptor struct {
	Meta          Meta
	RetryInterval time.Duration

	client paho.Client
	prefix string
	conns  chan *conn

	lock    sync.Mutex
	current *conn
}

// New creates an Acceptor from a broker URL.
func New(brokerURL string, meta Meta) (*Acceptor, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	a := &Acceptor{
		Meta:          meta,
		RetryInterval: DefaultRetryInterval,
		prefix:        topicPrefix + meta.ID + "/",
		conns:         make(chan *conn, 1),
	}
	opts.SetBinaryWill(a.Topic(MetaTopic), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("pnpfeeder:" + meta.ID)
	}
	opts.SetOnConnectHandler(a.onConnect)
	opts.SetConnectionLostHandler(a.onConnectionLost)
	a.client = paho.NewClient(opts)
	return a, nil
}

// Topic returns the full name of a topic.
func (a *Acceptor) Topic(name string) string {
	return a.prefix + name
}

// Name implements framework.Named.
func (a *Acceptor) Name() string {
	return "mqtt"
}

// Run implements framework.Runnable.
// It keeps the broker connection until ctx is done.
func (a *Acceptor) Run(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		token := a.client.Connect()
		token.Wait()
		err := token.Error()
		if err == nil {
			break
		}
		if attempt == 0 {
			glog.Warningf("connect MQTT broker: %v, retrying", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.RetryInterval):
		}
	}
	<-ctx.Done()
	a.client.Publish(a.Topic(MetaTopic), 1, true, []byte{}).WaitTimeout(time.Second)
	a.client.Disconnect(disconnectQuiesce)
	a.closeCurrent()
	return ctx.Err()
}

// Accept implements link.Acceptor.
func (a *Acceptor) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	select {
	case c := <-a.conns:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Acceptor) onConnect(client paho.Client) {
	glog.Infof("MQTT connected, serving %s", a.Topic(InTopic))
	c := newConn(a)
	a.lock.Lock()
	if a.current != nil {
		a.current.Close()
	}
	a.current = c
	a.lock.Unlock()

	client.Subscribe(a.Topic(InTopic), 0, func(_ paho.Client, msg paho.Message) {
		c.deliver(msg.Payload())
	})
	meta, err := json.Marshal(&a.Meta)
	if err != nil {
		glog.Errorf("encode meta: %v", err)
	} else {
		client.Publish(a.Topic(MetaTopic), 1, true, meta)
	}

	// a connection nobody accepted is replaced.
	select {
	case old := <-a.conns:
		old.Close()
	default:
	}
	a.conns <- c
}

func (a *Acceptor) onConnectionLost(_ paho.Client, err error) {
	glog.Warningf("MQTT connection lost: %v", err)
	a.closeCurrent()
}

func (a *Acceptor) closeCurrent() {
	a.lock.Lock()
	if a.current != nil {
		a.current.Close()
		a.current = nil
	}
	a.lock.Unlock()
}

func (a *Acceptor) publish(p []byte) error {
	payload := make([]byte, len(p))
	copy(payload, p)
	token := a.client.Publish(a.Topic(OutTopic), 0, false, payload)
	token.Wait()
	return token.Error()
}

type conn struct {
	publish func([]byte) error
	data    chan []byte
	pending []byte

	once   sync.Once
	closed chan struct{}
}

func newConn(a *Acceptor) *conn {
	return &conn{
		publish: a.publish,
		data:    make(chan []byte),
		closed:  make(chan struct{}),
	}
}

func (c *conn) deliver(payload []byte) {
	select {
	case c.data <- payload:
	case <-c.closed:
	}
}

func (c *conn) Read(p []byte) (int, error) {
	for len(c.pending) == 0 {
		select {
		case c.pending = <-c.data:
		case <-c.closed:
			return 0, io.EOF
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *conn) Write(p []byte) (int, error) {
	select {
	case <-c.closed:
		return 0, io.ErrClosedPipe
	default:
	}
	if err := c.publish(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *conn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// Package serial connects the host over a serial port.
package serial

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is used when no baud rate is given.
	DefaultBaudRate = 115200
	// DefaultRetryInterval is the delay between attempts to open the port.
	DefaultRetryInterval = time.Second
)

// Port accepts the host on a serial port. The port is reopened after
// every disconnect so an unplugged USB CDC device is picked up again.
type Port struct {
	Name          string
	BaudRate      int
	RetryInterval time.Duration

	open func(name string, mode *serial.Mode) (io.ReadWriteCloser, error)
}

// New creates a Port with 8N1 framing.
func New(name string, baudRate int) *Port {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	return &Port{
		Name:          name,
		BaudRate:      baudRate,
		RetryInterval: DefaultRetryInterval,
		open:          openPort,
	}
}

// ListPorts lists the serial ports present.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

func openPort(name string, mode *serial.Mode) (io.ReadWriteCloser, error) {
	return serial.Open(name, mode)
}

// Accept implements link.Acceptor.
func (p *Port) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: p.BaudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	interval := p.RetryInterval
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	for attempt := 0; ; attempt++ {
		conn, err := p.open(p.Name, mode)
		if err == nil {
			glog.Infof("serial port %s opened at %d baud", p.Name, p.BaudRate)
			return conn, nil
		}
		if attempt == 0 {
			glog.Warningf("open serial port %s: %v, retrying", p.Name, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Package dispatch executes host command lines on feeders.
package dispatch

import (
	"context"
	"io"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/pnpfeeder/pkg/configstore"
	"github.com/robotalks/pnpfeeder/pkg/feeder"
	"github.com/robotalks/pnpfeeder/pkg/gcode"
	"github.com/robotalks/pnpfeeder/pkg/metrics"
)

// DefaultBanner is the header text sent to a connecting host.
const DefaultBanner = "pnpfeeder"

// ReadyMarker ends the report sent to a connecting host.
const ReadyMarker = "ready"

// Dispatcher processes events one at a time and is the only writer of
// replies. Every command line gets exactly one reply line, "ok" or
// "error: <message>"; lines without a command get none.
type Dispatcher struct {
	Banner string

	clients []*feeder.Client
	store   configstore.Store
	out     io.Writer
}

// New creates a Dispatcher for the feeders, indexed by position.
func New(clients []*feeder.Client, store configstore.Store, out io.Writer) *Dispatcher {
	return &Dispatcher{
		Banner:  DefaultBanner,
		clients: clients,
		store:   store,
		out:     out,
	}
}

// LoadConfigs applies stored configs to all feeders.
// A feeder whose config can't be loaded or applied keeps its current one.
func (d *Dispatcher) LoadConfigs(ctx context.Context) {
	for index, client := range d.clients {
		config, err := d.store.Get(index)
		if err != nil {
			glog.Warningf("feeder %d: load config: %v", index, err)
			continue
		}
		if err := client.SetConfig(ctx, config); err != nil {
			glog.Warningf("feeder %d: apply stored config: %v", index, err)
		}
	}
}

// Run processes events until ctx is done or events is closed.
func (d *Dispatcher) Run(ctx context.Context, events <-chan gcode.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent processes a single event.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev gcode.Event) {
	defer ev.MarkHandled()
	switch ev.Kind {
	case gcode.EventConnect:
		d.reportAll(ctx)
	case gcode.EventDisconnect:
		d.disableAll(ctx)
	case gcode.EventLine:
		if ev.Line.Command == nil {
			return
		}
		label, err := d.execute(ctx, ev.Line)
		metrics.Commands.WithLabelValues(label, metrics.Result(err)).Inc()
		if err != nil {
			glog.V(1).Infof("%s: %v", ev.Line, err)
		}
		d.reply(err)
	case gcode.EventError:
		d.reply(ev.Err)
	}
}

func (d *Dispatcher) reportAll(ctx context.Context) {
	d.writeLine("; " + d.Banner)
	for index, client := range d.clients {
		config, err := client.GetConfig(ctx)
		if err != nil {
			glog.Warningf("feeder %d: report config: %v", index, err)
			continue
		}
		d.writeLine(ConfigLine(index, config).String())
	}
	d.writeLine(ReadyMarker)
}

func (d *Dispatcher) disableAll(ctx context.Context) {
	if err := d.enableAll(ctx, false); err != nil {
		glog.Warningf("disable feeders: %v", err)
	}
}

func (d *Dispatcher) reply(err error) {
	if err == nil {
		d.writeLine("ok")
		return
	}
	d.writeLine("error: " + strings.ReplaceAll(err.Error(), "\n", " "))
}

func (d *Dispatcher) writeLine(s string) {
	if _, err := io.WriteString(d.out, s+"\n"); err != nil {
		glog.V(2).Infof("reply dropped: %v", err)
	}
}

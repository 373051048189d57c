package dispatch

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/pnpfeeder/pkg/configstore"
	"github.com/robotalks/pnpfeeder/pkg/feeder"
	"github.com/robotalks/pnpfeeder/pkg/gcode"
	"github.com/robotalks/pnpfeeder/pkg/link"
	"github.com/robotalks/pnpfeeder/pkg/metrics"
	"github.com/robotalks/pnpfeeder/pkg/sim"
)

const defaultConfigLine = "A135 B107.5 C80 F2 U300 V490.2 W980.4 X0 Y0"

type failingStore struct {
	configstore.Store
}

func (s *failingStore) Set(int, feeder.Config) error {
	return configstore.ErrConfigSet
}

type dispatcherTestEnv struct {
	t          *testing.T
	ctx        context.Context
	servos     []*sim.Servo
	inputs     []*sim.Input
	store      configstore.Store
	out        bytes.Buffer
	dispatcher *Dispatcher
}

func newDispatcherTestEnv(t *testing.T, store configstore.Store) *dispatcherTestEnv {
	ctx, cancel := context.WithCancel(context.Background())
	env := &dispatcherTestEnv{t: t, ctx: ctx, store: store}
	var clients []*feeder.Client
	done := make(chan struct{}, 2)
	for n := 0; n < 2; n++ {
		servo, input := sim.NewServo(strconv.Itoa(n)), sim.NewInput(false)
		ch := feeder.NewChannel()
		f := feeder.New(strconv.Itoa(n), servo, input, ch)
		f.Sleep = func(time.Duration) {}
		go func() {
			f.Run(ctx)
			done <- struct{}{}
		}()
		env.servos = append(env.servos, servo)
		env.inputs = append(env.inputs, input)
		clients = append(clients, feeder.NewClient(ch))
	}
	t.Cleanup(func() {
		cancel()
		<-done
		<-done
	})
	env.dispatcher = New(clients, store, &env.out)
	return env
}

func (e *dispatcherTestEnv) lines(lines ...string) string {
	e.out.Reset()
	for _, text := range lines {
		line, err := gcode.Parse(text)
		require.NoError(e.t, err, text)
		e.dispatcher.HandleEvent(e.ctx, gcode.LineEvent(line))
	}
	return e.out.String()
}

func (e *dispatcherTestEnv) event(ev gcode.Event) string {
	e.out.Reset()
	e.dispatcher.HandleEvent(e.ctx, ev)
	return e.out.String()
}

func (e *dispatcherTestEnv) moves(index int) []string {
	var angles []string
	for _, a := range e.servos[index].History() {
		angles = append(angles, a.String())
	}
	return angles
}

func TestFeederDoesNotMoveBeforeEnabled(t *testing.T) {
	env := newDispatcherTestEnv(t, configstore.NewMemory())
	require.Equal(t, "error: feeder disabled\n", env.lines("G0 N1 A120.0"))
	require.Empty(t, env.moves(0))
	require.Empty(t, env.moves(1))
}

func TestMoveServo(t *testing.T) {
	env := newDispatcherTestEnv(t, configstore.NewMemory())
	require.Equal(t, "ok\nok\nok\n", env.lines("M610 S1", "G0 N1 A120.0", "G0 N1"))
	require.Empty(t, env.moves(0))
	require.Equal(t, []string{"120"}, env.moves(1))
}

// The default feed length is one 2 mm step, so a plain "M600 N1" from a
// retracted feeder only reaches the half advanced angle; F4 runs the full
// [advanced, retract] stroke. See the open question decisions in DESIGN.md.
func TestFeed(t *testing.T) {
	env := newDispatcherTestEnv(t, configstore.NewMemory())
	require.Equal(t, "ok\nok\n", env.lines("M610 S1", "M600 N1 F4"))
	require.Empty(t, env.moves(0))
	require.Equal(t, []string{"135", "80"}, env.moves(1))

	require.Equal(t, "ok\nok\n", env.lines("M600 N0", "M600 N0"))
	require.Equal(t, []string{"107.5", "135", "80"}, env.moves(0))
}

func TestFeedFeedbackOverride(t *testing.T) {
	env := newDispatcherTestEnv(t, configstore.NewMemory())
	env.inputs[0].Set(true)
	require.Equal(t, "ok\nerror: feeder not ready\nok\n", env.lines("M610 S1", "M600 N0", "M600 N0 X1"))
	require.Equal(t, []string{"107.5"}, env.moves(0))
	require.Equal(t, "ok\nok\n", env.lines("M620 N0 X1", "M600 N0"))
	require.Equal(t, []string{"107.5", "135", "80"}, env.moves(0))
}

func TestSetConfigMovesWithNewAngles(t *testing.T) {
	env := newDispatcherTestEnv(t, configstore.NewMemory())
	require.Equal(t, "ok\nok\nok\n", env.lines("M610 S1", "M620 N1 A122 C22", "M600 N1 F4"))
	require.Empty(t, env.moves(0))
	require.Equal(t, []string{"122", "22"}, env.moves(1))
}

func TestReportReflectsSetConfig(t *testing.T) {
	env := newDispatcherTestEnv(t, configstore.NewMemory())
	require.Equal(t,
		"ok\nM620 N1 A1 B2 C3 F4 U5 V6 W7 X1 Y0\nok\n",
		env.lines("M620 N1 A1 B2 C3 F4 U5 V6 W7 X1 Y0", "M621 N1"))
	require.Equal(t, "M620 N0 "+defaultConfigLine+"\nok\n", env.lines("M621 N0"))
}

func TestSetConfigPersists(t *testing.T) {
	store := configstore.NewMemory()
	env := newDispatcherTestEnv(t, store)
	require.Equal(t, "ok\n", env.lines("M620 N1 A140 Y1"))
	config, err := store.Get(1)
	require.NoError(t, err)
	require.Equal(t, "140", config.AdvancedAngle.String())
	require.True(t, config.AlwaysRetract)
	require.Equal(t, "107.5", config.HalfAdvancedAngle.String())
}

func TestSetConfigRejected(t *testing.T) {
	store := configstore.NewMemory()
	env := newDispatcherTestEnv(t, store)
	require.Equal(t, "error: pwm value out of range\n", env.lines("M620 N1 A140 W10000"))
	require.Equal(t, "M620 N1 "+defaultConfigLine+"\nok\n", env.lines("M621 N1"))
	config, err := store.Get(1)
	require.NoError(t, err)
	require.Equal(t, "135", config.AdvancedAngle.String())
	require.True(t, config.AlwaysRetract)
}

func TestSetConfigStoreFailure(t *testing.T) {
	env := newDispatcherTestEnv(t, &failingStore{Store: configstore.NewMemory()})
	require.Equal(t, "error: config set error\n", env.lines("M620 N1 A140"))
}

func TestCommandErrors(t *testing.T) {
	testCases := []struct {
		line   string
		expect string
	}{
		{line: "M999", expect: "error: unsupported command M999\n"},
		{line: "T1", expect: "error: unsupported command T1\n"},
		{line: "G1 N0", expect: "error: unsupported command G1\n"},
		{line: "M600", expect: "error: no index specified\n"},
		{line: "M600 N2", expect: "error: no feeder 2\n"},
		{line: "M600 N-1", expect: "error: no feeder -1\n"},
		{line: "M600 N1 Z1", expect: "error: invalid argument type Z\n"},
		{line: "M621 N1 A1", expect: "error: invalid argument type A\n"},
		{line: "M620 N1 U-5", expect: "error: fixed point error\n"},
		{line: "M600 N1 F3", expect: "error: feeder disabled\n"},
		{line: "N1 A5", expect: ""},
		{line: "M610", expect: "ok\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			env := newDispatcherTestEnv(t, configstore.NewMemory())
			require.Equal(t, tc.expect, env.lines(tc.line))
			require.Empty(t, env.moves(0))
			require.Empty(t, env.moves(1))
		})
	}
}

func TestEnabledFeederErrors(t *testing.T) {
	env := newDispatcherTestEnv(t, configstore.NewMemory())
	require.Equal(t, "ok\nerror: angle out of range\nerror: invalid feed length 3\n",
		env.lines("M610 S1", "G0 N0 A181", "M600 N0 F3"))
	require.Empty(t, env.moves(0))
}

func TestConnectReport(t *testing.T) {
	env := newDispatcherTestEnv(t, configstore.NewMemory())
	env.dispatcher.Banner = "pnpfeeder test"
	require.Equal(t, strings.Join([]string{
		"; pnpfeeder test",
		"M620 N0 " + defaultConfigLine,
		"M620 N1 " + defaultConfigLine,
		"ready",
	}, "\n")+"\n", env.event(gcode.ConnectEvent()))
}

func TestDisconnectDisablesFeeders(t *testing.T) {
	env := newDispatcherTestEnv(t, configstore.NewMemory())
	require.Equal(t, "ok\nok\n", env.lines("M610 S1", "G0 N1 A90"))
	require.Empty(t, env.event(gcode.DisconnectEvent()))
	env.event(gcode.ConnectEvent())
	require.Equal(t, "error: feeder disabled\n", env.lines("G0 N1 A100"))
	require.Equal(t, []string{"90"}, env.moves(1))
}

func TestFeedDefaultLength(t *testing.T) {
	env := newDispatcherTestEnv(t, configstore.NewMemory())
	require.Equal(t, "ok\nok\nok\n", env.lines("M610 S1", "M600 N1", "M600 N1"))
	require.Equal(t, []string{"107.5", "135", "80"}, env.moves(1))
}

func TestCommandMetricsBounded(t *testing.T) {
	env := newDispatcherTestEnv(t, configstore.NewMemory())
	before := testutil.ToFloat64(metrics.Commands.WithLabelValues(unsupportedLabel, metrics.ResultError))
	beforeFeed := testutil.ToFloat64(metrics.Commands.WithLabelValues("M600", metrics.ResultError))
	for code := 1000; code < 1200; code++ {
		require.Equal(t, "error: unsupported command M"+strconv.Itoa(code)+"\n", env.lines("M"+strconv.Itoa(code)))
	}
	env.lines("G1.5 N0", "M621 N0", "M600 N0 Z1")
	require.Equal(t, before+201, testutil.ToFloat64(metrics.Commands.WithLabelValues(unsupportedLabel, metrics.ResultError)))
	require.Equal(t, beforeFeed+1, testutil.ToFloat64(metrics.Commands.WithLabelValues("M600", metrics.ResultError)))
	// five commands and unsupported, each with two results at most.
	require.LessOrEqual(t, testutil.CollectAndCount(metrics.Commands), 2*(len(commands)+1))
}

func TestDisconnectMarkedHandled(t *testing.T) {
	env := newDispatcherTestEnv(t, configstore.NewMemory())
	ev := gcode.DisconnectEvent()
	ev.Handled = make(chan struct{})
	env.event(ev)
	select {
	case <-ev.Handled:
	default:
		t.Fatal("disconnect not marked handled")
	}
}

func TestErrorEventReply(t *testing.T) {
	env := newDispatcherTestEnv(t, configstore.NewMemory())
	require.Equal(t, "error: input buffer overflow\n", env.event(gcode.ErrorEvent(link.ErrInputBufferOverflow)))
}

func TestLoadConfigs(t *testing.T) {
	store := configstore.NewMemory()
	config := configstore.DefaultConfig()
	config.RetractAngle = gcode.NewValue(70)
	require.NoError(t, store.Set(0, config))

	env := newDispatcherTestEnv(t, store)
	env.dispatcher.LoadConfigs(env.ctx)
	require.Equal(t,
		"M620 N0 A135 B107.5 C70 F2 U300 V490.2 W980.4 X0 Y1\nok\n"+
			"M620 N1 A135 B107.5 C80 F2 U300 V490.2 W980.4 X0 Y1\nok\n",
		env.lines("M621 N0", "M621 N1"))

	// always retract from the stored default.
	require.Equal(t, "ok\nok\n", env.lines("M610 S1", "M600 N1"))
	require.Equal(t, []string{"107.5", "80"}, env.moves(1))
}

func TestRunStopsWhenEventsClosed(t *testing.T) {
	env := newDispatcherTestEnv(t, configstore.NewMemory())
	events := make(chan gcode.Event, 2)
	line, err := gcode.Parse("M610 S1")
	require.NoError(t, err)
	events <- gcode.LineEvent(line)
	close(events)
	require.NoError(t, env.dispatcher.Run(env.ctx, events))
	require.Equal(t, "ok\n", env.out.String())
}

func TestRunStopsOnCancel(t *testing.T) {
	env := newDispatcherTestEnv(t, configstore.NewMemory())
	ctx, cancel := context.WithCancel(env.ctx)
	cancel()
	err := env.dispatcher.Run(ctx, make(chan gcode.Event))
	require.True(t, errors.Is(err, context.Canceled))
}

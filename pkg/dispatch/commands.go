package dispatch

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robotalks/pnpfeeder/pkg/feeder"
	"github.com/robotalks/pnpfeeder/pkg/framework"
	"github.com/robotalks/pnpfeeder/pkg/gcode"
	"github.com/robotalks/pnpfeeder/pkg/metrics"
)

type commandFunc func(*Dispatcher, context.Context, gcode.Line) error

type command struct {
	letter byte
	code   int64
	// argument letters accepted by the command.
	args string
	fn   commandFunc
}

var commands = []command{
	// move servo: N index, A angle
	{letter: 'G', code: 0, args: "NA", fn: (*Dispatcher).moveServo},
	// feed: N index, F length, X override feedback
	{letter: 'M', code: 600, args: "NFX", fn: (*Dispatcher).feed},
	// enable all feeders: S 0 or 1
	{letter: 'M', code: 610, args: "S", fn: (*Dispatcher).enable},
	// set config: N index and the config fields
	{letter: 'M', code: 620, args: "NABCFUVWXY", fn: (*Dispatcher).setConfig},
	// report config: N index
	{letter: 'M', code: 621, args: "N", fn: (*Dispatcher).reportConfig},
}

// unsupportedLabel is the metrics label of every command not in the table.
const unsupportedLabel = "unsupported"

func (c *command) label() string {
	return string(c.letter) + strconv.FormatInt(c.code, 10)
}

// execute runs the line and returns the label of the matched command.
func (d *Dispatcher) execute(ctx context.Context, line gcode.Line) (string, error) {
	for n := range commands {
		cmd := &commands[n]
		if !line.Command.Is(cmd.letter, cmd.code) {
			continue
		}
		for _, arg := range line.Arguments {
			if strings.IndexByte(cmd.args, arg.Letter) < 0 {
				return cmd.label(), &InvalidArgumentError{Letter: arg.Letter}
			}
		}
		return cmd.label(), cmd.fn(d, ctx, line)
	}
	return unsupportedLabel, &UnsupportedCommandError{Word: *line.Command}
}

func (d *Dispatcher) feederFor(line gcode.Line) (int, *feeder.Client, error) {
	val, ok := line.Argument('N')
	if !ok {
		return 0, nil, ErrNoIndex
	}
	index, err := gcode.IntValue(val)
	if err != nil {
		return 0, nil, err
	}
	if index < 0 || index >= int64(len(d.clients)) {
		return 0, nil, &InvalidIndexError{Index: index}
	}
	return int(index), d.clients[index], nil
}

func (d *Dispatcher) moveServo(ctx context.Context, line gcode.Line) error {
	_, client, err := d.feederFor(line)
	if err != nil {
		return err
	}
	angle, ok := line.Argument('A')
	if !ok {
		return nil
	}
	return client.SetServoAngle(ctx, angle)
}

func (d *Dispatcher) feed(ctx context.Context, line gcode.Line) error {
	_, client, err := d.feederFor(line)
	if err != nil {
		return err
	}
	var length decimal.NullDecimal
	if val, ok := line.Argument('F'); ok {
		length = decimal.NewNullDecimal(val)
	}
	override := false
	if val, ok := line.Argument('X'); ok {
		override = gcode.Flag(val)
	}
	return client.Advance(ctx, length, override)
}

func (d *Dispatcher) enable(ctx context.Context, line gcode.Line) error {
	val, ok := line.Argument('S')
	if !ok {
		return nil
	}
	return d.enableAll(ctx, gcode.Flag(val))
}

// enableAll tries every feeder in index order.
func (d *Dispatcher) enableAll(ctx context.Context, enabled bool) error {
	var errs framework.AggregatedError
	for _, client := range d.clients {
		errs.Add(client.Enable(ctx, enabled))
	}
	return errs.Aggregate()
}

func (d *Dispatcher) setConfig(ctx context.Context, line gcode.Line) error {
	index, client, err := d.feederFor(line)
	if err != nil {
		return err
	}
	config, err := client.GetConfig(ctx)
	if err != nil {
		return err
	}
	for _, arg := range line.Arguments {
		switch arg.Letter {
		case 'A':
			config.AdvancedAngle = arg.Value
		case 'B':
			config.HalfAdvancedAngle = arg.Value
		case 'C':
			config.RetractAngle = arg.Value
		case 'F':
			config.FeedLength = arg.Value
		case 'U':
			if config.SettleTime, err = gcode.Uint32Value(arg.Value); err != nil {
				return err
			}
		case 'V':
			config.Pwm0 = arg.Value
		case 'W':
			config.Pwm180 = arg.Value
		case 'X':
			config.IgnoreFeedbackPin = gcode.Flag(arg.Value)
		case 'Y':
			config.AlwaysRetract = gcode.Flag(arg.Value)
		}
	}
	if err := client.SetConfig(ctx, config); err != nil {
		return err
	}
	err = d.store.Set(index, config)
	metrics.ConfigWrites.WithLabelValues(metrics.Result(err)).Inc()
	return err
}

func (d *Dispatcher) reportConfig(ctx context.Context, line gcode.Line) error {
	index, client, err := d.feederFor(line)
	if err != nil {
		return err
	}
	config, err := client.GetConfig(ctx)
	if err != nil {
		return err
	}
	d.writeLine(ConfigLine(index, config).String())
	return nil
}

// ConfigLine renders a config as the M620 line which restores it.
func ConfigLine(index int, config feeder.Config) gcode.Line {
	cmd := gcode.Word{Letter: 'M', Value: gcode.NewValue(620)}
	return gcode.Line{
		Command: &cmd,
		Arguments: []gcode.Word{
			{Letter: 'N', Value: gcode.NewValue(int64(index))},
			{Letter: 'A', Value: config.AdvancedAngle},
			{Letter: 'B', Value: config.HalfAdvancedAngle},
			{Letter: 'C', Value: config.RetractAngle},
			{Letter: 'F', Value: config.FeedLength},
			{Letter: 'U', Value: gcode.NewValue(int64(config.SettleTime))},
			{Letter: 'V', Value: config.Pwm0},
			{Letter: 'W', Value: config.Pwm180},
			{Letter: 'X', Value: gcode.FlagValue(config.IgnoreFeedbackPin)},
			{Letter: 'Y', Value: gcode.FlagValue(config.AlwaysRetract)},
		},
	}
}

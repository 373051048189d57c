package feeder

import (
	"context"
	"sync"

	"github.com/golang/glog"
	"github.com/shopspring/decimal"

	"github.com/robotalks/pnpfeeder/pkg/gcode"
)

// Client sends commands to a Feeder and waits for the responses.
// Requests from concurrent callers are serialized.
type Client struct {
	channel *Channel

	lock sync.Mutex
	// responses owed by the feeder for requests whose caller gave up.
	abandoned int
}

// NewClient creates a Client on the channel.
func NewClient(ch *Channel) *Client {
	return &Client{channel: ch}
}

// SetConfig replaces the feeder config.
func (c *Client) SetConfig(ctx context.Context, config Config) error {
	return c.expectEmpty(c.do(ctx, SetConfigCommand{Config: config}))
}

// GetConfig reads the feeder config.
func (c *Client) GetConfig(ctx context.Context) (Config, error) {
	resp, err := c.do(ctx, GetConfigCommand{})
	if err != nil {
		return Config{}, err
	}
	if resp.Err != nil {
		return Config{}, resp.Err
	}
	if resp.Config == nil {
		glog.Errorf("feeder: GetConfig answered without config")
		return Config{}, ErrInvalidFeederCommandResponse
	}
	return *resp.Config, nil
}

// SetServoAngle moves the servo.
func (c *Client) SetServoAngle(ctx context.Context, angle gcode.Value) error {
	return c.expectEmpty(c.do(ctx, SetServoAngleCommand{Angle: angle}))
}

// Advance feeds tape, with the configured length if length is not valid.
func (c *Client) Advance(ctx context.Context, length decimal.NullDecimal, overrideError bool) error {
	return c.expectEmpty(c.do(ctx, AdvanceCommand{Length: length, OverrideError: overrideError}))
}

// Enable enables or disables the feeder.
func (c *Client) Enable(ctx context.Context, enabled bool) error {
	return c.expectEmpty(c.do(ctx, EnableCommand{Enabled: enabled}))
}

func (c *Client) expectEmpty(resp Response, err error) error {
	if err != nil {
		return err
	}
	if resp.Config != nil {
		glog.Errorf("feeder: unexpected config in response")
		return ErrInvalidFeederCommandResponse
	}
	return resp.Err
}

func (c *Client) do(ctx context.Context, cmd Command) (Response, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for c.abandoned > 0 {
		select {
		case <-c.channel.responses:
			c.abandoned--
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
	}
	select {
	case c.channel.commands <- cmd:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
	select {
	case resp := <-c.channel.responses:
		return resp, nil
	case <-ctx.Done():
		c.abandoned++
		return Response{}, ctx.Err()
	}
}

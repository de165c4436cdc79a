// Package eventbus feeds "player acted" notifications from NATS into running rooms.
// Delivery is at-least-once and unordered, so duplicates and late messages are expected.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/drawberry-games/drawberry/internal/competitive"
	"github.com/drawberry-games/drawberry/internal/logging"
	"github.com/nats-io/nats.go"
)

var ErrMalformed = fmt.Errorf("malformed message")

// Dispatcher applies an action to the room with the given code
type Dispatcher interface {
	Dispatch(ctx context.Context, code int64, action competitive.Action) error
}

// Message is the wire format of an action notification
type Message struct {
	Code int64 `json:"code"`
	competitive.Action
}

func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if msg.Code == 0 || msg.PlayerID == "" || msg.Kind == "" {
		return msg, fmt.Errorf("%w: code, player_id and action are required", ErrMalformed)
	}

	return msg, nil
}

func New(config Config, dispatcher Dispatcher) *Consumer {
	return &Consumer{config: config, dispatcher: dispatcher}
}

type Consumer struct {
	config     Config
	dispatcher Dispatcher
}

// Run consumes until ctx is done
func (c *Consumer) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("eventbus.Run")

	opts := []nats.Option{
		nats.Name("drawberry"),
		nats.MaxReconnects(c.config.MaxReconnects),
		nats.ReconnectWait(c.config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warnf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("nats reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Errorf("nats error: %v", err)
		}),
	}

	nc, err := nats.Connect(c.config.URL, opts...)
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	defer nc.Close()

	msgCh := make(chan *nats.Msg, c.config.Buffer)
	sub, err := nc.ChanQueueSubscribe(c.config.Subject, c.config.Queue, msgCh)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.config.Subject, err)
	}

	logger.Infof("consuming %s as %s", c.config.Subject, c.config.Queue)

	for {
		select {
		case <-ctx.Done():
			if err := sub.Drain(); err != nil {
				logger.Errorf("drain: %v", err)
			}
			return nil
		case msg := <-msgCh:
			c.Handle(ctx, msg.Data)
		}
	}
}

// Handle decodes and dispatches one message. Redeliveries and late messages are dropped.
func (c *Consumer) Handle(ctx context.Context, data []byte) {
	logger := logging.FromContext(ctx).Named("eventbus.Handle")

	msg, err := Decode(data)
	if err != nil {
		logger.Warnf("decode: %v", err)
		return
	}

	if err := c.dispatcher.Dispatch(ctx, msg.Code, msg.Action); err != nil {
		if Redelivered(err) {
			logger.Debugf("drop %s from %s in room %d: %v", msg.Kind, msg.PlayerID, msg.Code, err)
			return
		}

		logger.Errorf("dispatch %s from %s in room %d: %v", msg.Kind, msg.PlayerID, msg.Code, err)
	}
}

// Redelivered reports errors caused by a duplicate or out of date notification
func Redelivered(err error) bool {
	for _, target := range []error{
		competitive.ErrStaleRound,
		competitive.ErrWrongPhase,
		competitive.ErrBallotFull,
		competitive.ErrNoStrokesLeft,
		competitive.ErrPowerupNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

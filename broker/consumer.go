package broker

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Consumer fans messages from a set of subjects into one channel. Every
// instance subscribes without a queue group so each one sees every event.
type Consumer struct {
	subs     []*nats.Subscription
	messages chan *nats.Msg
	logger   *zap.Logger
}

func InitConsumer(conn *nats.Conn, subjects []string, logger *zap.Logger) (*Consumer, error) {
	c := &Consumer{
		messages: make(chan *nats.Msg, 256),
		logger:   logger,
	}
	for _, subject := range subjects {
		sub, err := conn.ChanSubscribe(subject, c.messages)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
		}
		c.subs = append(c.subs, sub)
		logger.Info("Subscribed to subject", zap.String("subject", subject))
	}
	return c, nil
}

func (c *Consumer) GetMessageChannel() <-chan *nats.Msg {
	return c.messages
}

func (c *Consumer) Close() {
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			c.logger.Warn("Failed to unsubscribe", zap.String("subject", sub.Subject), zap.Error(err))
		}
	}
	c.subs = nil
}

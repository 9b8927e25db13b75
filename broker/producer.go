package broker

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher sends event payloads to the message bus.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Connect dials the NATS server at url, reconnecting forever once connected.
func Connect(url string, logger *zap.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("quickjot"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return conn, nil
}

type Producer struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewProducer(conn *nats.Conn, logger *zap.Logger) *Producer {
	return &Producer{conn: conn, logger: logger}
}

func (p *Producer) Publish(subject string, data []byte) error {
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	p.logger.Debug("Published event", zap.String("subject", subject), zap.Int("bytes", len(data)))
	return nil
}

// Flush blocks until buffered messages have reached the server.
func (p *Producer) Flush() error {
	return p.conn.Flush()
}

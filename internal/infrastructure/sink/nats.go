package sink

import (
	"context"
	"fmt"

	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSSink publishes token JSON lines to a NATS subject, through JetStream
// when the server offers it.
type NATSSink struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	subject string
	logger  *logger.Logger
}

// NewNATSSink connects to the NATS server used for token output
func NewNATSSink(url, subject string, logger *logger.Logger) (*NATSSink, error) {
	log := logger.WithComponent("nats-sink")

	conn, err := nats.Connect(url, nats.Name("token-discovery-sink"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		log.Warn("JetStream not available, publishing over core NATS", zap.Error(err))
		js = nil
	}

	return &NATSSink{
		conn:    conn,
		js:      js,
		subject: subject,
		logger:  log,
	}, nil
}

// WriteTokens emits the discoveries of one block as a unit
func (s *NATSSink) WriteTokens(ctx context.Context, discoveries []*entity.TokenDiscovery) error {
	if len(discoveries) == 0 {
		return nil
	}

	for _, discovery := range discoveries {
		line, err := encodeLine(discovery)
		if err != nil {
			return fmt.Errorf("failed to encode token %s: %w", discovery.Token.Address, err)
		}

		if s.js != nil {
			if _, err := s.js.Publish(s.subject, line); err != nil {
				return fmt.Errorf("failed to publish token %s: %w", discovery.Token.Address, err)
			}
			continue
		}
		if err := s.conn.Publish(s.subject, line); err != nil {
			return fmt.Errorf("failed to publish token %s: %w", discovery.Token.Address, err)
		}
	}

	if s.js == nil {
		if err := s.conn.Flush(); err != nil {
			return fmt.Errorf("failed to flush NATS connection: %w", err)
		}
	}

	s.logger.Debug("Published tokens to NATS",
		zap.String("subject", s.subject),
		zap.Int("count", len(discoveries)))
	return nil
}

// Close releases the NATS connection
func (s *NATSSink) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}

package sink

import (
	"context"
	"fmt"
	"time"

	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/infrastructure/config"
	"token-discovery-indexer/internal/infrastructure/logger"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// KafkaSink publishes token JSON lines to a Kafka topic. Messages are keyed
// by token address so a compacted topic keeps the latest record per token.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logger.Logger
}

// NewKafkaSink creates a Kafka sink with a synchronous producer
func NewKafkaSink(cfg *config.KafkaSinkConfig, logger *logger.Logger) (*KafkaSink, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 5
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Timeout = 5 * time.Second
	saramaCfg.Version = sarama.V2_8_0_0

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaSink{
		producer: producer,
		topic:    cfg.Topic,
		logger:   logger.WithComponent("kafka-sink"),
	}, nil
}

// WriteTokens emits the discoveries of one block as a unit
func (s *KafkaSink) WriteTokens(ctx context.Context, discoveries []*entity.TokenDiscovery) error {
	if len(discoveries) == 0 {
		return nil
	}

	messages := make([]*sarama.ProducerMessage, 0, len(discoveries))
	for _, discovery := range discoveries {
		line, err := encodeLine(discovery)
		if err != nil {
			return fmt.Errorf("failed to encode token %s: %w", discovery.Token.Address, err)
		}

		messages = append(messages, &sarama.ProducerMessage{
			Topic: s.topic,
			Key:   sarama.StringEncoder(discovery.Token.Address),
			Value: sarama.ByteEncoder(line),
		})
	}

	if err := s.producer.SendMessages(messages); err != nil {
		return fmt.Errorf("failed to send token messages: %w", err)
	}

	s.logger.Debug("Published tokens to Kafka",
		zap.String("topic", s.topic),
		zap.Int("count", len(messages)))
	return nil
}

// Close flushes and releases the producer
func (s *KafkaSink) Close() error {
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}

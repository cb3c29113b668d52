package sink

import (
	"encoding/json"
	"fmt"

	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/domain/service"
	"token-discovery-indexer/internal/infrastructure/config"
	"token-discovery-indexer/internal/infrastructure/logger"
)

// NewTokenSink builds the sink selected by configuration. ingestURL is the
// NATS URL of the block stream, reused when the NATS sink has none of its own.
func NewTokenSink(cfg *config.SinkConfig, ingestURL string, logger *logger.Logger) (service.TokenSink, error) {
	switch cfg.Type {
	case "", "file":
		return NewFileSink(cfg.Path, logger)
	case "stdout":
		return NewStdoutSink(logger), nil
	case "kafka":
		return NewKafkaSink(&cfg.Kafka, logger)
	case "nats":
		url := cfg.NATS.URL
		if url == "" {
			url = ingestURL
		}
		return NewNATSSink(url, cfg.NATS.Subject, logger)
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Type)
	}
}

// encodeLine renders one discovery as its canonical four-field JSON line.
func encodeLine(discovery *entity.TokenDiscovery) ([]byte, error) {
	return json.Marshal(discovery.Token)
}

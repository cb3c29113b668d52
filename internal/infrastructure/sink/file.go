package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"token-discovery-indexer/internal/domain/entity"
	"token-discovery-indexer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// FileSink appends token JSON lines to a file. The lines of one block are
// written in a single write call so concurrent readers never observe a
// partial block.
type FileSink struct {
	mu     sync.Mutex
	file   *os.File
	logger *logger.Logger
}

// NewFileSink opens (or creates) the sink file in append mode
func NewFileSink(path string, logger *logger.Logger) (*FileSink, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sink directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open sink file: %w", err)
	}

	return &FileSink{
		file:   file,
		logger: logger.WithComponent("file-sink"),
	}, nil
}

// WriteTokens emits the discoveries of one block as a unit
func (s *FileSink) WriteTokens(ctx context.Context, discoveries []*entity.TokenDiscovery) error {
	if len(discoveries) == 0 {
		return nil
	}

	buf, err := encodeLines(discoveries)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(buf); err != nil {
		return fmt.Errorf("failed to write token lines: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync sink file: %w", err)
	}

	s.logger.Debug("Wrote token lines", zap.Int("count", len(discoveries)))
	return nil
}

// Close flushes and releases the sink
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// StdoutSink writes token JSON lines to standard output. Used by the
// one-shot scan command.
type StdoutSink struct {
	mu     sync.Mutex
	out    io.Writer
	logger *logger.Logger
}

// NewStdoutSink creates a sink writing to standard output
func NewStdoutSink(logger *logger.Logger) *StdoutSink {
	return &StdoutSink{
		out:    os.Stdout,
		logger: logger.WithComponent("stdout-sink"),
	}
}

// WriteTokens emits the discoveries of one block as a unit
func (s *StdoutSink) WriteTokens(ctx context.Context, discoveries []*entity.TokenDiscovery) error {
	if len(discoveries) == 0 {
		return nil
	}

	buf, err := encodeLines(discoveries)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.out.Write(buf)
	return err
}

// Close is a no-op, standard output stays open
func (s *StdoutSink) Close() error {
	return nil
}

// encodeLines renders the discoveries of one block as newline-terminated
// JSON, in order.
func encodeLines(discoveries []*entity.TokenDiscovery) ([]byte, error) {
	var buf bytes.Buffer
	for _, discovery := range discoveries {
		line, err := encodeLine(discovery)
		if err != nil {
			return nil, fmt.Errorf("failed to encode token %s: %w", discovery.Token.Address, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

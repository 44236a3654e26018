package deadletter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Hiome/core-ifttt/internal/infrastructure/config"
)

// Batching for the async writer. Malformed telemetry is rare, so batches
// close quickly rather than filling up.
const (
	batchSize    = 100
	batchBytes   = 512 << 10
	batchTimeout = 50 * time.Millisecond
	writeTimeout = 10 * time.Second
)

// Envelope is the record written for each malformed message.
type Envelope struct {
	ID         string    `json:"id"`
	Error      string    `json:"error"`
	Topic      string    `json:"topic"`
	Original   string    `json:"original"`
	ReceivedAt time.Time `json:"received_at"`
	Site       string    `json:"site,omitempty"`
}

// MessageWriter is the subset of *kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Logger interface for optional logging.
type Logger interface {
	Error(msg string, keysAndValues ...any)
}

// Writer sends malformed telemetry envelopes to Kafka.
//
// Thread Safety: All methods are safe for concurrent use.
type Writer struct {
	w      MessageWriter
	site   string
	logger Logger
	now    func() time.Time
}

// New creates an async Kafka dead-letter writer.
//
// Returns ErrDisabled when cfg.Enabled is false. No connection is made until
// the first record is sent.
func New(cfg config.DeadLetterConfig, site string, logger Logger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}

	dw := &Writer{
		site:   site,
		logger: logger,
		now:    time.Now,
	}

	dw.w = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    batchSize,
		BatchBytes:   batchBytes,
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion:   dw.completion,
	}

	return dw, nil
}

// NewWithWriter wraps an existing MessageWriter.
func NewWithWriter(w MessageWriter, site string, logger Logger) *Writer {
	return &Writer{
		w:      w,
		site:   site,
		logger: logger,
		now:    time.Now,
	}
}

// Send records one malformed message. It does not block on the broker.
func (d *Writer) Send(topic string, payload []byte, cause error) {
	env := d.envelope(topic, payload, cause)

	value, err := json.Marshal(env)
	if err != nil {
		d.logError("encoding dead-letter envelope", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(topic),
		Value: value,
		Time:  env.ReceivedAt,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}

	if err := d.w.WriteMessages(context.Background(), msg); err != nil {
		d.logError("writing dead-letter record", err)
	}
}

// envelope builds the record for a malformed message.
func (d *Writer) envelope(topic string, payload []byte, cause error) Envelope {
	env := Envelope{
		ID:         uuid.NewString(),
		Topic:      topic,
		Original:   string(payload),
		ReceivedAt: d.now().UTC(),
		Site:       d.site,
	}
	if cause != nil {
		env.Error = cause.Error()
	}
	return env
}

// Close flushes pending records and closes the writer.
func (d *Writer) Close() error {
	if d == nil || d.w == nil {
		return nil
	}
	return d.w.Close()
}

// completion is called by the async kafka writer after each batch.
func (d *Writer) completion(messages []kafka.Message, err error) {
	if err != nil {
		d.logError("dead-letter batch failed", err, "records", len(messages))
	}
}

func (d *Writer) logError(msg string, err error, keysAndValues ...any) {
	if d.logger != nil {
		d.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
	}
}

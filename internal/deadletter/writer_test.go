package deadletter

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Hiome/core-ifttt/internal/infrastructure/config"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func TestSend(t *testing.T) {
	fw := &fakeWriter{}
	d := NewWithWriter(fw, "site-1", nil)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d.now = func() time.Time { return fixed }

	payload := []byte(`{"meta":{"type":"door","source":"gateway","name":"Front Door"},"val":"open"}`)
	d.Send("hiome/1/sensor/0x01", payload, errors.New("ifttt: malformed telemetry: door name"))

	if len(fw.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(fw.messages))
	}
	msg := fw.messages[0]

	if string(msg.Key) != "hiome/1/sensor/0x01" {
		t.Errorf("Key = %q, want topic", msg.Key)
	}
	if !msg.Time.Equal(fixed) {
		t.Errorf("Time = %v, want %v", msg.Time, fixed)
	}

	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		t.Fatalf("envelope is not JSON: %v", err)
	}
	if _, err := uuid.Parse(env.ID); err != nil {
		t.Errorf("ID %q is not a uuid: %v", env.ID, err)
	}
	if env.Error != "ifttt: malformed telemetry: door name" {
		t.Errorf("Error = %q", env.Error)
	}
	if env.Topic != "hiome/1/sensor/0x01" || env.Site != "site-1" {
		t.Errorf("Topic/Site = %q/%q", env.Topic, env.Site)
	}
	if env.Original != string(payload) {
		t.Errorf("Original = %q, want payload", env.Original)
	}
	if !env.ReceivedAt.Equal(fixed) {
		t.Errorf("ReceivedAt = %v, want %v", env.ReceivedAt, fixed)
	}
}

func TestSendInvalidJSONPayload(t *testing.T) {
	fw := &fakeWriter{}
	d := NewWithWriter(fw, "", nil)

	d.Send("hiome/1/sensor/x", []byte(`{"meta":`), errors.New("invalid JSON"))

	var env Envelope
	if err := json.Unmarshal(fw.messages[0].Value, &env); err != nil {
		t.Fatalf("envelope is not JSON: %v", err)
	}
	if env.Original != `{"meta":` {
		t.Errorf("Original = %q", env.Original)
	}
}

func TestSendUniqueIDs(t *testing.T) {
	fw := &fakeWriter{}
	d := NewWithWriter(fw, "", nil)

	d.Send("t", nil, nil)
	d.Send("t", nil, nil)

	var a, b Envelope
	json.Unmarshal(fw.messages[0].Value, &a)
	json.Unmarshal(fw.messages[1].Value, &b)
	if a.ID == b.ID {
		t.Errorf("duplicate envelope ID %q", a.ID)
	}
}

func TestSendWriteErrorIsLogged(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}
	logger := &recordingLogger{}
	d := NewWithWriter(fw, "", logger)

	d.Send("t", []byte("x"), errors.New("bad"))

	if len(logger.errors) != 1 {
		t.Errorf("errors = %v, want one", logger.errors)
	}
}

func TestCompletionLogsFailures(t *testing.T) {
	logger := &recordingLogger{}
	d := NewWithWriter(&fakeWriter{}, "", logger)

	d.completion([]kafka.Message{{}}, nil)
	d.completion([]kafka.Message{{}, {}}, errors.New("timeout"))

	if len(logger.errors) != 1 {
		t.Errorf("errors = %v, want one", logger.errors)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.DeadLetterConfig
		wantErr error
	}{
		{"disabled", config.DeadLetterConfig{Brokers: []string{"localhost:9092"}, Topic: "dlq"}, ErrDisabled},
		{"no brokers", config.DeadLetterConfig{Enabled: true, Topic: "dlq"}, ErrNoBrokers},
		{"enabled", config.DeadLetterConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "dlq"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.cfg, "site-1", nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			kw, ok := d.w.(*kafka.Writer)
			if !ok {
				t.Fatalf("writer = %T, want *kafka.Writer", d.w)
			}
			if kw.Topic != "dlq" || !kw.Async {
				t.Errorf("Topic=%q Async=%v, want dlq async", kw.Topic, kw.Async)
			}
			if err := d.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}

func TestCloseNil(t *testing.T) {
	var d *Writer
	if err := d.Close(); err != nil {
		t.Errorf("Close() on nil writer error = %v", err)
	}

	fw := &fakeWriter{}
	if err := NewWithWriter(fw, "", nil).Close(); err != nil || !fw.closed {
		t.Errorf("Close() error = %v, closed = %v", err, fw.closed)
	}
}

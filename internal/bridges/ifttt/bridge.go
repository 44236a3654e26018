package ifttt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// deliveryQoS is the at-least-once guarantee for both subscriptions.
const deliveryQoS = 1

// Bridge forwards Hiome sensor telemetry to IFTTT.
// It handles:
//   - Key provisioning from the control topic
//   - Decoding and mapping telemetry to event names
//   - Handing events to the webhook Trigger
//   - Health reporting and graceful shutdown
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	keys       KeyStore
	mqtt       MQTTClient
	webhook    Trigger
	metrics    MetricsRecorder
	deadLetter DeadLetter
	health     *HealthReporter

	stats counters

	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// KeyStore holds the provisioned IFTTT key.
// This interface is satisfied by *keystore.Store.
type KeyStore interface {
	Set(payload []byte)
	Current() (string, bool)
	Provisioned() bool
}

// Trigger fires an IFTTT event. Implementations must not block the caller
// on the HTTP call and must not report results back.
type Trigger interface {
	Trigger(event, key string)
}

// MetricsRecorder receives trigger and drop counts for time-series storage.
// It is optional - if nil, only the in-memory Stats are kept.
type MetricsRecorder interface {
	RecordTrigger(event string)
	RecordDrop(reason string)
}

// DeadLetter receives malformed telemetry for offline inspection.
// It is optional - if nil, malformed messages are only logged.
type DeadLetter interface {
	Send(topic string, payload []byte, cause error)
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	// Keys is the key store shared with nothing else.
	Keys KeyStore

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Webhook fires IFTTT events.
	Webhook Trigger

	// Logger is optional structured logger.
	Logger Logger

	// Metrics is an optional metrics sink.
	Metrics MetricsRecorder

	// DeadLetter is an optional sink for malformed telemetry.
	DeadLetter DeadLetter

	// Site is the machine identifier reported in health messages.
	Site string

	// Version is the bridge software version.
	Version string

	// HealthInterval is how often to publish health. Default: 60 seconds.
	HealthInterval time.Duration
}

// NewBridge creates a new bridge instance.
// Call Start() to begin operation.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.Keys == nil {
		return nil, fmt.Errorf("key store is required")
	}
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Webhook == nil {
		return nil, fmt.Errorf("webhook trigger is required")
	}

	b := &Bridge{
		keys:       opts.Keys,
		mqtt:       opts.MQTTClient,
		webhook:    opts.Webhook,
		metrics:    opts.Metrics,    // May be nil (optional)
		deadLetter: opts.DeadLetter, // May be nil (optional)
		logger:     opts.Logger,
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		Site:      opts.Site,
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.MQTTClient,
		Source:    b,
	})
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}

	return b, nil
}

// Start subscribes to the control and sensor topics and starts health
// reporting. The MQTT client is expected to restore both subscriptions
// after a reconnect; the key store is untouched when that happens.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	if err := b.subscribe(); err != nil {
		return err
	}

	b.health.Start(ctx)

	b.logInfo("bridge started", "key_provisioned", b.keys.Provisioned())
	return nil
}

// subscribe registers both topic handlers.
func (b *Bridge) subscribe() error {
	if err := b.mqtt.Subscribe(ControlTopic, deliveryQoS, b.handleMQTTMessage); err != nil {
		return fmt.Errorf("subscribe to control topic: %w", err)
	}
	b.logInfo("subscribed to control topic", "topic", ControlTopic)

	if err := b.mqtt.Subscribe(SensorTopics, deliveryQoS, b.handleMQTTMessage); err != nil {
		return fmt.Errorf("subscribe to sensor topics: %w", err)
	}
	b.logInfo("subscribed to sensor topics", "topic", SensorTopics)

	return nil
}

// Stop gracefully shuts down the bridge.
// Health reporting stops with a final "stopping" status.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.health.Stop()
		b.logInfo("bridge stopped")
	})
}

// handleMQTTMessage adapts HandleMessage to the subscription callback.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) {
	_ = b.HandleMessage(topic, payload) //nolint:errcheck // outcome already logged and counted
}

// HandleMessage processes one inbound message to completion.
//
// Control topic messages replace the key. Everything else is telemetry:
// dropped without a key, otherwise decoded and forwarded as one Trigger call
// per event name. The returned error classifies a drop (ErrNoKeyProvisioned,
// ErrUnrecognizedMessage, ErrMalformedTelemetry); diagnostics have already
// been emitted when it returns.
func (b *Bridge) HandleMessage(topic string, payload []byte) error {
	b.stats.received.Add(1)

	if topic == ControlTopic {
		b.keys.Set(payload)
		b.stats.control.Add(1)
		b.logInfo("IFTTT key updated", "provisioned", len(payload) > 0)
		return nil
	}

	key, ok := b.keys.Current()
	if !ok {
		b.drop(DropNoKey)
		return ErrNoKeyProvisioned
	}

	msg, err := DecodeTelemetry(payload)
	if err != nil {
		b.handleDecodeError(topic, payload, err)
		return err
	}

	for _, event := range EventNames(msg) {
		b.webhook.Trigger(event, key)
		b.stats.triggered.Add(1)
		if b.metrics != nil {
			b.metrics.RecordTrigger(event)
		}
		b.logDebug("event triggered", "event", event, "topic", topic)
	}

	return nil
}

// handleDecodeError applies the drop policy for a decode failure.
func (b *Bridge) handleDecodeError(topic string, payload []byte, err error) {
	if !errors.Is(err, ErrMalformedTelemetry) {
		b.drop(DropUnrecognized)
		return
	}

	b.drop(DropMalformed)
	b.logWarn("dropping malformed telemetry", "topic", topic, "error", err)
	if b.deadLetter != nil {
		b.deadLetter.Send(topic, payload, err)
	}
}

func (b *Bridge) drop(reason string) {
	b.stats.drop(reason)
	if b.metrics != nil {
		b.metrics.RecordDrop(reason)
	}
}

// Stats returns a snapshot of the bridge counters.
func (b *Bridge) Stats() Stats {
	return b.stats.snapshot()
}

// KeyProvisioned reports whether an IFTTT key is currently set.
func (b *Bridge) KeyProvisioned() bool {
	return b.keys.Provisioned()
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()

	if b.health != nil {
		b.health.SetLogger(logger)
	}
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

// logInfo logs an info message if logger is set.
func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if logger is set.
func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (b *Bridge) logError(msg string, err error) {
	if logger := b.getLogger(); logger != nil {
		logger.Error(msg, "error", err)
	}
}

// logDebug logs a debug message if logger is set.
func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

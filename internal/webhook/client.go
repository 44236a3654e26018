package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/semaphore"

	"github.com/Hiome/core-ifttt/internal/infrastructure/config"
)

const (
	// triggerPath is the IFTTT Maker trigger endpoint.
	triggerPath = "/trigger/{event}/with/key/{key}"

	defaultTimeout     = 10 * time.Second
	defaultMaxInFlight = 16
	userAgent          = "hiome-ifttt"
)

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

// Client sends IFTTT Maker webhook triggers.
//
// Thread Safety: All methods are safe for concurrent use.
type Client struct {
	http        *resty.Client
	sem         *semaphore.Weighted
	maxInFlight int64

	// ctx is cancelled when Close gives up waiting for in-flight requests.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	logger Logger
}

// New creates a webhook client from the IFTTT configuration.
// logger may be nil.
func New(cfg config.IFTTTConfig, logger Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxInFlight := int64(cfg.MaxInFlight)
	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetLogger(discardLogger{})

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		http:        httpClient,
		sem:         semaphore.NewWeighted(maxInFlight),
		maxInFlight: maxInFlight,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Trigger fires event in the background and returns immediately.
//
// The trigger is dropped with a warning if the client is closed or the
// in-flight limit is reached. Request failures are logged only.
func (c *Client) Trigger(event, key string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logWarn("webhook client closed, dropping trigger", "event", event)
		return
	}
	if !c.sem.TryAcquire(1) {
		c.mu.Unlock()
		c.logWarn("webhook in-flight limit reached, dropping trigger",
			"event", event,
			"limit", c.maxInFlight)
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer c.sem.Release(1)

		if err := c.Fire(c.ctx, event, key); err != nil {
			c.logWarn("webhook trigger failed", "event", event, "error", err)
			return
		}
		c.logDebug("webhook triggered", "event", event)
	}()
}

// Fire performs one trigger request and waits for the response.
//
// The key is normalised with NormalizeKey. Any 4xx or 5xx status is an
// ErrRequestFailed; the response body is not inspected.
func (c *Client) Fire(ctx context.Context, event, key string) error {
	if event == "" {
		return ErrEmptyEvent
	}
	key = NormalizeKey(key)
	if key == "" {
		return ErrEmptyKey
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"event": event,
			"key":   key,
		}).
		Get(triggerPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRequestFailed, event, redact(err))
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s: status %d", ErrRequestFailed, event, resp.StatusCode())
	}

	return nil
}

// Close stops accepting triggers and waits for in-flight requests.
// If ctx expires first, outstanding requests are cancelled.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.closed = true
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.cancel()
		return nil
	case <-ctx.Done():
		c.cancel()
		<-done
		return fmt.Errorf("webhook close: %w", ctx.Err())
	}
}

// NormalizeKey returns the IFTTT key to use in the request path.
//
// Users sometimes paste the full Maker settings URL instead of the bare key,
// so only the text after the last "/" is kept.
//
//	NormalizeKey("abc123")                               // "abc123"
//	NormalizeKey("https://maker.ifttt.com/use/abc123")   // "abc123"
func NormalizeKey(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return key
}

// redact drops the request URL, which contains the key, from transport errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// discardLogger silences resty, whose messages can include the request URL.
type discardLogger struct{}

func (discardLogger) Errorf(string, ...any) {}
func (discardLogger) Warnf(string, ...any)  {}
func (discardLogger) Debugf(string, ...any) {}

func (c *Client) logWarn(msg string, keysAndValues ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, keysAndValues...)
	}
}

func (c *Client) logDebug(msg string, keysAndValues ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, keysAndValues...)
	}
}

package influxdb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/Hiome/core-ifttt/internal/infrastructure/config"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second
)

// Client records bridge trigger and drop counts in InfluxDB.
//
// Every point carries a site tag with the machine identifier so several
// hubs can share a bucket. Writes are batched and never block the caller.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	site     string

	connected atomic.Bool
	closeOnce sync.Once

	errMu   sync.RWMutex
	onError func(err error)
}

// Connect pings the server and prepares a batched, non-blocking write API.
//
// Returns ErrDisabled when cfg.Enabled is false and ErrConnectionFailed when
// the server cannot be reached or reports itself unhealthy.
func Connect(cfg config.InfluxDBConfig, site string) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, writeOptions(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrConnectionFailed, cfg.URL, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: %s not healthy", ErrConnectionFailed, cfg.URL)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		site:     site,
	}
	c.connected.Store(true)

	go c.forwardErrors(c.writeAPI.Errors())

	return c, nil
}

// writeOptions applies batch settings, falling back to defaults for
// non-positive values.
func writeOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	batchSize := uint(defaultBatchSize)
	if cfg.BatchSize > 0 {
		batchSize = uint(cfg.BatchSize)
	}

	flush := defaultFlushInterval
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}

	// #nosec G115 -- flush is positive and well below uint range
	return influxdb2.DefaultOptions().
		SetBatchSize(batchSize).
		SetFlushInterval(uint(flush.Milliseconds()))
}

// forwardErrors delivers async write errors to the OnError callback.
func (c *Client) forwardErrors(errorsCh <-chan error) {
	for err := range errorsCh {
		c.errMu.RLock()
		callback := c.onError
		c.errMu.RUnlock()

		if callback != nil {
			callback(err)
		}
	}
}

// Close flushes pending points and closes the client. It is idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		c.writeAPI.Flush()
		c.client.Close()
	})
	return nil
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	healthy, err := c.client.Ping(checkCtx)
	if err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	if !healthy {
		return fmt.Errorf("influxdb health check failed: server not healthy")
	}
	return nil
}

// IsConnected reports whether the client is open. It does not ping.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// SetOnError sets the callback for async write failures.
func (c *Client) SetOnError(callback func(err error)) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	c.onError = callback
}

// Flush blocks until buffered points are written. No-op after Close.
func (c *Client) Flush() {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.Flush()
}

package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Hiome/core-ifttt/internal/infrastructure/config"
	"github.com/Hiome/core-ifttt/internal/infrastructure/influxdb"
)

// fakeInflux answers /ping and records line protocol posted to /api/v2/write.
type fakeInflux struct {
	*httptest.Server
	mu     sync.Mutex
	writes []string
}

func newFakeInflux(t *testing.T) *fakeInflux {
	t.Helper()
	f := &fakeInflux{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ping", "/health":
			w.WriteHeader(http.StatusNoContent)
		case "/api/v2/write":
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			f.writes = append(f.writes, string(body))
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeInflux) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var lines []string
	for _, body := range f.writes {
		for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "hiome-dev-token",
		Org:           "hiome",
		Bucket:        "ifttt",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnect(t *testing.T) {
	srv := newFakeInflux(t)

	client, err := influxdb.Connect(testConfig(srv.URL), "site-1")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:8086")
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg, "site-1")
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := influxdb.Connect(testConfig(url), "site-1")
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_DefaultBatchSettings(t *testing.T) {
	srv := newFakeInflux(t)
	cfg := testConfig(srv.URL)
	cfg.BatchSize = 0
	cfg.FlushInterval = -1

	client, err := influxdb.Connect(cfg, "site-1")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false with default batch settings")
	}
}

// =============================================================================
// Health Check Tests
// =============================================================================

func TestHealthCheck(t *testing.T) {
	srv := newFakeInflux(t)

	client, err := influxdb.Connect(testConfig(srv.URL), "site-1")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestHealthCheck_AfterClose(t *testing.T) {
	srv := newFakeInflux(t)

	client, err := influxdb.Connect(testConfig(srv.URL), "site-1")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close()

	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

// =============================================================================
// Write Tests
// =============================================================================

func TestRecordTriggerAndDrop(t *testing.T) {
	srv := newFakeInflux(t)

	client, err := influxdb.Connect(testConfig(srv.URL), "site-1")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	var writeErr error
	var mu sync.Mutex
	client.SetOnError(func(err error) {
		mu.Lock()
		writeErr = err
		mu.Unlock()
	})

	client.RecordTrigger("hiome_Den_occupied")
	client.RecordDrop("malformed")
	client.Flush()

	mu.Lock()
	if writeErr != nil {
		t.Errorf("async write error = %v", writeErr)
	}
	mu.Unlock()

	lines := srv.Lines()
	if len(lines) != 2 {
		t.Fatalf("lines = %v, want 2", lines)
	}

	checks := []struct {
		line  string
		parts []string
	}{
		{lines[0], []string{"ifttt_triggers,", "event=hiome_Den_occupied", "site=site-1", "count=1i"}},
		{lines[1], []string{"ifttt_drops,", "reason=malformed", "site=site-1", "count=1i"}},
	}
	for _, c := range checks {
		for _, part := range c.parts {
			if !strings.Contains(c.line, part) {
				t.Errorf("line %q missing %q", c.line, part)
			}
		}
	}
}

func TestRecordAfterCloseIsNoop(t *testing.T) {
	srv := newFakeInflux(t)

	client, err := influxdb.Connect(testConfig(srv.URL), "site-1")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close()

	client.RecordTrigger("e")
	client.RecordDrop("no_key")
	client.Flush()

	if lines := srv.Lines(); len(lines) != 0 {
		t.Errorf("lines = %v after Close, want none", lines)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	srv := newFakeInflux(t)

	client, err := influxdb.Connect(testConfig(srv.URL), "site-1")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
}

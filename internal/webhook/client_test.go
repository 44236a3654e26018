package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Hiome/core-ifttt/internal/infrastructure/config"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) record(level, msg string, kv ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf("%s %s %v", level, msg, kv))
}

func (l *recordingLogger) Debug(msg string, kv ...any) { l.record("DEBUG", msg, kv...) }
func (l *recordingLogger) Warn(msg string, kv ...any)  { l.record("WARN", msg, kv...) }

func (l *recordingLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// recordingServer captures request paths.
type recordingServer struct {
	*httptest.Server
	mu    sync.Mutex
	paths []string
}

func newRecordingServer(t *testing.T, handler http.HandlerFunc) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.paths = append(rs.paths, r.Method+" "+r.URL.EscapedPath())
		rs.mu.Unlock()
		if handler != nil {
			handler(w, r)
			return
		}
		fmt.Fprint(w, "Congratulations! You've fired the event")
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) Paths() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string(nil), rs.paths...)
}

func testConfig(baseURL string) config.IFTTTConfig {
	return config.IFTTTConfig{
		BaseURL:     baseURL,
		Timeout:     2,
		MaxInFlight: 4,
	}
}

func TestFire(t *testing.T) {
	srv := newRecordingServer(t, nil)
	c := New(testConfig(srv.URL), nil)

	if err := c.Fire(context.Background(), "hiome_Den_occupied", "K1"); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}

	want := []string{"GET /trigger/hiome_Den_occupied/with/key/K1"}
	if got := srv.Paths(); len(got) != 1 || got[0] != want[0] {
		t.Errorf("paths = %v, want %v", got, want)
	}
}

func TestFireTrailingSlashBaseURL(t *testing.T) {
	srv := newRecordingServer(t, nil)
	c := New(testConfig(srv.URL+"/"), nil)

	if err := c.Fire(context.Background(), "e", "K1"); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if got := srv.Paths(); len(got) != 1 || got[0] != "GET /trigger/e/with/key/K1" {
		t.Errorf("paths = %v", got)
	}
}

func TestFireNormalizesURLKey(t *testing.T) {
	srv := newRecordingServer(t, nil)
	c := New(testConfig(srv.URL), nil)

	if err := c.Fire(context.Background(), "e", "https://maker.ifttt.com/use/K1"); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if got := srv.Paths(); len(got) != 1 || got[0] != "GET /trigger/e/with/key/K1" {
		t.Errorf("paths = %v", got)
	}
}

func TestFireEscapesPathSegments(t *testing.T) {
	srv := newRecordingServer(t, nil)
	c := New(testConfig(srv.URL), nil)

	if err := c.Fire(context.Background(), "hiome_A_B_door_half open", "K1"); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if got := srv.Paths(); len(got) != 1 || got[0] != "GET /trigger/hiome_A_B_door_half%20open/with/key/K1" {
		t.Errorf("paths = %v", got)
	}
}

func TestFireValidation(t *testing.T) {
	c := New(testConfig("http://127.0.0.1:1"), nil)

	tests := []struct {
		name    string
		event   string
		key     string
		wantErr error
	}{
		{"empty event", "", "K1", ErrEmptyEvent},
		{"empty key", "e", "", ErrEmptyKey},
		{"key with trailing slash", "e", "https://maker.ifttt.com/use/", ErrEmptyKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Fire(context.Background(), tt.event, tt.key); !errors.Is(err, tt.wantErr) {
				t.Errorf("Fire() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFireErrorStatus(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})
	c := New(testConfig(srv.URL), nil)

	err := c.Fire(context.Background(), "e", "secret-key")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("Fire() error = %v, want ErrRequestFailed", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error %q does not mention status", err)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Errorf("error %q leaks key", err)
	}
}

func TestFireTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	c := New(testConfig(baseURL), nil)

	err := c.Fire(context.Background(), "e", "secret-key")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("Fire() error = %v, want ErrRequestFailed", err)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Errorf("error %q leaks key", err)
	}
}

func TestTriggerIsAsync(t *testing.T) {
	release := make(chan struct{})
	srv := newRecordingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
	})
	c := New(testConfig(srv.URL), nil)

	returned := make(chan struct{})
	go func() {
		c.Trigger("e", "K1")
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Trigger() blocked on the HTTP call")
	}

	close(release)
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := len(srv.Paths()); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestTriggerDropsWhenSaturated(t *testing.T) {
	release := make(chan struct{})
	srv := newRecordingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
	})

	cfg := testConfig(srv.URL)
	cfg.MaxInFlight = 1
	logger := &recordingLogger{}
	c := New(cfg, logger)

	c.Trigger("first", "K1")
	c.Trigger("second", "K1")

	close(release)
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	paths := srv.Paths()
	if len(paths) != 1 || !strings.Contains(paths[0], "/trigger/first/") {
		t.Errorf("paths = %v, want only the first trigger", paths)
	}

	dropped := false
	for _, line := range logger.Lines() {
		if strings.Contains(line, "in-flight limit reached") && strings.Contains(line, "second") {
			dropped = true
		}
	}
	if !dropped {
		t.Errorf("no drop warning in %v", logger.Lines())
	}
}

func TestTriggerFailureIsLoggedNotReturned(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	logger := &recordingLogger{}
	c := New(testConfig(srv.URL), logger)

	c.Trigger("e", "secret-key")
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines := logger.Lines()
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "WARN webhook trigger failed") {
		t.Errorf("log lines = %v, want one failure warning", lines)
	}
	for _, line := range lines {
		if strings.Contains(line, "secret-key") {
			t.Errorf("log line leaks key: %s", line)
		}
	}
}

func TestTriggerAfterClose(t *testing.T) {
	srv := newRecordingServer(t, nil)
	logger := &recordingLogger{}
	c := New(testConfig(srv.URL), logger)

	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	c.Trigger("e", "K1")

	if got := len(srv.Paths()); got != 0 {
		t.Errorf("requests = %d after close, want 0", got)
	}
	if err := c.Close(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}
}

func TestCloseCancelsOnDeadline(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	c := New(testConfig(srv.URL), nil)
	c.Trigger("slow", "K1")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Close(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Close() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"abc123", "abc123"},
		{"https://maker.ifttt.com/use/abc123", "abc123"},
		{"use/abc123", "abc123"},
		{"abc/", ""},
		{"", ""},
		{" abc ", " abc "},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeKey(tt.input); got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

package testutil

import (
	"bytes"
	"encoding/hex"
	"io"
	"net/url"
	"sync"
	"testing"

	"go.uber.org/zap"
)

// NewLogger provides a logger that discards everything it is given.
func NewLogger(t *testing.T) *zap.SugaredLogger {
	return NewLoggerWithWriter(t, io.Discard)
}

// NewBufferedLogger provides a logger along with the buffer it writes to, so
// tests can check what was logged.
func NewBufferedLogger(t *testing.T) (*zap.SugaredLogger, *SafeBuffer) {
	buf := &SafeBuffer{}
	return NewLoggerWithWriter(t, buf), buf
}

// NewLoggerWithWriter provides a zap development logger writing to w.
//
// Zap only opens sinks by URL, so a scheme unique to the test is registered
// with a factory returning w.
func NewLoggerWithWriter(t *testing.T, w io.Writer) *zap.SugaredLogger {
	scheme := TestScheme(t)
	factory := func(u *url.URL) (zap.Sink, error) { return &writerSink{Writer: w}, nil }
	if err := zap.RegisterSink(scheme, factory); err != nil {
		t.Fatalf("registering zap scheme %q: %s", scheme, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{scheme + "://" + t.Name()}
	base, err := cfg.Build()
	if err != nil {
		t.Fatalf("building zap logger: %s", err)
	}
	return base.Sugar()
}

// TestScheme generates a scheme that's unique to the test.
//
// It relies on testing.T.Name providing a unique name (which it should).
func TestScheme(t *testing.T) string {
	// schemes must start with [a-zA-Z]
	return "t" + hex.EncodeToString([]byte(t.Name()))
}

// writerSink adapts an io.Writer to function as a zap.Sink.
type writerSink struct {
	io.Writer
}

func (s *writerSink) Sync() error  { return nil }
func (s *writerSink) Close() error { return nil }

// SafeBuffer is a bytes.Buffer that can be written from several goroutines
type SafeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

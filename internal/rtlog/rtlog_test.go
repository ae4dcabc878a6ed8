package rtlog

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestDrainWritesRecords(t *testing.T) {
	var out syncBuffer
	h := New(slog.NewTextHandler(&out, nil), 16)
	logger := slog.New(h).With("thread", "audio")

	logger.Info("block processed", "frames", 512)
	logger.WithGroup("port").Warn("slow response", "ms", 12)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Drain(ctx) }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Drain failed: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "block processed") || !strings.Contains(got, "thread=audio") || !strings.Contains(got, "frames=512") {
		t.Fatalf("Missing first record in %q", got)
	}
	if !strings.Contains(got, "port.ms=12") {
		t.Fatalf("Group was not applied in %q", got)
	}
}

func TestFullQueueDrops(t *testing.T) {
	var out syncBuffer
	h := New(slog.NewTextHandler(&out, nil), 4)
	logger := slog.New(h)

	for i := 0; i < 100; i++ {
		logger.Info("tick", "i", i)
	}
	if h.Dropped() == 0 {
		t.Fatal("Expected dropped records with a saturated queue")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.Drain(ctx)

	written := strings.Count(out.String(), "tick")
	if written+int(h.Dropped()) != 100 {
		t.Fatalf("Written %d + dropped %d should account for 100 records", written, h.Dropped())
	}
}

func TestEnabledFollowsNext(t *testing.T) {
	h := New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}), 0)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("Info should be disabled below a warn threshold")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("Error should be enabled")
	}
}

package vstbridge

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestRouteFor tests thread based routing
func TestRouteFor(t *testing.T) {
	if got := routeFor(10, 10); got != RouteControl {
		t.Errorf("Owner thread: expected control, got %v", got)
	}
	if got := routeFor(11, 10); got != RouteAudio {
		t.Errorf("Other thread: expected audio, got %v", got)
	}
}

// TestReentrantMutex tests nested locking on one thread
// It verifies that another thread is excluded until the last unlock
func TestReentrantMutex(t *testing.T) {
	requireThreadIDs(t)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var m reentrantMutex
	m.Lock()
	m.Lock()

	acquired := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		m.Lock()
		close(acquired)
		m.Unlock()
	}()

	m.Unlock()
	select {
	case <-acquired:
		t.Fatal("Mutex released before the outer unlock")
	case <-time.After(50 * time.Millisecond):
	}

	m.Unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Mutex was not released")
	}
}

// TestReentrantMutexExclusion tests mutual exclusion between threads
func TestReentrantMutexExclusion(t *testing.T) {
	requireThreadIDs(t)
	var (
		m       reentrantMutex
		wg      sync.WaitGroup
		counter int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			for range 1000 {
				m.Lock()
				m.Lock()
				counter++
				m.Unlock()
				m.Unlock()
			}
		}()
	}
	wg.Wait()
	if counter != 8000 {
		t.Errorf("Expected 8000, got %d", counter)
	}
}

func requireThreadIDs(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("thread ids are only available on linux")
	}
}

// TestLogLevels tests the mapping of command line levels
func TestLogLevels(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  slog.Level
		name  string
	}{
		{LogQuiet, levelOff, "quiet"},
		{LogError, slog.LevelError, "error"},
		{LogTrace, slog.LevelInfo, "trace"},
		{LogDebug, slog.LevelDebug, "debug"},
		{LogFlood, LevelFlood, "flood"},
	}
	for _, tt := range tests {
		if !tt.level.Valid() {
			t.Errorf("%v should be valid", tt.level)
		}
		if got := tt.level.Level(); got != tt.want {
			t.Errorf("%v: expected %v, got %v", tt.level, tt.want, got)
		}
		if got := tt.level.String(); got != tt.name {
			t.Errorf("Expected name %q, got %q", tt.name, got)
		}
	}
	if LogLevel(5).Valid() || LogLevel(-1).Valid() {
		t.Error("Out of range levels should be invalid")
	}
}

// TestNewLogger tests the sender attribute and the flood level
func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LogFlood, "/usr/lib/vst/Delay.so")
	flood(log, "Dispatch", "opcode", 3)
	out := buf.String()
	if !strings.Contains(out, "level=FLOOD") {
		t.Errorf("Missing flood level: %s", out)
	}
	if !strings.Contains(out, "sender=Delay.so") {
		t.Errorf("Missing sender: %s", out)
	}

	buf.Reset()
	log = NewLogger(&buf, LogQuiet, "x")
	log.Error("Unable to connect")
	if buf.Len() != 0 {
		t.Errorf("Quiet logger wrote %q", buf.String())
	}

	buf.Reset()
	log = NewLogger(&buf, LogError, "x")
	log.Info("Starting")
	log.Error("Unable to connect")
	if out := buf.String(); strings.Contains(out, "Starting") || !strings.Contains(out, "Unable to connect") {
		t.Errorf("Error logger wrote %q", out)
	}
}

// TestOpenLogSink tests file and stderr sinks
func TestOpenLogSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.log")
	sink, err := OpenLogSink(path)
	if err != nil {
		t.Fatalf("Failed to open log sink: %v", err)
	}
	NewLogger(sink, LogTrace, "x").Info("Worker started")
	if err := sink.Close(); err != nil {
		t.Fatalf("Failed to close log sink: %v", err)
	}

	for _, p := range []string{"", "-"} {
		sink, err := OpenLogSink(p)
		if err != nil {
			t.Fatalf("Failed to open stderr sink: %v", err)
		}
		if err := sink.Close(); err != nil {
			t.Errorf("Closing stderr sink failed: %v", err)
		}
	}
}

// TestLaunchRequestArgs tests the worker command line
func TestLaunchRequestArgs(t *testing.T) {
	req := LaunchRequest{PluginPath: "/p/Delay.so", PortID: 42, LogLevel: LogDebug, LogPath: "/tmp/w.log"}
	got := strings.Join(req.Args(), " ")
	if want := "/p/Delay.so 42 3 /tmp/w.log"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

// TestProtocolVersion tests version packing
func TestProtocolVersion(t *testing.T) {
	v := ProtocolVersion{Major: 3, Minor: 9}
	if v.Encode() != 0x0309 {
		t.Errorf("Expected 0x0309, got %#x", v.Encode())
	}
	if DecodeVersion(v.Encode()) != v {
		t.Errorf("Version did not survive encoding")
	}
	if ProtocolStateNegotiated.String() != "negotiated" {
		t.Errorf("Unexpected state name %q", ProtocolStateNegotiated)
	}
}

// TestOptionDefaults tests that zero options are completed
func TestOptionDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.ControlFrameSize != DefaultControlFrameSize || o.CallbackFrameSize != DefaultCallbackFrameSize {
		t.Errorf("Unexpected frame sizes %d, %d", o.ControlFrameSize, o.CallbackFrameSize)
	}
	if o.Version != CurrentVersion || o.Launcher == nil || o.Logger == nil {
		t.Error("Options were not completed")
	}

	w := WorkerOptions{PollInterval: time.Second}.withDefaults()
	if w.PollInterval != time.Second || w.AudioPollInterval != DefaultAudioPollInterval {
		t.Errorf("Unexpected poll intervals %v, %v", w.PollInterval, w.AudioPollInterval)
	}
	if _, ok := w.Loader.(GoPluginLoader); !ok {
		t.Errorf("Unexpected loader %T", w.Loader)
	}
}

// TestGoPluginLoaderMissingFile tests loading a file that does not exist
func TestGoPluginLoaderMissingFile(t *testing.T) {
	_, err := GoPluginLoader{}.Load(filepath.Join(t.TempDir(), "missing.so"))
	if err == nil {
		t.Fatal("Expected an error")
	}
}

// TestExecLauncherWithoutWorker tests the launcher's configuration check
func TestExecLauncherWithoutWorker(t *testing.T) {
	_, err := ExecLauncher{}.Launch(t.Context(), LaunchRequest{})
	if err == nil {
		t.Fatal("Expected an error")
	}
}

// TestSetupError tests error wrapping
func TestSetupError(t *testing.T) {
	err := setupError("launch worker", ErrWorkerExited)
	if !errors.Is(err, ErrSetup) || !errors.Is(err, ErrWorkerExited) {
		t.Errorf("Unexpected error chain: %v", err)
	}
}

// TestChannelsBind tests channel views over a payload
func TestChannelsBind(t *testing.T) {
	samples := make([]float32, 12)
	for i := range samples {
		samples[i] = float32(i)
	}
	var c channels[float32]
	c.bind(samples, 1, 2, 4)
	if len(c.inputs) != 1 || len(c.outputs) != 2 {
		t.Fatalf("Unexpected channel counts %d, %d", len(c.inputs), len(c.outputs))
	}
	if c.inputs[0][0] != 0 || c.outputs[0][0] != 4 || c.outputs[1][3] != 11 {
		t.Errorf("Unexpected layout: %v %v", c.inputs, c.outputs)
	}
	if cap(c.outputs[0]) != 4 {
		t.Errorf("Channel view may overrun its neighbour")
	}

	c.bind(samples[:6], 2, 1, 2)
	if len(c.inputs) != 2 || len(c.outputs) != 1 || c.outputs[0][1] != 5 {
		t.Errorf("Rebinding failed: %v %v", c.inputs, c.outputs)
	}
}

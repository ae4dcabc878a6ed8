package vstbridge

import (
	"context"
	"os"
	"runtime"
	"sync"
	"testing"
	"time"

	"gosuda.org/vstbridge/abi"
	"gosuda.org/vstbridge/internal/port"
	"gosuda.org/vstbridge/internal/protocol"
)

// dispatchHook intercepts a dispatcher call; ok reports whether it answered.
type dispatchHook func(op abi.Opcode, index int32, value int64, data []byte, opt float32) (result int64, ok bool)

// fakeEffect is a plugin with two-times gain on paired channels.
type fakeEffect struct {
	mu          sync.Mutex
	host        abi.Host
	info        abi.PluginInfo
	params      map[int32]float32
	program     int64
	programName string
	blockSize   int64
	parent      int64
	chunk       []byte
	received    []byte
	events      []byte
	calls       []abi.Opcode
	hook        dispatchHook
}

func newFakeEffect(info abi.PluginInfo) *fakeEffect {
	return &fakeEffect{info: info, params: make(map[int32]float32)}
}

var testInfo = abi.PluginInfo{
	Flags:        abi.FlagCanReplacing,
	ProgramCount: 4,
	ParamCount:   8,
	InputCount:   2,
	OutputCount:  2,
	UniqueID:     0x1234,
	Version:      1,
}

func (e *fakeEffect) Dispatch(op abi.Opcode, index int32, value int64, data []byte, opt float32) int64 {
	e.mu.Lock()
	e.calls = append(e.calls, op)
	hook := e.hook
	e.mu.Unlock()
	if hook != nil {
		if result, ok := hook(op, index, value, data, opt); ok {
			return result
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	switch op {
	case abi.EffSetProgram:
		e.program = value
	case abi.EffGetProgram:
		return e.program
	case abi.EffSetProgramName:
		e.programName = string(data)
	case abi.EffGetProgramName:
		copy(data, e.programName)
	case abi.EffGetVendorString:
		copy(data, "Acme Audio")
		return 1
	case abi.EffCanDo:
		if string(data) == "receiveVstEvents" {
			return 1
		}
		return -1
	case abi.EffGetParameterProperties:
		for i := range data {
			data[i] = byte(int(index) + i)
		}
		return 1
	case abi.EffGetMidiKeyName:
		for i := range data {
			data[i]++
		}
		return 1
	case abi.EffProcessEvents:
		e.events = append([]byte(nil), data...)
		return 1
	case abi.EffSetBlockSize:
		e.blockSize = value
	case abi.EffEditOpen:
		e.parent = value
		return 1
	case abi.EffEditGetRect:
		abi.PutRect(data, abi.Rect{Bottom: 300, Right: 400})
		return 1
	}
	return 0
}

func (e *fakeEffect) GetParameter(index int32) float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params[index]
}

func (e *fakeEffect) SetParameter(index int32, value float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params[index] = value
}

func (e *fakeEffect) ProcessReplacing(inputs, outputs [][]float32, frames int) {
	for j, out := range outputs {
		for i := range frames {
			out[i] = 2 * inputs[j%len(inputs)][i]
		}
	}
}

func (e *fakeEffect) ProcessDoubleReplacing(inputs, outputs [][]float64, frames int) {
	for j, out := range outputs {
		for i := range frames {
			out[i] = 2 * inputs[j%len(inputs)][i]
		}
	}
}

func (e *fakeEffect) Info() abi.PluginInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.info
}

func (e *fakeEffect) GetChunk(preset bool) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]byte(nil), e.chunk...)
}

func (e *fakeEffect) SetChunk(preset bool, chunk []byte) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.received = append([]byte(nil), chunk...)
	return 1
}

func (e *fakeEffect) setHook(h dispatchHook) {
	e.mu.Lock()
	e.hook = h
	e.mu.Unlock()
}

func (e *fakeEffect) setInfo(info abi.PluginInfo) {
	e.mu.Lock()
	e.info = info
	e.mu.Unlock()
}

func (e *fakeEffect) called(op abi.Opcode) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.calls {
		if c == op {
			return true
		}
	}
	return false
}

func (e *fakeEffect) hostRef() abi.Host {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.host
}

// loaderFor returns a loader instantiating e.
func loaderFor(e abi.Effect) Loader {
	return LoaderFunc(func(path string) (EntryPoint, error) {
		return func(host abi.Host) (abi.Effect, error) {
			if f, ok := e.(*fakeEffect); ok {
				f.mu.Lock()
				f.host = host
				f.mu.Unlock()
			}
			return e, nil
		}, nil
	})
}

// recordingHost answers host callbacks the way a small host would.
type recordingHost struct {
	mu     sync.Mutex
	ops    []abi.HostOpcode
	events []byte
	fn     func(op abi.HostOpcode) (int64, bool)
}

func (h *recordingHost) Callback(op abi.HostOpcode, index int32, value int64, data []byte, opt float32) int64 {
	h.mu.Lock()
	h.ops = append(h.ops, op)
	fn := h.fn
	h.mu.Unlock()
	if fn != nil {
		if result, ok := fn(op); ok {
			return result
		}
	}

	switch op {
	case abi.HostVersion:
		return 2400
	case abi.HostGetVendorString:
		copy(data, "Test Host")
		return 1
	case abi.HostGetTime:
		for i := range data {
			data[i] = 0xAB
		}
		return 1
	case abi.HostCanDo:
		if string(data) == "sendVstEvents" {
			return 1
		}
	case abi.HostProcessEvents:
		h.mu.Lock()
		h.events = append([]byte(nil), data...)
		h.mu.Unlock()
		return 1
	}
	return 0
}

func (h *recordingHost) setFunc(fn func(op abi.HostOpcode) (int64, bool)) {
	h.mu.Lock()
	h.fn = fn
	h.mu.Unlock()
}

func (h *recordingHost) saw(op abi.HostOpcode) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, o := range h.ops {
		if o == op {
			return true
		}
	}
	return false
}

// inProcessLauncher runs the worker on goroutines of the test process. Two
// attachments from one process count as two peers.
type inProcessLauncher struct {
	opts     WorkerOptions
	attached chan error

	mu   sync.Mutex
	proc *inProcess
}

func newInProcessLauncher(opts WorkerOptions) *inProcessLauncher {
	return &inProcessLauncher{opts: opts, attached: make(chan error, 1)}
}

func (l *inProcessLauncher) Launch(_ context.Context, req LaunchRequest) (Process, error) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &inProcess{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(p.done)
		w := NewWorker(l.opts)
		err := w.Attach(ctx, req.PluginPath, req.PortID)
		l.attached <- err
		if err != nil {
			p.err = err
			return
		}
		p.err = w.Serve(ctx)
		w.Close()
	}()

	l.mu.Lock()
	l.proc = p
	l.mu.Unlock()
	return p, nil
}

func (l *inProcessLauncher) process() *inProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.proc
}

type inProcess struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func (p *inProcess) PID() int    { return os.Getpid() }
func (p *inProcess) Kill() error { p.cancel(); return nil }

func (p *inProcess) Wait() error {
	<-p.done
	return p.err
}

func (p *inProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// stuckLauncher starts processes that never attach. They exit when killed,
// or right away when exitAtOnce is set.
type stuckLauncher struct {
	exitAtOnce bool
	killed     chan struct{}
}

func (l *stuckLauncher) Launch(context.Context, LaunchRequest) (Process, error) {
	p := &stuckProcess{done: make(chan struct{}), killed: l.killed}
	if l.exitAtOnce {
		close(p.done)
	}
	return p, nil
}

type stuckProcess struct {
	once   sync.Once
	done   chan struct{}
	killed chan struct{}
}

func (p *stuckProcess) PID() int    { return 0 }
func (p *stuckProcess) Wait() error { <-p.done; return nil }

func (p *stuckProcess) Kill() error {
	p.once.Do(func() {
		select {
		case <-p.done:
		default:
			close(p.done)
		}
		if p.killed != nil {
			close(p.killed)
		}
	})
	return nil
}

type session struct {
	remote   *Remote
	effect   *fakeEffect
	host     *recordingHost
	launcher *inProcessLauncher
}

// testOptions returns caller and worker options with short poll periods.
func testOptions(e abi.Effect, host abi.Host) (Options, WorkerOptions) {
	wopts := WorkerOptions{
		Loader:            loaderFor(e),
		HandshakeTimeout:  2 * time.Second,
		PollInterval:      5 * time.Millisecond,
		AudioPollInterval: 5 * time.Millisecond,
	}
	opts := Options{
		PluginPath:       "/plugins/fake.so",
		Host:             host,
		HandshakeTimeout: 2 * time.Second,
		PollInterval:     5 * time.Millisecond,
		ShutdownTimeout:  2 * time.Second,
	}
	return opts, wopts
}

// openSession opens a session with an in-process worker hosting e. The test
// goroutine is locked to its thread and becomes the session owner.
func openSession(t *testing.T, e *fakeEffect, configure func(*Options, *WorkerOptions)) *session {
	t.Helper()
	requireSharedMemory(t)

	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)

	host := &recordingHost{}
	opts, wopts := testOptions(e, host)
	if configure != nil {
		configure(&opts, &wopts)
	}
	l := newInProcessLauncher(wopts)
	opts.Launcher = l

	r, err := Open(context.Background(), opts)
	if err != nil {
		t.Fatalf("Failed to open session: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return &session{remote: r, effect: e, host: host, launcher: l}
}

func requireSharedMemory(t *testing.T) {
	t.Helper()
	var p port.Port
	if err := p.Create(protocol.HeaderSize); err != nil {
		t.Skipf("shared memory unavailable: %v", err)
	}
	p.Disconnect()
}

// onThread runs fn on a fresh locked OS thread and waits for it.
func onThread(fn func()) {
	done := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(done)
		fn()
	}()
	<-done
}

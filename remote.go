package vstbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"golang.org/x/sync/errgroup"

	"gosuda.org/vstbridge/abi"
	"gosuda.org/vstbridge/internal/port"
	"gosuda.org/vstbridge/internal/protocol"
	"gosuda.org/vstbridge/internal/shm"
)

// Remote is the caller side of a session. It implements abi.Effect and
// abi.Chunker by forwarding every call to the worker process.
//
// Calls made on the thread that called Open travel on the control port;
// calls made on other threads travel on the audio port once a block size has
// been set. Entry points never return errors: a failed call is logged and
// answers with a zero value, and a transport failure ends the session.
//
// A host callback runs on the callback thread, which routes like any other
// thread to the audio channel. Calling back into Remote from a callback
// therefore never returns if no audio port exists yet or the audio channel
// is the one waiting.
type Remote struct {
	opts  Options
	log   *slog.Logger
	owner int // OS thread that opened the session

	control  port.Port
	callback port.Port
	audio    port.Port

	controlMu reentrantMutex // Control port and state changed by control calls
	audioMu   reentrantMutex // Audio port

	proc    Process
	exited  chan struct{}
	exitErr error

	state     atomix.Uint32
	calls     atomix.Uint32
	callbacks atomix.Uint32
	failures  atomix.Uint32

	infoMu  sync.Mutex
	info    abi.PluginInfo
	version ProtocolVersion

	blockSize int // Guarded by controlMu

	cancel    context.CancelFunc
	g         errgroup.Group
	cbDone    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Stats counts the traffic of a session
type Stats struct {
	Calls     uint32 // Request/response round trips issued by the caller
	Callbacks uint32 // Host callbacks served
	Failures  uint32 // Transport failures
}

var (
	_ abi.Effect  = (*Remote)(nil)
	_ abi.Chunker = (*Remote)(nil)
)

// Open creates the control and callback ports, launches the worker and
// performs the handshake. The calling OS thread becomes the session owner.
// Every failure matches ErrSetup, and all partially created resources are
// released before Open returns.
func Open(ctx context.Context, opts Options) (*Remote, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	opts = opts.withDefaults()
	r := &Remote{
		opts:   opts,
		log:    opts.Logger,
		owner:  threadID(),
		exited: make(chan struct{}),
		cbDone: make(chan struct{}),
	}
	r.state.Store(uint32(ProtocolStateNone))
	r.log.Debug("Opening session", "owner", r.owner)

	if err := r.control.Create(opts.ControlFrameSize); err != nil {
		r.log.Error("Unable to create control port", "err", err)
		return nil, setupError("create control port", err)
	}
	if err := r.callback.Create(opts.CallbackFrameSize); err != nil {
		r.log.Error("Unable to create callback port", "err", err)
		r.control.Disconnect()
		return nil, setupError("create callback port", err)
	}

	proc, err := opts.Launcher.Launch(ctx, LaunchRequest{
		WorkerPath: opts.WorkerPath,
		PluginPath: opts.PluginPath,
		PortID:     r.control.ID(),
		LogLevel:   opts.LogLevel,
		LogPath:    opts.LogPath,
		Env:        opts.Env,
	})
	if err != nil {
		r.log.Error("Unable to start worker", "err", err)
		r.control.Disconnect()
		r.callback.Disconnect()
		return nil, setupError("launch worker", err)
	}
	r.proc = proc
	r.log.Debug("Worker started", "pid", proc.PID())

	loopCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.g.Go(r.watchWorker)
	r.g.Go(func() error { return r.serveCallbacks(loopCtx) })

	r.state.Store(uint32(ProtocolStateNegotiating))
	if err := r.handshake(ctx); err != nil {
		r.log.Error("Worker is not responding", "err", err)
		r.state.Store(uint32(ProtocolStateFailed))
		r.teardown(true)
		return nil, setupError("handshake", err)
	}
	r.state.Store(uint32(ProtocolStateNegotiated))

	info := r.Info()
	r.log.Debug("Plugin summary",
		"flags", fmt.Sprintf("0x%08X", info.Flags),
		"programs", info.ProgramCount,
		"params", info.ParamCount,
		"inputs", info.InputCount,
		"outputs", info.OutputCount,
		"uniqueID", fmt.Sprintf("0x%08X", info.UniqueID),
		"version", info.Version)
	return r, nil
}

// handshake sends HostInfo and waits for the worker's PluginInfo.
func (r *Remote) handshake(ctx context.Context) error {
	ctx, cancel := context.WithTimeoutCause(ctx, r.opts.HandshakeTimeout, ErrHandshakeTimeout)
	defer cancel()
	ctx, abort := context.WithCancelCause(ctx)
	defer abort(nil)
	go func() {
		select {
		case <-r.exited:
			abort(ErrWorkerExited)
		case <-ctx.Done():
		}
	}()

	r.log.Info("Waiting for worker to attach")
	if err := r.control.WaitPeer(ctx); err != nil {
		return err
	}

	f := r.control.Frame()
	f.Set(protocol.CmdHostInfo, int32(r.callback.ID()), 0, r.opts.Version.Encode(), 0)
	if err := r.control.SendRequest(); err != nil {
		return err
	}

	r.log.Info("Waiting for response from worker")
	for {
		err := r.control.WaitResponse(r.opts.PollInterval)
		if err == nil {
			break
		}
		if !errors.Is(err, shm.ErrTimeout) {
			return err
		}
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
	}

	// Only the version is trusted until it matches.
	if f.Command() != protocol.CmdPluginInfo {
		return fmt.Errorf("%w: %v during handshake", ErrUnexpectedCommand, f.Command())
	}
	v := DecodeVersion(f.Value())
	if v != r.opts.Version {
		return fmt.Errorf("%w: worker speaks %d.%d, caller %d.%d", ErrVersionMismatch,
			v.Major, v.Minor, r.opts.Version.Major, r.opts.Version.Minor)
	}

	info, err := protocol.ReadPluginInfo(f.Data())
	if err != nil {
		return err
	}
	r.setInfo(info)
	r.version = v
	return nil
}

func (r *Remote) watchWorker() error {
	r.exitErr = r.proc.Wait()
	close(r.exited)
	if r.State() == ProtocolStateNegotiated {
		r.log.Error("Worker exited unexpectedly", "pid", r.proc.PID(), "err", r.exitErr)
	}
	return nil
}

// Close stops the callback loop, detaches every port and waits for the
// worker to exit, killing it after the shutdown timeout.
func (r *Remote) Close() error {
	r.closeOnce.Do(func() {
		r.state.Store(uint32(ProtocolStateClosed))
		r.log.Info("Closing session")
		r.closeErr = r.teardown(false)
		r.log.Info("Session terminated")
	})
	return r.closeErr
}

func (r *Remote) teardown(kill bool) error {
	r.cancel()
	if kill {
		r.proc.Kill()
	}

	r.log.Debug("Waiting for callback loop termination")
	<-r.cbDone

	r.controlMu.Lock()
	r.audioMu.Lock()
	r.control.Disconnect()
	r.callback.Disconnect()
	r.audio.Disconnect()
	r.audioMu.Unlock()
	r.controlMu.Unlock()

	if !kill {
		r.log.Debug("Waiting for worker termination", "pid", r.proc.PID())
		select {
		case <-r.exited:
		case <-time.After(r.opts.ShutdownTimeout):
			r.log.Error("Worker did not exit, killing it", "pid", r.proc.PID())
			r.proc.Kill()
		}
	}
	return r.g.Wait()
}

// roundTrip posts the request already composed in p's frame and waits for
// the response, watching for a dead worker between polls.
func (r *Remote) roundTrip(p *port.Port) error {
	if !r.usable() {
		return ErrSessionClosed
	}
	r.calls.Add(1)

	if err := p.SendRequest(); err != nil {
		r.fail(err)
		return err
	}
	for {
		err := p.WaitResponse(r.opts.PollInterval)
		if err == nil {
			return nil
		}
		if !errors.Is(err, shm.ErrTimeout) {
			r.fail(err)
			return err
		}

		select {
		case <-r.exited:
			r.fail(ErrWorkerExited)
			return ErrWorkerExited
		default:
		}
		if !p.IsConnected() {
			r.fail(ErrPeerGone)
			return ErrPeerGone
		}
	}
}

// acquire locks the channel for route and returns its port. The audio route
// falls back to the control port until an audio port exists.
func (r *Remote) acquire(route Route) (*port.Port, func()) {
	if route == RouteAudio {
		r.audioMu.Lock()
		if !r.audio.IsNull() {
			return &r.audio, r.audioMu.Unlock
		}
		r.audioMu.Unlock()
	}
	r.controlMu.Lock()
	return &r.control, r.controlMu.Unlock
}

func (r *Remote) route() Route {
	return routeFor(threadID(), r.owner)
}

func (r *Remote) usable() bool {
	return ProtocolState(r.state.Load()) == ProtocolStateNegotiated
}

// fail marks an established session as broken. Later calls answer with
// their defaults.
func (r *Remote) fail(err error) {
	r.failures.Add(1)
	if r.state.CompareAndSwap(uint32(ProtocolStateNegotiated), uint32(ProtocolStateFailed)) {
		r.log.Error("Transport failure, session terminated", "err", err)
	}
}

func (r *Remote) setInfo(info abi.PluginInfo) {
	r.infoMu.Lock()
	r.info = info
	r.infoMu.Unlock()
}

// Info returns the plugin description reported by the worker
func (r *Remote) Info() abi.PluginInfo {
	r.infoMu.Lock()
	defer r.infoMu.Unlock()
	return r.info
}

// State returns the session state
func (r *Remote) State() ProtocolState {
	return ProtocolState(r.state.Load())
}

// PID returns the worker's process id
func (r *Remote) PID() int {
	return r.proc.PID()
}

// Version returns the negotiated protocol version
func (r *Remote) Version() ProtocolVersion {
	return r.version
}

// BlockSize returns the last block size the worker accepted
func (r *Remote) BlockSize() int {
	r.controlMu.Lock()
	defer r.controlMu.Unlock()
	return r.blockSize
}

// Stats returns the session's traffic counters
func (r *Remote) Stats() Stats {
	return Stats{
		Calls:     r.calls.Load(),
		Callbacks: r.callbacks.Load(),
		Failures:  r.failures.Load(),
	}
}

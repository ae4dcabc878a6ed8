package vstbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gosuda.org/vstbridge/abi"
	"gosuda.org/vstbridge/internal/chunk"
	"gosuda.org/vstbridge/internal/port"
	"gosuda.org/vstbridge/internal/protocol"
	"gosuda.org/vstbridge/internal/rtlog"
	"gosuda.org/vstbridge/internal/shm"
)

// Worker is the plugin side of a session. It owns the plugin instance and
// serves the caller's requests: control requests on the goroutine running
// Serve, audio requests on a goroutine of its own.
type Worker struct {
	opts WorkerOptions
	log  *slog.Logger

	effect abi.Effect

	control  port.Port
	callback port.Port // Guarded by hostMu
	audio    port.Port

	hostMu  sync.Mutex
	chunkMu sync.Mutex
	infoMu  sync.Mutex
	info    abi.PluginInfo

	chunkOut *chunk.Splitter  // Outgoing chunk, guarded by chunkMu
	chunkIn  *chunk.Assembler // Incoming chunk, guarded by chunkMu

	// Editor state, touched on the control goroutine only
	editorOpen bool
	window     uintptr

	rt          *rtlog.Handler
	audioLog    *slog.Logger
	audioCancel context.CancelFunc
	audioDone   chan struct{}
	ch32        channels[float32]
	ch64        channels[float64]
}

// NewWorker returns a worker that has not attached to a session yet.
func NewWorker(opts WorkerOptions) *Worker {
	opts = opts.withDefaults()
	rt := rtlog.New(opts.Logger.Handler(), opts.LogQueueSize)
	return &Worker{
		opts:     opts,
		log:      opts.Logger,
		rt:       rt,
		audioLog: slog.New(rt).With("thread", "audio"),
	}
}

// Attach loads the plugin, connects to the caller's control port and answers
// the handshake. The plugin is instantiated only once the versions match.
func (w *Worker) Attach(ctx context.Context, pluginPath string, controlID int) error {
	w.log.Info("Loading plugin", "path", pluginPath)
	entry, err := w.opts.Loader.Load(pluginPath)
	if err != nil {
		w.log.Error("Unable to load plugin", "err", err)
		return err
	}

	if err := w.control.Connect(controlID); err != nil {
		w.log.Error("Unable to connect control port", "id", controlID, "err", err)
		return err
	}

	w.log.Info("Waiting for caller request")
	if err := w.waitHandshake(ctx); err != nil {
		w.log.Error("Caller did not send a request", "err", err)
		w.control.Disconnect()
		return err
	}

	f := w.control.Frame()
	if cmd := f.Command(); cmd != protocol.CmdHostInfo {
		w.reject()
		return fmt.Errorf("%w: %v instead of %v", ErrUnexpectedCommand, cmd, protocol.CmdHostInfo)
	}

	v := DecodeVersion(f.Value())
	if v != w.opts.Version {
		w.log.Error("Protocol version mismatch", "caller", v, "worker", w.opts.Version)
		f.Set(protocol.CmdPluginInfo, 0, 0, w.opts.Version.Encode(), 0)
		w.control.SendResponse()
		w.control.Disconnect()
		return fmt.Errorf("%w: caller speaks %d.%d, worker %d.%d", ErrVersionMismatch,
			v.Major, v.Minor, w.opts.Version.Major, w.opts.Version.Minor)
	}

	callbackID := int(f.Opcode())
	if err := w.callback.Connect(callbackID); err != nil {
		w.log.Error("Unable to connect callback port", "id", callbackID, "err", err)
		w.reject()
		return err
	}

	w.log.Info("Initializing plugin")
	effect, err := entry(abi.HostFunc(w.hostCallback))
	if err == nil && effect == nil {
		err = errors.New("entry point returned no effect")
	}
	if err != nil {
		w.log.Error("Unable to initialize plugin", "err", err)
		w.reject()
		w.hostMu.Lock()
		w.callback.Disconnect()
		w.hostMu.Unlock()
		return fmt.Errorf("%w: %w", ErrPluginInit, err)
	}
	w.effect = effect
	info := effect.Info()
	w.setInfo(info)

	f.Set(protocol.CmdPluginInfo, 0, 0, w.opts.Version.Encode(), 0)
	if err := protocol.PutPluginInfo(f.Data(), info); err != nil {
		return err
	}
	w.log.Debug("Plugin initialized", "inputs", info.InputCount, "outputs", info.OutputCount,
		"params", info.ParamCount, "programs", info.ProgramCount)
	return w.control.SendResponse()
}

// waitHandshake waits for the caller's first request.
func (w *Worker) waitHandshake(ctx context.Context) error {
	deadline := time.Now().Add(w.opts.HandshakeTimeout)
	for {
		err := w.control.WaitRequest(w.opts.PollInterval)
		if !errors.Is(err, shm.ErrTimeout) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return ErrHandshakeTimeout
		}
	}
}

// reject answers the pending handshake request with a bare response and
// detaches from the control port.
func (w *Worker) reject() {
	w.control.Frame().SetCommand(protocol.CmdResponse)
	w.control.SendResponse()
	w.control.Disconnect()
}

// Serve answers control requests until the caller detaches, the plugin is
// closed or ctx is done. It runs on a locked OS thread, which is the thread
// the plugin sees as its main thread.
func (w *Worker) Serve(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	drainCtx, stopDrain := context.WithCancel(context.Background())
	var g errgroup.Group
	g.Go(func() error { return w.rt.Drain(drainCtx) })

	w.log.Info("Worker is serving")
	err := w.serveControl(ctx)

	w.stopAudio()
	stopDrain()
	if derr := g.Wait(); err == nil {
		err = derr
	}
	if n := w.rt.Dropped(); n > 0 {
		w.log.Error("Audio thread log records dropped", "count", n)
	}
	return err
}

func (w *Worker) serveControl(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			w.log.Info("Worker interrupted")
			return nil
		}
		if !w.control.IsConnected() {
			w.log.Info("Control port isn't connected anymore, exiting")
			return nil
		}

		err := w.control.WaitRequest(w.opts.PollInterval)
		if errors.Is(err, shm.ErrTimeout) {
			continue
		}
		if err != nil {
			return fmt.Errorf("control port: %w", err)
		}

		f := w.control.Frame()
		keep := true
		switch cmd := f.Command(); cmd {
		case protocol.CmdDispatch:
			keep = w.handleDispatch(f, false)
		case protocol.CmdGetParameter:
			f.SetOpt(w.effect.GetParameter(f.Index()))
		case protocol.CmdSetParameter:
			w.effect.SetParameter(f.Index(), f.Opt())
		case protocol.CmdGetDataBlock:
			w.handleGetDataBlock(f, w.log)
		case protocol.CmdSetDataBlock:
			w.handleSetDataBlock(f, w.log)
		case protocol.CmdShowWindow:
			w.showWindow()
		default:
			w.log.Error("Unacceptable command on control port", "command", cmd)
		}

		f.SetCommand(protocol.CmdResponse)
		if err := w.control.SendResponse(); err != nil {
			return fmt.Errorf("control port: %w", err)
		}
		if !keep {
			w.log.Info("Plugin closed")
			return nil
		}
	}
}

func (w *Worker) startAudio() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.audioCancel, w.audioDone = cancel, done
	go w.serveAudio(ctx, done)
}

func (w *Worker) stopAudio() {
	if w.audioCancel == nil {
		return
	}
	w.audioCancel()
	<-w.audioDone
	w.audioCancel, w.audioDone = nil, nil
}

// serveAudio answers requests on the audio port. It logs only through the
// real-time handler.
func (w *Worker) serveAudio(ctx context.Context, done chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)

	log := w.audioLog
	log.Info("Audio thread started")
	defer log.Info("Audio thread terminated")

	for ctx.Err() == nil {
		err := w.audio.WaitRequest(w.opts.AudioPollInterval)
		if errors.Is(err, shm.ErrTimeout) {
			continue
		}
		if err != nil {
			log.Error("Audio port failed", "err", err)
			return
		}

		f := w.audio.Frame()
		switch cmd := f.Command(); cmd {
		case protocol.CmdProcessSingle:
			serveProcess(w, f, &w.ch32, w.effect.ProcessReplacing)
		case protocol.CmdProcessDouble:
			serveProcess(w, f, &w.ch64, w.effect.ProcessDoubleReplacing)
		case protocol.CmdGetParameter:
			f.SetOpt(w.effect.GetParameter(f.Index()))
		case protocol.CmdSetParameter:
			w.effect.SetParameter(f.Index(), f.Opt())
		case protocol.CmdDispatch:
			w.handleDispatch(f, true)
		case protocol.CmdGetDataBlock:
			w.handleGetDataBlock(f, log)
		case protocol.CmdSetDataBlock:
			w.handleSetDataBlock(f, log)
		default:
			log.Error("Unacceptable command on audio port", "command", cmd)
		}

		f.SetCommand(protocol.CmdResponse)
		if err := w.audio.SendResponse(); err != nil {
			log.Error("Audio port failed", "err", err)
			return
		}
	}
}

// serveProcess runs one processing request. The frame value holds the
// number of frames; inputs precede outputs in the payload.
func serveProcess[T sample](w *Worker, f protocol.Frame, ch *channels[T], process func(inputs, outputs [][]T, frames int)) {
	n := int(f.Value())
	info := w.Info()
	ins, outs := int(info.InputCount), int(info.OutputCount)
	if n < 0 {
		w.audioLog.Error("Invalid frame count", "frames", n)
		return
	}

	samples, err := samplesOf[T](f, n*(ins+outs))
	if err != nil {
		w.audioLog.Error("Audio request does not fit the port", "frames", n, "err", err)
		return
	}
	ch.bind(samples, ins, outs, n)
	process(ch.inputs, ch.outputs, n)
}

func (w *Worker) setInfo(info abi.PluginInfo) {
	w.infoMu.Lock()
	w.info = info
	w.infoMu.Unlock()
}

// Info returns the plugin description last reported to the caller
func (w *Worker) Info() abi.PluginInfo {
	w.infoMu.Lock()
	defer w.infoMu.Unlock()
	return w.info
}

// Close stops the audio goroutine, closes an open editor and detaches from
// every port. It must not run concurrently with Serve.
func (w *Worker) Close() error {
	w.stopAudio()
	if w.editorOpen && w.effect != nil {
		w.effect.Dispatch(abi.EffEditClose, 0, 0, nil, 0)
		w.destroyWindow()
	}

	w.hostMu.Lock()
	cerr := w.callback.Disconnect()
	w.hostMu.Unlock()
	return errors.Join(w.audio.Disconnect(), cerr, w.control.Disconnect())
}

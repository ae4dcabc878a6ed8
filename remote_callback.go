package vstbridge

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"gosuda.org/vstbridge/abi"
	"gosuda.org/vstbridge/internal/protocol"
	"gosuda.org/vstbridge/internal/shm"
)

// serveCallbacks answers the worker's host callbacks until ctx is done.
func (r *Remote) serveCallbacks(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(r.cbDone)

	r.log.Info("Callback loop started")
	defer r.log.Info("Callback loop terminated")

	for ctx.Err() == nil {
		err := r.callback.WaitRequest(r.opts.PollInterval)
		if errors.Is(err, shm.ErrTimeout) {
			continue
		}
		if err != nil {
			r.fail(err)
			return fmt.Errorf("callback port: %w", err)
		}

		r.callbacks.Add(1)
		f := r.callback.Frame()
		if f.Command() != protocol.CmdAudioMaster {
			r.log.Error("Unexpected command on callback port", "command", f.Command())
			f.SetValue(0)
		} else {
			f.SetValue(r.handleHostCallback(f))
		}
		f.SetCommand(protocol.CmdResponse)
		if err := r.callback.SendResponse(); err != nil {
			r.fail(err)
			return fmt.Errorf("callback port: %w", err)
		}
	}
	return nil
}

func (r *Remote) handleHostCallback(f protocol.Frame) int64 {
	op := abi.HostOpcode(f.Opcode())
	index, value, opt := f.Index(), f.Value(), f.Opt()
	t := protocol.HostTraits(op)
	if !t.Quiet {
		flood(r.log, "Host callback", "opcode", op, "index", index, "value", value, "opt", opt)
	}

	buf := f.Data()
	limit := t.Limit(len(buf))
	switch t.Kind {
	case protocol.KindValue, protocol.KindLocal:
		return r.callHost(op, index, value, nil, opt)
	case protocol.KindStringIn:
		return r.callHost(op, index, value, protocol.CString(buf[:limit]), opt)
	case protocol.KindStringOut, protocol.KindStructOut:
		clear(buf[:limit])
		return r.callHost(op, index, value, buf[:limit], opt)
	case protocol.KindEvents:
		size := int(index) * abi.EventSize
		if index < 0 || size > len(buf) {
			r.log.Error("Invalid event list from worker", "count", index)
			return 0
		}
		return r.callHost(op, index, value, buf[:size], opt)
	case protocol.KindSpecial:
		if op == abi.HostIOChanged {
			info, err := protocol.ReadPluginInfo(buf)
			if err != nil {
				r.log.Error("Invalid plugin info from worker", "err", err)
				return 0
			}
			r.setInfo(info)
			r.log.Debug("Plugin IO changed", "inputs", info.InputCount, "outputs", info.OutputCount,
				"initialDelay", info.InitialDelay)
			return r.callHost(op, index, value, nil, opt)
		}
	}

	r.log.Error("Unhandled host callback", "opcode", op)
	return 0
}

func (r *Remote) callHost(op abi.HostOpcode, index int32, value int64, data []byte, opt float32) int64 {
	if r.opts.Host == nil {
		return 0
	}
	return r.opts.Host.Callback(op, index, value, data, opt)
}

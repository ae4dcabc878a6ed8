package vstbridge

import (
	"errors"

	"gosuda.org/vstbridge/abi"
	"gosuda.org/vstbridge/internal/port"
	"gosuda.org/vstbridge/internal/protocol"
	"gosuda.org/vstbridge/internal/shm"
)

// hostCallback is the host function handed to the plugin. It forwards the
// call over the callback port; callbacks from different threads are
// serialized.
func (w *Worker) hostCallback(op abi.HostOpcode, index int32, value int64, data []byte, opt float32) int64 {
	t := protocol.HostTraits(op)
	if !t.Quiet {
		flood(w.log, "Host callback", "opcode", op, "index", index, "value", value, "opt", opt)
	}
	if t.Kind == protocol.KindLocal {
		return 1
	}
	if t.Kind == protocol.KindUnhandled {
		w.log.Error("Unhandled host callback", "opcode", op)
		return 0
	}

	if op == abi.HostIOChanged && w.effect != nil {
		w.setInfo(w.effect.Info())
	}

	w.hostMu.Lock()
	defer w.hostMu.Unlock()
	p := &w.callback
	if p.IsNull() {
		return 0
	}

	f := p.Frame()
	f.Set(protocol.CmdAudioMaster, int32(op), index, value, opt)
	buf := f.Data()
	limit := t.Limit(len(buf))
	switch t.Kind {
	case protocol.KindStringIn:
		protocol.PutCString(buf, data, limit)
	case protocol.KindStringOut, protocol.KindStructOut:
		clear(buf[:limit])
	case protocol.KindEvents:
		size := int(index) * abi.EventSize
		if index < 0 || size > len(data) || size > len(buf) {
			w.log.Error("Event list does not fit the callback port", "count", index)
			return 0
		}
		copy(buf, data[:size])
	case protocol.KindSpecial:
		if err := protocol.PutPluginInfo(buf, w.Info()); err != nil {
			w.log.Error("Unable to send plugin info", "err", err)
			return 0
		}
	}

	if err := w.roundTrip(p); err != nil {
		w.log.Error("Host callback failed", "opcode", op, "err", err)
		return 0
	}

	result := f.Value()
	switch t.Kind {
	case protocol.KindStringOut:
		protocol.PutCString(data, buf, limit)
	case protocol.KindStructOut:
		if result != 0 {
			copy(data, buf[:limit])
		}
	}
	return result
}

// roundTrip posts the request in p's frame and waits for the caller's
// response while the caller stays attached.
func (w *Worker) roundTrip(p *port.Port) error {
	if err := p.SendRequest(); err != nil {
		return err
	}
	for {
		err := p.WaitResponse(w.opts.PollInterval)
		if err == nil {
			return nil
		}
		if !errors.Is(err, shm.ErrTimeout) {
			return err
		}
		if !p.IsConnected() {
			return ErrPeerGone
		}
	}
}

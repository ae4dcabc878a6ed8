package vstbridge

import (
	"runtime"

	"gosuda.org/vstbridge/abi"
	"gosuda.org/vstbridge/internal/port"
	"gosuda.org/vstbridge/internal/protocol"
)

// Dispatch forwards one dispatcher call to the plugin and returns its result.
// data follows the buffer conventions of package abi.
func (r *Remote) Dispatch(op abi.Opcode, index int32, value int64, data []byte, opt float32) int64 {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	t := protocol.EffectTraits(op)
	if !t.Quiet {
		flood(r.log, "Dispatch", "opcode", op, "index", index, "value", value, "opt", opt)
	}
	if t.Kind == protocol.KindLocal {
		return 1
	}
	if !r.usable() {
		return 0
	}

	route := r.route()
	switch op {
	case abi.EffClose, abi.EffSetBlockSize, abi.EffEditOpen, abi.EffEditClose:
		route = RouteControl
	}
	p, unlock := r.acquire(route)
	defer unlock()

	f := p.Frame()
	f.Set(protocol.CmdDispatch, int32(op), index, value, opt)

	switch op {
	case abi.EffClose:
		r.roundTrip(p)
		r.Close()
		return 1
	case abi.EffSetBlockSize:
		return r.setBlockSize(p, value, opt)
	case abi.EffEditOpen:
		return r.editOpen(p, value)
	case abi.EffEditGetRect:
		return r.editGetRect(p, data)
	case abi.EffGetChunk:
		b := r.getChunk(p, index != 0)
		copy(data, b)
		return int64(len(b))
	case abi.EffSetChunk:
		if value >= 0 && int(value) < len(data) {
			data = data[:value]
		}
		return r.setChunk(p, index != 0, data)
	}

	buf := f.Data()
	limit := t.Limit(len(buf))
	switch t.Kind {
	case protocol.KindValue:
	case protocol.KindStringIn:
		protocol.PutCString(buf, data, limit)
	case protocol.KindStructIn, protocol.KindStructInOut:
		clear(buf[:limit])
		copy(buf[:limit], data)
	case protocol.KindStringOut, protocol.KindStructOut:
		clear(buf[:limit])
	case protocol.KindEvents:
		size := int(index) * abi.EventSize
		if index < 0 || size > len(data) || size > len(buf) {
			r.log.Error("Event list does not fit the port", "count", index, "capacity", len(buf))
			return 0
		}
		copy(buf, data[:size])
	default:
		r.log.Error("Unhandled dispatch opcode", "opcode", op)
		return 0
	}

	if err := r.roundTrip(p); err != nil {
		return 0
	}

	switch t.Kind {
	case protocol.KindStringOut:
		protocol.PutCString(data, buf, limit)
	case protocol.KindStructOut, protocol.KindStructInOut:
		copy(data, buf[:limit])
	}
	return f.Value()
}

// setBlockSize replaces the audio port with one sized for frames samples on
// every channel, and no smaller than MinAudioFrameSize, then tells the worker
// to connect to it.
func (r *Remote) setBlockSize(ctl *port.Port, value int64, opt float32) int64 {
	r.audioMu.Lock()
	defer r.audioMu.Unlock()

	frames := max(int(value), 0)
	info := r.Info()
	size := max(protocol.HeaderSize+8*frames*int(info.InputCount+info.OutputCount), MinAudioFrameSize)

	r.log.Debug("Setting block size", "frames", frames, "portSize", size)
	r.audio.Disconnect()
	if err := r.audio.Create(size); err != nil {
		r.log.Error("Unable to create audio port", "err", err)
		return 0
	}

	f := ctl.Frame()
	f.Set(protocol.CmdDispatch, int32(abi.EffSetBlockSize), int32(r.audio.ID()), value, opt)
	if err := r.roundTrip(ctl); err != nil {
		return 0
	}
	r.blockSize = frames
	return f.Value()
}

func (r *Remote) editOpen(p *port.Port, parent int64) int64 {
	f := p.Frame()
	if err := r.roundTrip(p); err != nil {
		return 0
	}
	child := f.Value()
	if child == 0 {
		r.log.Error("Plugin did not open its editor")
		return 0
	}
	rect, ok := readRect(f.Data())
	if !ok {
		r.log.Error("Editor rectangle does not fit the port", "capacity", p.Capacity())
		return 0
	}
	r.log.Debug("Editor window", "width", rect.Width(), "height", rect.Height())

	if r.opts.Embedder != nil {
		if err := r.opts.Embedder.Embed(uintptr(parent), uintptr(child), rect); err != nil {
			r.log.Error("Unable to embed editor window", "err", err)
		}
	}

	f.SetCommand(protocol.CmdShowWindow)
	if err := r.roundTrip(p); err != nil {
		return 0
	}
	return f.Value()
}

func (r *Remote) editGetRect(p *port.Port, data []byte) int64 {
	f := p.Frame()
	if err := r.roundTrip(p); err != nil {
		return 0
	}
	rect, ok := readRect(f.Data())
	if !ok {
		r.log.Error("Editor rectangle does not fit the port", "capacity", p.Capacity())
		return 0
	}
	if len(data) >= abi.RectSize {
		abi.PutRect(data, rect)
	}
	return f.Value()
}

func readRect(b []byte) (abi.Rect, bool) {
	if len(b) < abi.RectSize {
		return abi.Rect{}, false
	}
	return abi.ReadRect(b), true
}

// GetParameter reads parameter index on the thread's channel.
func (r *Remote) GetParameter(index int32) float32 {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !r.usable() {
		return 0
	}
	p, unlock := r.acquire(r.route())
	defer unlock()

	f := p.Frame()
	f.Set(protocol.CmdGetParameter, 0, index, 0, 0)
	if err := r.roundTrip(p); err != nil {
		return 0
	}
	return f.Opt()
}

// SetParameter writes parameter index on the thread's channel.
func (r *Remote) SetParameter(index int32, value float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !r.usable() {
		return
	}
	p, unlock := r.acquire(r.route())
	defer unlock()

	p.Frame().Set(protocol.CmdSetParameter, 0, index, 0, value)
	r.roundTrip(p)
}

// ProcessReplacing processes single precision audio on the audio port.
// Outputs are zeroed when the session is broken or no block size was set.
func (r *Remote) ProcessReplacing(inputs, outputs [][]float32, frames int) {
	processRemote(r, protocol.CmdProcessSingle, inputs, outputs, frames)
}

// ProcessDoubleReplacing processes double precision audio on the audio port.
func (r *Remote) ProcessDoubleReplacing(inputs, outputs [][]float64, frames int) {
	processRemote(r, protocol.CmdProcessDouble, inputs, outputs, frames)
}

// processRemote copies inputs into the audio frame, one channel after the
// other, and reads the outputs back from behind them. Requests longer than
// the port holds are split into consecutive sub-blocks.
func processRemote[T sample](r *Remote, cmd protocol.Command, inputs, outputs [][]T, frames int) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if frames <= 0 {
		return
	}
	if !r.usable() {
		silence(outputs, 0, frames)
		return
	}

	r.audioMu.Lock()
	defer r.audioMu.Unlock()
	if r.audio.IsNull() {
		r.log.Error("Processing requested before the block size was set")
		silence(outputs, 0, frames)
		return
	}

	info := r.Info()
	ins, outs := int(info.InputCount), int(info.OutputCount)
	step := frames
	if ch := ins + outs; ch > 0 {
		step = min(frames, r.audio.Capacity()/(sampleSize[T]()*ch))
	}
	if step <= 0 {
		r.log.Error("Audio port cannot hold a single frame", "channels", ins+outs)
		silence(outputs, 0, frames)
		return
	}

	f := r.audio.Frame()
	for off := 0; off < frames; off += step {
		n := min(step, frames-off)
		samples, err := samplesOf[T](f, n*(ins+outs))
		if err != nil {
			r.log.Error("Invalid audio frame", "err", err)
			silence(outputs, off, frames)
			return
		}
		for i := range ins {
			dst := samples[i*n : (i+1)*n]
			if i < len(inputs) {
				copy(dst, inputs[i][off:off+n])
			} else {
				clear(dst)
			}
		}

		f.Set(cmd, 0, 0, int64(n), 0)
		if err := r.roundTrip(&r.audio); err != nil {
			silence(outputs, off, frames)
			return
		}

		for j := 0; j < outs && j < len(outputs); j++ {
			copy(outputs[j][off:off+n], samples[(ins+j)*n:(ins+j+1)*n])
		}
	}
}

package vstbridge

import (
	"runtime"

	"gosuda.org/vstbridge/abi"
	"gosuda.org/vstbridge/internal/chunk"
	"gosuda.org/vstbridge/internal/port"
	"gosuda.org/vstbridge/internal/protocol"
)

// GetChunk fetches the plugin's state block, which may be larger than the
// port's payload. It returns nil when the plugin has no chunk or the
// transfer broke off.
func (r *Remote) GetChunk(preset bool) []byte {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !r.usable() {
		return nil
	}
	p, unlock := r.acquire(r.route())
	defer unlock()
	return r.getChunk(p, preset)
}

// SetChunk sends a state block to the plugin in as many rounds as needed.
func (r *Remote) SetChunk(preset bool, data []byte) int64 {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !r.usable() {
		return 0
	}
	p, unlock := r.acquire(r.route())
	defer unlock()
	return r.setChunk(p, preset, data)
}

func (r *Remote) getChunk(p *port.Port, preset bool) []byte {
	f := p.Frame()
	capacity := p.Capacity()
	if capacity <= 0 {
		r.log.Error("effGetChunk: port has no payload", "id", p.ID())
		return nil
	}

	f.Set(protocol.CmdDispatch, int32(abi.EffGetChunk), boolIndex(preset), int64(capacity), 0)
	if err := r.roundTrip(p); err != nil {
		return nil
	}

	total, n := f.Value(), int(f.Index())
	r.log.Debug("effGetChunk: chunk size", "bytes", total, "rounds", chunk.Rounds(int(total), capacity))
	if total <= 0 || n <= 0 {
		r.log.Error("effGetChunk is unsupported by the plugin")
		return nil
	}
	if n > capacity || int64(n) > total {
		r.log.Error("effGetChunk: invalid first block", "bytes", n)
		return nil
	}

	a := chunk.NewAssembler(int(total))
	a.Write(f.Data()[:n])
	for !a.Done() {
		f.Set(protocol.CmdGetDataBlock, 0, int32(min(capacity, a.Remaining())), 0, 0)
		if err := r.roundTrip(p); err != nil {
			return nil
		}

		n := int(f.Index())
		if n < 0 || n > capacity {
			r.log.Error("effGetChunk: invalid block", "bytes", n)
			return nil
		}
		if _, err := a.Write(f.Data()[:n]); err != nil {
			r.log.Error("effGetChunk: premature end of data transmission", "missing", a.Remaining(), "err", err)
			return nil
		}
	}
	return a.Bytes()
}

func (r *Remote) setChunk(p *port.Port, preset bool, data []byte) int64 {
	f := p.Frame()
	capacity := p.Capacity()
	total := len(data)
	if capacity <= 0 {
		r.log.Error("effSetChunk: port has no payload", "id", p.ID())
		return 0
	}
	r.log.Debug("effSetChunk: chunk size", "bytes", total, "rounds", chunk.Rounds(total, capacity))

	s := chunk.NewSplitter(data)
	for s.Remaining() > 0 {
		block := s.Next(capacity)
		f.Set(protocol.CmdSetDataBlock, 0, int32(len(block)), int64(total), 0)
		copy(f.Data(), block)
		if err := r.roundTrip(p); err != nil {
			return 0
		}
	}

	f.Set(protocol.CmdDispatch, int32(abi.EffSetChunk), boolIndex(preset), int64(total), 0)
	if err := r.roundTrip(p); err != nil {
		return 0
	}
	return f.Value()
}

func boolIndex(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

package vstbridge

import (
	"log/slog"

	"gosuda.org/vstbridge/abi"
	"gosuda.org/vstbridge/internal/chunk"
	"gosuda.org/vstbridge/internal/protocol"
)

// handleDispatch performs a forwarded dispatcher call and stores the result
// in the frame. It reports false once the plugin has been closed.
func (w *Worker) handleDispatch(f protocol.Frame, audio bool) bool {
	log := w.log
	if audio {
		log = w.audioLog
	}

	op := abi.Opcode(f.Opcode())
	index, value, opt := f.Index(), f.Value(), f.Opt()
	t := protocol.EffectTraits(op)
	if !t.Quiet {
		flood(log, "Dispatch", "opcode", op, "index", index, "value", value, "opt", opt)
	}

	switch op {
	case abi.EffClose, abi.EffSetBlockSize, abi.EffEditOpen:
		if audio {
			log.Error("Opcode is only served on the control port", "opcode", op)
			f.SetValue(0)
			return true
		}
	}

	e := w.effect
	buf := f.Data()
	limit := t.Limit(len(buf))
	switch op {
	case abi.EffClose:
		if w.editorOpen {
			e.Dispatch(abi.EffEditClose, 0, 0, nil, 0)
			w.destroyWindow()
		}
		f.SetValue(e.Dispatch(op, index, value, nil, opt))
		return false
	case abi.EffSetBlockSize:
		f.SetValue(w.setBlockSize(int(index), value, opt))
		return true
	case abi.EffEditOpen:
		f.SetValue(w.openEditor(index, opt, buf))
		return true
	case abi.EffEditClose:
		f.SetValue(e.Dispatch(op, index, value, nil, opt))
		if !audio {
			w.destroyWindow()
		}
		return true
	case abi.EffEditGetRect:
		if len(buf) < abi.RectSize {
			log.Error("Editor rectangle does not fit the port", "capacity", len(buf))
			f.SetValue(0)
			return true
		}
		clear(buf[:abi.RectSize])
		f.SetValue(e.Dispatch(op, index, value, buf[:abi.RectSize], opt))
		return true
	case abi.EffGetChunk:
		w.handleGetChunk(f)
		return true
	case abi.EffSetChunk:
		w.handleSetChunk(f, log)
		return true
	}

	var result int64
	switch t.Kind {
	case protocol.KindValue, protocol.KindLocal:
		result = e.Dispatch(op, index, value, nil, opt)
	case protocol.KindStringIn:
		result = e.Dispatch(op, index, value, protocol.CString(buf[:limit]), opt)
	case protocol.KindStringOut, protocol.KindStructOut:
		clear(buf[:limit])
		result = e.Dispatch(op, index, value, buf[:limit], opt)
		if t.Kind == protocol.KindStringOut && limit > 0 {
			buf[limit-1] = 0
		}
	case protocol.KindStructIn, protocol.KindStructInOut:
		result = e.Dispatch(op, index, value, buf[:limit], opt)
	case protocol.KindEvents:
		size := int(index) * abi.EventSize
		if index < 0 || size > len(buf) {
			log.Error("Invalid event list", "count", index)
			break
		}
		result = e.Dispatch(op, index, value, buf[:size], opt)
	default:
		log.Error("Unhandled dispatch opcode", "opcode", op)
	}
	f.SetValue(result)
	return true
}

// setBlockSize moves the audio goroutine onto the port the caller created
// for the new block size, then tells the plugin.
func (w *Worker) setBlockSize(portID int, value int64, opt float32) int64 {
	w.stopAudio()
	w.audio.Disconnect()
	if err := w.audio.Connect(portID); err != nil {
		w.log.Error("Unable to connect audio port", "id", portID, "err", err)
		return 0
	}
	w.log.Debug("Audio port connected", "id", portID, "frames", value)
	w.startAudio()
	return w.effect.Dispatch(abi.EffSetBlockSize, 0, value, nil, opt)
}

// openEditor opens the plugin editor in a new window and leaves the editor
// rectangle in buf. The result is the handle the caller embeds.
func (w *Worker) openEditor(index int32, opt float32, buf []byte) int64 {
	if len(buf) < abi.RectSize {
		w.log.Error("Editor rectangle does not fit the port", "capacity", len(buf))
		return 0
	}
	ws := w.opts.Windows
	var window, embed uintptr
	if ws != nil {
		var err error
		window, embed, err = ws.CreateWindow()
		if err != nil {
			w.log.Error("Unable to create editor window", "err", err)
			return 0
		}
	}

	result := w.effect.Dispatch(abi.EffEditOpen, index, int64(window), nil, opt)
	if result == 0 {
		w.log.Error("Plugin failed to open its editor")
		if ws != nil {
			ws.DestroyWindow(window)
		}
		return 0
	}
	w.window = window
	w.editorOpen = true

	rect := buf[:abi.RectSize]
	clear(rect)
	w.effect.Dispatch(abi.EffEditGetRect, 0, 0, rect, 0)
	r := abi.ReadRect(rect)
	w.log.Debug("Editor window", "width", r.Width(), "height", r.Height())

	if ws == nil {
		return result
	}
	ws.ResizeWindow(window, r)
	return int64(embed)
}

func (w *Worker) showWindow() {
	if ws := w.opts.Windows; ws != nil && w.editorOpen {
		ws.ShowWindow(w.window)
	}
}

func (w *Worker) destroyWindow() {
	if ws := w.opts.Windows; ws != nil && w.window != 0 {
		ws.DestroyWindow(w.window)
	}
	w.window = 0
	w.editorOpen = false
}

// handleGetChunk fetches the plugin's chunk and answers with its total size
// in value and the first block, of at most the size the caller asked for,
// in index and data.
func (w *Worker) handleGetChunk(f protocol.Frame) {
	buf := f.Data()
	capacity := int(f.Value())
	if capacity <= 0 || capacity > len(buf) {
		capacity = len(buf)
	}

	var data []byte
	if c, ok := w.effect.(abi.Chunker); ok {
		data = c.GetChunk(f.Index() != 0)
	}

	w.chunkMu.Lock()
	defer w.chunkMu.Unlock()
	if len(data) == 0 {
		w.chunkOut = nil
		f.SetIndex(0)
		f.SetValue(0)
		return
	}

	w.chunkOut = chunk.NewSplitter(data)
	block := w.chunkOut.Next(capacity)
	copy(buf, block)
	f.SetIndex(int32(len(block)))
	f.SetValue(int64(len(data)))
}

// handleGetDataBlock answers with the next block of the outgoing chunk.
func (w *Worker) handleGetDataBlock(f protocol.Frame, log *slog.Logger) {
	buf := f.Data()
	n := min(max(int(f.Index()), 0), len(buf))

	w.chunkMu.Lock()
	defer w.chunkMu.Unlock()
	if w.chunkOut == nil {
		log.Error("Data block requested without a pending chunk")
		f.SetIndex(0)
		return
	}

	block := w.chunkOut.Next(n)
	copy(buf, block)
	f.SetIndex(int32(len(block)))
	if w.chunkOut.Remaining() == 0 {
		w.chunkOut = nil
	}
}

// handleSetDataBlock appends one block to the incoming chunk. A block
// announcing a different total starts a new chunk.
func (w *Worker) handleSetDataBlock(f protocol.Frame, log *slog.Logger) {
	buf := f.Data()
	total, n := int(f.Value()), int(f.Index())

	w.chunkMu.Lock()
	defer w.chunkMu.Unlock()
	if n < 0 || n > len(buf) || total < 0 {
		log.Error("Invalid data block", "bytes", n, "total", total)
		w.chunkIn = nil
		return
	}
	if w.chunkIn == nil || w.chunkIn.Total() != total || w.chunkIn.Done() {
		w.chunkIn = chunk.NewAssembler(total)
	}
	if _, err := w.chunkIn.Write(buf[:n]); err != nil {
		log.Error("Chunk transfer broken", "total", total, "err", err)
		w.chunkIn = nil
	}
}

// handleSetChunk hands the assembled chunk to the plugin. An incomplete
// chunk is discarded and answered with 0.
func (w *Worker) handleSetChunk(f protocol.Frame, log *slog.Logger) {
	total := int(f.Value())
	preset := f.Index() != 0

	w.chunkMu.Lock()
	var data []byte
	if a := w.chunkIn; a != nil && a.Done() && a.Total() == total {
		data = a.Bytes()
	}
	w.chunkIn = nil
	w.chunkMu.Unlock()

	if data == nil && total > 0 {
		log.Error("effSetChunk: incomplete chunk", "expected", total)
		f.SetValue(0)
		return
	}
	c, ok := w.effect.(abi.Chunker)
	if !ok {
		log.Error("effSetChunk is unsupported by the plugin")
		f.SetValue(0)
		return
	}
	log.Debug("effSetChunk: chunk size", "bytes", total)
	f.SetValue(c.SetChunk(preset, data))
}

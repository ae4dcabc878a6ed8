package protocol

import (
	"bytes"
	"encoding/binary"
	"math"
	"unsafe"
)

// Header layout. The header is packed and every field has a fixed width, so
// both processes agree on it regardless of their native pointer size.
const (
	offCommand = 0  // int32
	offOpcode  = 4  // int32
	offIndex   = 8  // int32
	offValue   = 12 // int64
	offOpt     = 20 // float32

	HeaderSize = 24
)

// Frame is a bounds-checked view over one port's frame region: the fixed
// header followed by the opcode-specific payload.
type Frame struct {
	b []byte
}

// NewFrame returns a view over b, which must hold at least the header.
func NewFrame(b []byte) (Frame, error) {
	if len(b) < HeaderSize {
		return Frame{}, ErrFrameTooSmall
	}
	return Frame{b: b}, nil
}

func (f Frame) Command() Command     { return Command(int32(binary.NativeEndian.Uint32(f.b[offCommand:]))) }
func (f Frame) SetCommand(c Command) { binary.NativeEndian.PutUint32(f.b[offCommand:], uint32(c)) }
func (f Frame) Opcode() int32        { return int32(binary.NativeEndian.Uint32(f.b[offOpcode:])) }
func (f Frame) SetOpcode(op int32)   { binary.NativeEndian.PutUint32(f.b[offOpcode:], uint32(op)) }
func (f Frame) Index() int32         { return int32(binary.NativeEndian.Uint32(f.b[offIndex:])) }
func (f Frame) SetIndex(index int32) { binary.NativeEndian.PutUint32(f.b[offIndex:], uint32(index)) }
func (f Frame) Value() int64         { return int64(binary.NativeEndian.Uint64(f.b[offValue:])) }
func (f Frame) SetValue(value int64) { binary.NativeEndian.PutUint64(f.b[offValue:], uint64(value)) }
func (f Frame) Opt() float32         { return math.Float32frombits(binary.NativeEndian.Uint32(f.b[offOpt:])) }
func (f Frame) SetOpt(opt float32)   { binary.NativeEndian.PutUint32(f.b[offOpt:], math.Float32bits(opt)) }
func (f Frame) Data() []byte         { return f.b[HeaderSize:] }
func (f Frame) Capacity() int        { return len(f.b) - HeaderSize }
func (f Frame) Size() int            { return len(f.b) }

// Set writes the whole call header at once.
func (f Frame) Set(c Command, opcode, index int32, value int64, opt float32) {
	f.SetCommand(c)
	f.SetOpcode(opcode)
	f.SetIndex(index)
	f.SetValue(value)
	f.SetOpt(opt)
}

// Float32s returns the first n float32 samples of the payload, aliased to
// shared memory.
func (f Frame) Float32s(n int) ([]float32, error) {
	if n < 0 || n > f.Capacity()/4 {
		return nil, ErrPayloadTooBig
	}
	if n == 0 {
		return nil, nil
	}
	p := unsafe.Pointer(&f.b[HeaderSize])
	if uintptr(p)%8 != 0 {
		return nil, ErrMisaligned
	}
	return unsafe.Slice((*float32)(p), n), nil
}

// Float64s returns the first n float64 samples of the payload, aliased to
// shared memory.
func (f Frame) Float64s(n int) ([]float64, error) {
	if n < 0 || n > f.Capacity()/8 {
		return nil, ErrPayloadTooBig
	}
	if n == 0 {
		return nil, nil
	}
	p := unsafe.Pointer(&f.b[HeaderSize])
	if uintptr(p)%8 != 0 {
		return nil, ErrMisaligned
	}
	return unsafe.Slice((*float64)(p), n), nil
}

// CString returns b up to its first NUL byte.
func CString(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}

// PutCString copies src into dst as a NUL-terminated string of at most limit
// bytes including the terminator, truncating if needed. It returns the number
// of string bytes written.
func PutCString(dst, src []byte, limit int) int {
	if limit > len(dst) {
		limit = len(dst)
	}
	if limit <= 0 {
		return 0
	}
	n := copy(dst[:limit-1], CString(src))
	dst[n] = 0
	return n
}

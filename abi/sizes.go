package abi

import "encoding/binary"

// String limits, terminator included
const (
	MaxParamStrLen   = 8
	MaxProgNameLen   = 24
	MaxEffectNameLen = 32
	MaxVendorStrLen  = 64
	MaxProductStrLen = 64
)

// Fixed structure sizes on the wire
const (
	RectSize                = 8
	TimeInfoSize            = 88
	PinPropertiesSize       = 128
	ParameterPropertiesSize = 152
	MidiKeyNameSize         = 80
	PatchChunkInfoSize      = 64
	EventSize               = 32
)

// Rect is the editor rectangle
type Rect struct {
	Top, Left, Bottom, Right int16
}

func (r Rect) Width() int  { return int(r.Right) - int(r.Left) }
func (r Rect) Height() int { return int(r.Bottom) - int(r.Top) }

// PutRect encodes r into the first RectSize bytes of b.
func PutRect(b []byte, r Rect) {
	_ = b[RectSize-1]
	binary.NativeEndian.PutUint16(b[0:], uint16(r.Top))
	binary.NativeEndian.PutUint16(b[2:], uint16(r.Left))
	binary.NativeEndian.PutUint16(b[4:], uint16(r.Bottom))
	binary.NativeEndian.PutUint16(b[6:], uint16(r.Right))
}

// ReadRect decodes a Rect from the first RectSize bytes of b.
func ReadRect(b []byte) Rect {
	_ = b[RectSize-1]
	return Rect{
		Top:    int16(binary.NativeEndian.Uint16(b[0:])),
		Left:   int16(binary.NativeEndian.Uint16(b[2:])),
		Bottom: int16(binary.NativeEndian.Uint16(b[4:])),
		Right:  int16(binary.NativeEndian.Uint16(b[6:])),
	}
}

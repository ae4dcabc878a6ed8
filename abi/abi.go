// Package abi describes the synchronous plugin interface the bridge forwards:
// the effect's dispatcher, parameter accessors and block processing on one
// side, and the host callback on the other.
//
// Pointer arguments of the native interface are expressed as byte buffers:
//
//   - input strings arrive without their NUL terminator;
//   - output strings and structures are written into a buffer sized to the
//     opcode's fixed limit (see the Max*Len and *Size constants);
//   - event lists are packed EventSize records, their count in index.
//
// Bulk state (chunks) is exchanged through the optional Chunker interface
// rather than through Dispatch.
package abi

// Effect is one plugin instance.
type Effect interface {
	Dispatch(op Opcode, index int32, value int64, data []byte, opt float32) int64
	GetParameter(index int32) float32
	SetParameter(index int32, value float32)

	// ProcessReplacing and ProcessDoubleReplacing process frames samples per
	// channel, overwriting outputs.
	ProcessReplacing(inputs, outputs [][]float32, frames int)
	ProcessDoubleReplacing(inputs, outputs [][]float64, frames int)

	// Info returns the static description. It may change after the plugin
	// reports HostIOChanged.
	Info() PluginInfo
}

// Chunker is implemented by effects that expose their state as an opaque
// byte block (FlagProgramChunks).
type Chunker interface {
	GetChunk(preset bool) []byte
	SetChunk(preset bool, chunk []byte) int64
}

// Host receives the plugin's callbacks.
type Host interface {
	Callback(op HostOpcode, index int32, value int64, data []byte, opt float32) int64
}

// HostFunc adapts a function to the Host interface.
type HostFunc func(op HostOpcode, index int32, value int64, data []byte, opt float32) int64

func (f HostFunc) Callback(op HostOpcode, index int32, value int64, data []byte, opt float32) int64 {
	return f(op, index, value, data, opt)
}

// PluginInfo is the static description reported by an effect
type PluginInfo struct {
	Flags        int32
	ProgramCount int32
	ParamCount   int32
	InputCount   int32
	OutputCount  int32
	UniqueID     int32
	Version      int32
	InitialDelay int32
}

// Effect flags
const (
	FlagHasEditor          int32 = 1 << 0
	FlagCanReplacing       int32 = 1 << 4
	FlagProgramChunks      int32 = 1 << 5
	FlagIsSynth            int32 = 1 << 8
	FlagNoSoundInStop      int32 = 1 << 9
	FlagCanDoubleReplacing int32 = 1 << 12
)

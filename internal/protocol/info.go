package protocol

import (
	"encoding/binary"

	"gosuda.org/vstbridge/abi"
)

// PluginInfoSize is the encoded size of abi.PluginInfo
const PluginInfoSize = 32

// PutPluginInfo encodes info into the first PluginInfoSize bytes of b.
func PutPluginInfo(b []byte, info abi.PluginInfo) error {
	if len(b) < PluginInfoSize {
		return ErrPayloadTooBig
	}
	fields := [...]int32{
		info.Flags,
		info.ProgramCount,
		info.ParamCount,
		info.InputCount,
		info.OutputCount,
		info.UniqueID,
		info.Version,
		info.InitialDelay,
	}
	for i, v := range fields {
		binary.NativeEndian.PutUint32(b[i*4:], uint32(v))
	}
	return nil
}

// ReadPluginInfo decodes a PluginInfo from b.
func ReadPluginInfo(b []byte) (abi.PluginInfo, error) {
	if len(b) < PluginInfoSize {
		return abi.PluginInfo{}, ErrPayloadTooBig
	}
	field := func(i int) int32 { return int32(binary.NativeEndian.Uint32(b[i*4:])) }
	return abi.PluginInfo{
		Flags:        field(0),
		ProgramCount: field(1),
		ParamCount:   field(2),
		InputCount:   field(3),
		OutputCount:  field(4),
		UniqueID:     field(5),
		Version:      field(6),
		InitialDelay: field(7),
	}, nil
}

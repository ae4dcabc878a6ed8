// Package protocol defines the frame layout exchanged over a data port and
// the per-opcode rules for marshaling dispatcher and host-callback arguments
// into it.
package protocol

import "errors"

//go:generate go tool stringer -type=Command -trimprefix=Cmd
type Command int32

const (
	// Response: terminal marker written by the responder
	CmdResponse Command = iota

	// Dispatch: opcode, index, value, opt as passed to the dispatcher; data per opcode
	CmdDispatch

	// GetParameter: index; result in opt
	CmdGetParameter

	// SetParameter: index, opt
	CmdSetParameter

	// ProcessSingle: value = frames; data = input then output channels, float32
	CmdProcessSingle

	// ProcessDouble: value = frames; data = input then output channels, float64
	CmdProcessDouble

	// HostInfo: opcode = callback port id, value = protocol version
	CmdHostInfo

	// PluginInfo: value = protocol version; data = plugin description
	CmdPluginInfo

	// ShowWindow: no arguments
	CmdShowWindow

	// GetDataBlock: index = requested bytes; reply index = bytes in data
	CmdGetDataBlock

	// SetDataBlock: index = bytes in data, value = chunk total
	CmdSetDataBlock

	// AudioMaster: host callback, opcode, index, value, opt; data per opcode
	CmdAudioMaster
)

// Error definitions for frame access
var (
	ErrFrameTooSmall = errors.New("protocol: frame smaller than header")
	ErrPayloadTooBig = errors.New("protocol: payload exceeds frame capacity")
	ErrMisaligned    = errors.New("protocol: sample view is not 8-byte aligned")
)

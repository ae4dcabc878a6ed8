package protocol

import "gosuda.org/vstbridge/abi"

// Kind describes how an opcode's pointer argument crosses the boundary
type Kind uint8

const (
	KindUnhandled   Kind = iota // Not forwarded; logged and answered with 0
	KindValue                   // Scalar arguments only
	KindLocal                   // Answered on the calling side, never forwarded
	KindStringIn                // NUL-terminated string written into data
	KindStringOut               // NUL-terminated string read back from data
	KindStructIn                // Fixed-size structure written into data
	KindStructOut               // Fixed-size structure read back from data
	KindStructInOut             // Fixed-size structure written and read back
	KindEvents                  // index = count, data = packed event records
	KindSpecial                 // Multi-step sequence implemented by the router
)

// Traits are the marshaling rules for one opcode
type Traits struct {
	Kind  Kind
	Size  int  // Byte limit for strings and structures; 0 means frame capacity
	Quiet bool // Called often enough to be left out of flood logging
}

var effectTraits = map[abi.Opcode]Traits{
	abi.EffOpen:                     {Kind: KindValue},
	abi.EffClose:                    {Kind: KindSpecial},
	abi.EffSetProgram:               {Kind: KindValue},
	abi.EffGetProgram:               {Kind: KindValue},
	abi.EffSetProgramName:           {Kind: KindStringIn, Size: abi.MaxProgNameLen},
	abi.EffGetProgramName:           {Kind: KindStringOut, Size: abi.MaxProgNameLen},
	abi.EffGetParamLabel:            {Kind: KindStringOut, Size: abi.MaxParamStrLen, Quiet: true},
	abi.EffGetParamDisplay:          {Kind: KindStringOut, Size: abi.MaxParamStrLen, Quiet: true},
	abi.EffGetParamName:             {Kind: KindStringOut, Size: abi.MaxParamStrLen},
	abi.EffSetSampleRate:            {Kind: KindValue},
	abi.EffSetBlockSize:             {Kind: KindSpecial},
	abi.EffMainsChanged:             {Kind: KindValue},
	abi.EffEditGetRect:              {Kind: KindSpecial},
	abi.EffEditOpen:                 {Kind: KindSpecial},
	abi.EffEditClose:                {Kind: KindValue},
	abi.EffEditIdle:                 {Kind: KindLocal, Quiet: true},
	abi.EffIdentify:                 {Kind: KindValue},
	abi.EffGetChunk:                 {Kind: KindSpecial},
	abi.EffSetChunk:                 {Kind: KindSpecial},
	abi.EffProcessEvents:            {Kind: KindEvents},
	abi.EffCanBeAutomated:           {Kind: KindValue, Quiet: true},
	abi.EffGetProgramNameIndexed:    {Kind: KindStringOut, Size: abi.MaxProgNameLen, Quiet: true},
	abi.EffConnectInput:             {Kind: KindValue},
	abi.EffConnectOutput:            {Kind: KindValue},
	abi.EffGetInputProperties:       {Kind: KindStructOut, Size: abi.PinPropertiesSize},
	abi.EffGetOutputProperties:      {Kind: KindStructOut, Size: abi.PinPropertiesSize},
	abi.EffGetPlugCategory:          {Kind: KindValue},
	abi.EffSetBypass:                {Kind: KindValue},
	abi.EffGetEffectName:            {Kind: KindStringOut, Size: abi.MaxEffectNameLen},
	abi.EffGetVendorString:          {Kind: KindStringOut, Size: abi.MaxVendorStrLen},
	abi.EffGetProductString:         {Kind: KindStringOut, Size: abi.MaxProductStrLen},
	abi.EffGetVendorVersion:         {Kind: KindValue},
	abi.EffCanDo:                    {Kind: KindStringIn},
	abi.EffGetTailSize:              {Kind: KindValue},
	abi.EffGetParameterProperties:   {Kind: KindStructOut, Size: abi.ParameterPropertiesSize, Quiet: true},
	abi.EffKeysRequired:             {Kind: KindValue},
	abi.EffGetVstVersion:            {Kind: KindValue},
	abi.EffSetEditKnobMode:          {Kind: KindValue},
	abi.EffGetMidiKeyName:           {Kind: KindStructInOut, Size: abi.MidiKeyNameSize},
	abi.EffBeginSetProgram:          {Kind: KindValue},
	abi.EffEndSetProgram:            {Kind: KindValue},
	abi.EffShellGetNextPlugin:       {Kind: KindStringOut, Size: abi.MaxProductStrLen},
	abi.EffStartProcess:             {Kind: KindValue},
	abi.EffStopProcess:              {Kind: KindValue},
	abi.EffSetTotalSampleToProcess:  {Kind: KindValue},
	abi.EffSetPanLaw:                {Kind: KindValue},
	abi.EffBeginLoadBank:            {Kind: KindStructIn, Size: abi.PatchChunkInfoSize},
	abi.EffBeginLoadProgram:         {Kind: KindStructIn, Size: abi.PatchChunkInfoSize},
	abi.EffSetProcessPrecision:      {Kind: KindValue},
	abi.EffGetNumMidiInputChannels:  {Kind: KindValue},
	abi.EffGetNumMidiOutputChannels: {Kind: KindValue},
}

var hostTraits = map[abi.HostOpcode]Traits{
	abi.HostAutomate:               {Kind: KindValue},
	abi.HostVersion:                {Kind: KindValue},
	abi.HostCurrentID:              {Kind: KindValue},
	abi.HostIdle:                   {Kind: KindLocal, Quiet: true},
	abi.HostWantMidi:               {Kind: KindValue},
	abi.HostGetTime:                {Kind: KindStructOut, Size: abi.TimeInfoSize, Quiet: true},
	abi.HostProcessEvents:          {Kind: KindEvents},
	abi.HostIOChanged:              {Kind: KindSpecial},
	abi.HostNeedIdle:               {Kind: KindLocal},
	abi.HostSizeWindow:             {Kind: KindValue},
	abi.HostGetSampleRate:          {Kind: KindValue},
	abi.HostGetBlockSize:           {Kind: KindValue},
	abi.HostGetInputLatency:        {Kind: KindValue},
	abi.HostGetOutputLatency:       {Kind: KindValue},
	abi.HostGetCurrentProcessLevel: {Kind: KindValue},
	abi.HostGetAutomationState:     {Kind: KindValue},
	abi.HostGetVendorString:        {Kind: KindStringOut, Size: abi.MaxVendorStrLen},
	abi.HostGetProductString:       {Kind: KindStringOut, Size: abi.MaxProductStrLen},
	abi.HostGetVendorVersion:       {Kind: KindValue},
	abi.HostCanDo:                  {Kind: KindStringIn},
	abi.HostGetLanguage:            {Kind: KindValue},
	abi.HostUpdateDisplay:          {Kind: KindValue},
	abi.HostBeginEdit:              {Kind: KindValue},
	abi.HostEndEdit:                {Kind: KindValue},
}

// EffectTraits returns the marshaling rules for a dispatcher opcode.
func EffectTraits(op abi.Opcode) Traits {
	return effectTraits[op]
}

// HostTraits returns the marshaling rules for a host callback opcode.
func HostTraits(op abi.HostOpcode) Traits {
	return hostTraits[op]
}

// Limit returns the byte limit for t within a payload of capacity bytes.
func (t Traits) Limit(capacity int) int {
	if t.Size == 0 || t.Size > capacity {
		return capacity
	}
	return t.Size
}

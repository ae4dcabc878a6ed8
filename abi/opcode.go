package abi

import "strconv"

// Opcode selects an effect dispatcher operation
type Opcode int32

const (
	EffOpen Opcode = iota
	EffClose
	EffSetProgram
	EffGetProgram
	EffSetProgramName
	EffGetProgramName
	EffGetParamLabel
	EffGetParamDisplay
	EffGetParamName
	EffGetVu
	EffSetSampleRate
	EffSetBlockSize
	EffMainsChanged
	EffEditGetRect
	EffEditOpen
	EffEditClose
	EffEditDraw
	EffEditMouse
	EffEditKey
	EffEditIdle
	EffEditTop
	EffEditSleep
	EffIdentify
	EffGetChunk
	EffSetChunk
	EffProcessEvents
	EffCanBeAutomated
	EffString2Parameter
	EffGetNumProgramCategories
	EffGetProgramNameIndexed
	EffCopyProgram
	EffConnectInput
	EffConnectOutput
	EffGetInputProperties
	EffGetOutputProperties
	EffGetPlugCategory
	EffGetCurrentPosition
	EffGetDestinationBuffer
	EffOfflineNotify
	EffOfflinePrepare
	EffOfflineRun
	EffProcessVarIo
	EffSetSpeakerArrangement
	EffSetBlockSizeAndSampleRate
	EffSetBypass
	EffGetEffectName
	EffGetErrorText
	EffGetVendorString
	EffGetProductString
	EffGetVendorVersion
	EffVendorSpecific
	EffCanDo
	EffGetTailSize
	EffIdle
	EffGetIcon
	EffSetViewPosition
	EffGetParameterProperties
	EffKeysRequired
	EffGetVstVersion
	EffEditKeyDown
	EffEditKeyUp
	EffSetEditKnobMode
	EffGetMidiProgramName
	EffGetCurrentMidiProgram
	EffGetMidiProgramCategory
	EffHasMidiProgramsChanged
	EffGetMidiKeyName
	EffBeginSetProgram
	EffEndSetProgram
	EffGetSpeakerArrangement
	EffShellGetNextPlugin
	EffStartProcess
	EffStopProcess
	EffSetTotalSampleToProcess
	EffSetPanLaw
	EffBeginLoadBank
	EffBeginLoadProgram
	EffSetProcessPrecision
	EffGetNumMidiInputChannels
	EffGetNumMidiOutputChannels
)

var opcodeNames = [...]string{
	"effOpen",
	"effClose",
	"effSetProgram",
	"effGetProgram",
	"effSetProgramName",
	"effGetProgramName",
	"effGetParamLabel",
	"effGetParamDisplay",
	"effGetParamName",
	"effGetVu",
	"effSetSampleRate",
	"effSetBlockSize",
	"effMainsChanged",
	"effEditGetRect",
	"effEditOpen",
	"effEditClose",
	"effEditDraw",
	"effEditMouse",
	"effEditKey",
	"effEditIdle",
	"effEditTop",
	"effEditSleep",
	"effIdentify",
	"effGetChunk",
	"effSetChunk",
	"effProcessEvents",
	"effCanBeAutomated",
	"effString2Parameter",
	"effGetNumProgramCategories",
	"effGetProgramNameIndexed",
	"effCopyProgram",
	"effConnectInput",
	"effConnectOutput",
	"effGetInputProperties",
	"effGetOutputProperties",
	"effGetPlugCategory",
	"effGetCurrentPosition",
	"effGetDestinationBuffer",
	"effOfflineNotify",
	"effOfflinePrepare",
	"effOfflineRun",
	"effProcessVarIo",
	"effSetSpeakerArrangement",
	"effSetBlockSizeAndSampleRate",
	"effSetBypass",
	"effGetEffectName",
	"effGetErrorText",
	"effGetVendorString",
	"effGetProductString",
	"effGetVendorVersion",
	"effVendorSpecific",
	"effCanDo",
	"effGetTailSize",
	"effIdle",
	"effGetIcon",
	"effSetViewPosition",
	"effGetParameterProperties",
	"effKeysRequired",
	"effGetVstVersion",
	"effEditKeyDown",
	"effEditKeyUp",
	"effSetEditKnobMode",
	"effGetMidiProgramName",
	"effGetCurrentMidiProgram",
	"effGetMidiProgramCategory",
	"effHasMidiProgramsChanged",
	"effGetMidiKeyName",
	"effBeginSetProgram",
	"effEndSetProgram",
	"effGetSpeakerArrangement",
	"effShellGetNextPlugin",
	"effStartProcess",
	"effStopProcess",
	"effSetTotalSampleToProcess",
	"effSetPanLaw",
	"effBeginLoadBank",
	"effBeginLoadProgram",
	"effSetProcessPrecision",
	"effGetNumMidiInputChannels",
	"effGetNumMidiOutputChannels",
}

func (op Opcode) String() string {
	if op < 0 || int(op) >= len(opcodeNames) {
		return "Opcode(" + strconv.FormatInt(int64(op), 10) + ")"
	}
	return opcodeNames[op]
}

// HostOpcode selects a host callback operation
type HostOpcode int32

const (
	HostAutomate HostOpcode = iota
	HostVersion
	HostCurrentID
	HostIdle
	HostPinConnected
	_
	HostWantMidi
	HostGetTime
	HostProcessEvents
	HostSetTime
	HostTempoAt
	HostGetNumAutomatableParameters
	HostGetParameterQuantization
	HostIOChanged
	HostNeedIdle
	HostSizeWindow
	HostGetSampleRate
	HostGetBlockSize
	HostGetInputLatency
	HostGetOutputLatency
	HostGetPreviousPlug
	HostGetNextPlug
	HostWillReplaceOrAccumulate
	HostGetCurrentProcessLevel
	HostGetAutomationState
	HostOfflineStart
	HostOfflineRead
	HostOfflineWrite
	HostOfflineGetCurrentPass
	HostOfflineGetCurrentMetaPass
	HostSetOutputSampleRate
	HostGetOutputSpeakerArrangement
	HostGetVendorString
	HostGetProductString
	HostGetVendorVersion
	HostVendorSpecific
	HostSetIcon
	HostCanDo
	HostGetLanguage
	HostOpenWindow
	HostCloseWindow
	HostGetDirectory
	HostUpdateDisplay
	HostBeginEdit
	HostEndEdit
	HostOpenFileSelector
	HostCloseFileSelector
	HostEditFile
	HostGetChunkFile
	HostGetInputSpeakerArrangement
)

var hostOpcodeNames = [...]string{
	"audioMasterAutomate",
	"audioMasterVersion",
	"audioMasterCurrentId",
	"audioMasterIdle",
	"audioMasterPinConnected",
	"",
	"audioMasterWantMidi",
	"audioMasterGetTime",
	"audioMasterProcessEvents",
	"audioMasterSetTime",
	"audioMasterTempoAt",
	"audioMasterGetNumAutomatableParameters",
	"audioMasterGetParameterQuantization",
	"audioMasterIOChanged",
	"audioMasterNeedIdle",
	"audioMasterSizeWindow",
	"audioMasterGetSampleRate",
	"audioMasterGetBlockSize",
	"audioMasterGetInputLatency",
	"audioMasterGetOutputLatency",
	"audioMasterGetPreviousPlug",
	"audioMasterGetNextPlug",
	"audioMasterWillReplaceOrAccumulate",
	"audioMasterGetCurrentProcessLevel",
	"audioMasterGetAutomationState",
	"audioMasterOfflineStart",
	"audioMasterOfflineRead",
	"audioMasterOfflineWrite",
	"audioMasterOfflineGetCurrentPass",
	"audioMasterOfflineGetCurrentMetaPass",
	"audioMasterSetOutputSampleRate",
	"audioMasterGetOutputSpeakerArrangement",
	"audioMasterGetVendorString",
	"audioMasterGetProductString",
	"audioMasterGetVendorVersion",
	"audioMasterVendorSpecific",
	"audioMasterSetIcon",
	"audioMasterCanDo",
	"audioMasterGetLanguage",
	"audioMasterOpenWindow",
	"audioMasterCloseWindow",
	"audioMasterGetDirectory",
	"audioMasterUpdateDisplay",
	"audioMasterBeginEdit",
	"audioMasterEndEdit",
	"audioMasterOpenFileSelector",
	"audioMasterCloseFileSelector",
	"audioMasterEditFile",
	"audioMasterGetChunkFile",
	"audioMasterGetInputSpeakerArrangement",
}

func (op HostOpcode) String() string {
	if op < 0 || int(op) >= len(hostOpcodeNames) || hostOpcodeNames[op] == "" {
		return "HostOpcode(" + strconv.FormatInt(int64(op), 10) + ")"
	}
	return hostOpcodeNames[op]
}

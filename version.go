package vstbridge

// ProtocolVersion represents a frame protocol version
type ProtocolVersion struct {
	Major uint8 // Major version for incompatible changes
	Minor uint8 // Minor version for compatible additions
}

// CurrentVersion is the frame protocol version spoken by this package
var CurrentVersion = ProtocolVersion{Major: 1, Minor: 0}

// Encode packs the version into a frame value field
func (v ProtocolVersion) Encode() int64 {
	return int64(v.Major)<<8 | int64(v.Minor)
}

// DecodeVersion unpacks a version from a frame value field
func DecodeVersion(value int64) ProtocolVersion {
	return ProtocolVersion{Major: uint8(value >> 8), Minor: uint8(value)}
}

// ProtocolState represents the state of a session
type ProtocolState uint32

const (
	ProtocolStateNone        ProtocolState = iota // Nothing exchanged yet
	ProtocolStateNegotiating                      // Handshake in progress
	ProtocolStateNegotiated                       // Handshake completed successfully
	ProtocolStateFailed                           // Handshake or transport failed
	ProtocolStateClosed                           // Session torn down
)

func (s ProtocolState) String() string {
	switch s {
	case ProtocolStateNone:
		return "none"
	case ProtocolStateNegotiating:
		return "negotiating"
	case ProtocolStateNegotiated:
		return "negotiated"
	case ProtocolStateFailed:
		return "failed"
	case ProtocolStateClosed:
		return "closed"
	}
	return "unknown"
}

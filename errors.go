package vstbridge

import (
	"errors"
	"fmt"
)

// Error definitions for bridge operations
var (
	ErrSetup              = errors.New("vstbridge: could not establish worker")
	ErrHandshakeTimeout   = errors.New("vstbridge: worker did not answer the handshake in time")
	ErrVersionMismatch    = errors.New("vstbridge: protocol version mismatch")
	ErrUnexpectedCommand  = errors.New("vstbridge: unexpected command")
	ErrWorkerExited       = errors.New("vstbridge: worker process exited")
	ErrPeerGone           = errors.New("vstbridge: peer detached from port")
	ErrSessionClosed      = errors.New("vstbridge: session is closed")
	ErrEntryPointNotFound = errors.New("vstbridge: plugin entry point not found")
	ErrPluginInit         = errors.New("vstbridge: plugin failed to initialize")
)

// setupError reports a session creation failure. The result matches both
// ErrSetup and cause.
func setupError(step string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrSetup, step, cause)
}

// Package shm provides the two shared-memory primitives the bridge is built
// on: a System V segment identified by a small integer handle, and a binary
// signal that lives inside such a segment.
//
// Handles are plain integers so they can be passed to another process on its
// command line or inside an already established frame.
package shm

import "errors"

// Error definitions for shared memory operations
var (
	ErrTimeout         = errors.New("shm: wait timed out")
	ErrUnsupported     = errors.New("shm: shared memory is not supported on this platform")
	ErrSegmentTooSmall = errors.New("shm: segment too small")
	ErrMisaligned      = errors.New("shm: signal word is not 4-byte aligned")
	ErrDetached        = errors.New("shm: segment is detached")
)

// Segment represents an attached shared memory region
// The capacity is fixed at creation; a segment attached by handle recovers it
// from the kernel's segment metadata.
type Segment struct {
	id      int    // Kernel identifier, shared with the peer process
	data    []byte // Mapping of the whole region
	creator bool   // Whether this process created the segment
}

// ID returns the handle other processes use to attach the segment
func (s *Segment) ID() int {
	return s.id
}

// Size returns the size of the shared memory region in bytes
func (s *Segment) Size() int {
	return len(s.data)
}

// Bytes returns the mapped region.
// The slice must not be used after Detach.
func (s *Segment) Bytes() []byte {
	return s.data
}

// Creator reports whether this process created the segment and is therefore
// responsible for marking it for removal
func (s *Segment) Creator() bool {
	return s.creator
}

package shm

import (
	"sync/atomic"
	"time"
	"unsafe"

	"code.hybscloud.com/iox"
)

// SignalSize is the number of bytes a Signal occupies inside a segment
const SignalSize = 4

// Signal is a binary semaphore over a 32-bit word inside shared memory.
// Post saturates at one outstanding signal; Wait consumes it.
//
// The word is shared with the peer process, so the wait/wake calls use the
// process-shared futex variants.
type Signal struct {
	word *uint32
}

// SignalAt returns the signal whose word starts at off within b.
func SignalAt(b []byte, off int) (*Signal, error) {
	if off < 0 || off+SignalSize > len(b) {
		return nil, ErrSegmentTooSmall
	}
	p := unsafe.Pointer(&b[off])
	if uintptr(p)%4 != 0 {
		return nil, ErrMisaligned
	}
	return &Signal{word: (*uint32)(p)}, nil
}

// Post raises the signal and wakes one waiter.
func (s *Signal) Post() error {
	for {
		v := atomic.LoadUint32(s.word)
		if v != 0 {
			break
		}
		if atomic.CompareAndSwapUint32(s.word, 0, 1) {
			break
		}
	}
	return futexWake(s.word, 1)
}

// Wait blocks until the signal is raised and consumes it. A negative timeout
// waits forever. On ErrTimeout the signal is left untouched, so a late Post is
// picked up by the next Wait.
func (s *Signal) Wait(timeout time.Duration) error {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if s.TryWait() == nil {
			return nil
		}

		remaining := time.Duration(-1)
		if timeout >= 0 {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				return ErrTimeout
			}
		}

		// The kernel compares the word against 0 before sleeping, so a Post
		// between TryWait and here makes futexWait return immediately.
		if err := futexWait(s.word, 0, remaining); err != nil && err != ErrTimeout {
			return err
		}
	}
}

// TryWait consumes a raised signal without blocking, or returns
// iox.ErrWouldBlock.
func (s *Signal) TryWait() error {
	for {
		v := atomic.LoadUint32(s.word)
		if v == 0 {
			return iox.ErrWouldBlock
		}
		if atomic.CompareAndSwapUint32(s.word, v, v-1) {
			return nil
		}
	}
}

// Pending reports whether the signal is currently raised
func (s *Signal) Pending() bool {
	return atomic.LoadUint32(s.word) != 0
}

// Package chunk moves payloads larger than one frame across several
// request/response rounds.
package chunk

import "errors"

var (
	ErrTruncated = errors.New("chunk: premature end of data transmission")
	ErrOverflow  = errors.New("chunk: block exceeds declared total")
)

// Rounds returns the number of blocks needed to move total bytes through a
// frame of capacity bytes.
func Rounds(total, capacity int) int {
	if total <= 0 || capacity <= 0 {
		return 0
	}
	return (total + capacity - 1) / capacity
}

// Splitter hands out consecutive blocks of a payload
type Splitter struct {
	data []byte
	off  int
}

func NewSplitter(data []byte) *Splitter {
	return &Splitter{data: data}
}

// Next returns the next block of at most limit bytes. It returns an empty block
// once the payload is exhausted.
func (s *Splitter) Next(limit int) []byte {
	n := min(limit, len(s.data)-s.off)
	if n <= 0 {
		return nil
	}
	b := s.data[s.off : s.off+n]
	s.off += n
	return b
}

func (s *Splitter) Total() int     { return len(s.data) }
func (s *Splitter) Remaining() int { return len(s.data) - s.off }

// Assembler accumulates blocks until a declared total is reached
type Assembler struct {
	buf []byte
	n   int
}

func NewAssembler(total int) *Assembler {
	return &Assembler{buf: make([]byte, max(total, 0))}
}

// Write appends one block. An empty block before the total is reached is a
// transmission failure, and so is a block running past the total; in both
// cases the partial data is discarded.
func (a *Assembler) Write(p []byte) (int, error) {
	if len(p) == 0 && !a.Done() {
		a.discard()
		return 0, ErrTruncated
	}
	if len(p) > a.Remaining() {
		a.discard()
		return 0, ErrOverflow
	}
	n := copy(a.buf[a.n:], p)
	a.n += n
	return n, nil
}

func (a *Assembler) discard() {
	a.buf = nil
	a.n = 0
}

func (a *Assembler) Total() int     { return len(a.buf) }
func (a *Assembler) Remaining() int { return len(a.buf) - a.n }

// Done reports whether the declared total has been received
func (a *Assembler) Done() bool {
	return a.buf != nil && a.n == len(a.buf)
}

// Bytes returns the assembled payload, or nil while it is incomplete.
func (a *Assembler) Bytes() []byte {
	if !a.Done() {
		return nil
	}
	return a.buf
}

//go:build !linux

package shm

// Create is unavailable without System V shared memory and futexes.
func Create(size int) (*Segment, error) {
	return nil, ErrUnsupported
}

// Attach is unavailable without System V shared memory and futexes.
func Attach(id int) (*Segment, error) {
	return nil, ErrUnsupported
}

func (s *Segment) Attachments() (int, error) {
	return 0, ErrUnsupported
}

func (s *Segment) Detach() error {
	return ErrUnsupported
}

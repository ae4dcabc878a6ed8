//go:build linux

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Create allocates a zero-initialized private segment of size bytes and
// attaches it to the calling process.
func Create(size int) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid segment size %d", size)
	}

	id, err := unix.SysvShmGet(unix.IPC_PRIVATE, size, unix.IPC_CREAT|unix.IPC_EXCL|0o600)
	if err != nil {
		return nil, fmt.Errorf("shm: shmget(%d bytes): %w", size, err)
	}

	data, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		unix.SysvShmCtl(id, unix.IPC_RMID, nil)
		return nil, fmt.Errorf("shm: shmat(%d): %w", id, err)
	}

	return &Segment{id: id, data: data, creator: true}, nil
}

// Attach maps the existing segment id into the calling process.
func Attach(id int) (*Segment, error) {
	data, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: shmat(%d): %w", id, err)
	}
	return &Segment{id: id, data: data}, nil
}

// Attachments returns the number of processes currently attached to the
// segment.
func (s *Segment) Attachments() (int, error) {
	if s.data == nil {
		return 0, ErrDetached
	}

	var desc unix.SysvShmDesc
	if _, err := unix.SysvShmCtl(s.id, unix.IPC_STAT, &desc); err != nil {
		return 0, fmt.Errorf("shm: shmctl(%d, IPC_STAT): %w", s.id, err)
	}
	return int(desc.Nattch), nil
}

// Detach unmaps the segment. The creator additionally marks it for removal;
// the kernel frees it once the last attachment is gone.
func (s *Segment) Detach() error {
	if s.data == nil {
		return ErrDetached
	}

	err := unix.SysvShmDetach(s.data)
	s.data = nil
	if err != nil {
		err = fmt.Errorf("shm: shmdt(%d): %w", s.id, err)
	}

	if s.creator {
		if _, rerr := unix.SysvShmCtl(s.id, unix.IPC_RMID, nil); rerr != nil && err == nil {
			err = fmt.Errorf("shm: shmctl(%d, IPC_RMID): %w", s.id, rerr)
		}
	}
	return err
}

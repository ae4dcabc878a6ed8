//go:build !linux

package shm

import "time"

func futexWait(addr *uint32, val uint32, timeout time.Duration) error {
	return ErrUnsupported
}

func futexWake(addr *uint32, n int) error {
	return ErrUnsupported
}

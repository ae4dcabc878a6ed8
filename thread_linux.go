package vstbridge

import "golang.org/x/sys/unix"

// threadID returns the calling OS thread's id.
func threadID() int {
	return unix.Gettid()
}

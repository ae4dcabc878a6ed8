//go:build !linux

package vstbridge

// threadID has no portable source outside Linux; sessions cannot be opened
// there anyway because shared segments are unsupported.
func threadID() int {
	return 1
}

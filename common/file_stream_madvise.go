//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package common

import "golang.org/x/sys/unix"

// adviseSequential tells the kernel a mapping is read front to back, so read ahead is
// more aggressive. Failure only loses the hint.
func adviseSequential(mapping []byte) {
	_ = unix.Madvise(mapping, unix.MADV_SEQUENTIAL)
}

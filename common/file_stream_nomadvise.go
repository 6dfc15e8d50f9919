//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package common

func adviseSequential([]byte) {}

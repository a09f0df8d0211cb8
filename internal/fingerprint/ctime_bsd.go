//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package fingerprint

import (
	"io/fs"
	"syscall"
	"time"
)

// changeTime extracts the inode change time (ctime) from the stat result.
func changeTime(info fs.FileInfo) time.Time {
	if sys, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(sys.Ctimespec.Sec, sys.Ctimespec.Nsec)
	}
	return info.ModTime()
}

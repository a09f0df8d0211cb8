//go:build linux

package fingerprint

import (
	"io/fs"
	"syscall"
	"time"
)

// changeTime extracts the inode change time (ctime) from the stat result.
func changeTime(info fs.FileInfo) time.Time {
	if sys, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(sys.Ctim.Sec, sys.Ctim.Nsec)
	}
	return info.ModTime()
}

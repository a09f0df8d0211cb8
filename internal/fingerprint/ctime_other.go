//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package fingerprint

import (
	"io/fs"
	"time"
)

// changeTime has no portable source on this platform; the modification time
// is the closest available signal.
func changeTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}

package hardware

import (
	"context"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// Platform returns the host operating system name ("linux", "darwin", ...).
func Platform(ctx context.Context) string {
	info, err := host.InfoWithContext(ctx)
	if err != nil || info == nil || info.OS == "" {
		return runtime.GOOS
	}
	return strings.ToLower(info.OS)
}

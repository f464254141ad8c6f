// Package process runs short-lived helper commands such as capability
// listings and media probes.
//
// Runner is the seam callers depend on. Exec runs real subprocesses: the
// child is placed in its own process group, interrupted with SIGINT when the
// context ends and killed if it has not exited within the grace period.
//
// Example usage:
//
//	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
//	defer cancel()
//	out, err := process.Exec{}.Run(ctx, "ffmpeg", "-hide_banner", "-hwaccels")
package process

package ffmpeg

import "errors"

var (
	// ErrInvalidOption is returned for unknown or conflicting input options.
	ErrInvalidOption = errors.New("invalid ffmpeg option")
	// ErrMissingInput is returned when a build has no source path.
	ErrMissingInput = errors.New("input path is required")
	// ErrInvalidOutput is returned for output settings that cannot be rendered.
	ErrInvalidOutput = errors.New("invalid output settings")
	// ErrProbeFailed wraps ffprobe exec, timeout and decode failures.
	ErrProbeFailed = errors.New("probe failed")
	// ErrMediaUnreadable is returned when a local source cannot be opened.
	ErrMediaUnreadable = errors.New("media unreadable")
)

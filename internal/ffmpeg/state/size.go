// Package state holds the immutable values threaded through a pipeline build:
// the per-stream FrameState and the session-wide PipelineState.
package state

import (
	"errors"
	"fmt"
)

// ErrInvalidFrameSize is returned for non-positive frame dimensions.
var ErrInvalidFrameSize = errors.New("frame size must be positive")

// FrameSize is a width/height pair. The zero value means "not yet determined".
type FrameSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewFrameSize validates and returns a FrameSize.
func NewFrameSize(width, height int) (FrameSize, error) {
	if width <= 0 || height <= 0 {
		return FrameSize{}, fmt.Errorf("%w: %dx%d", ErrInvalidFrameSize, width, height)
	}
	return FrameSize{Width: width, Height: height}, nil
}

// IsZero reports whether the size is undetermined.
func (s FrameSize) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// AspectRatio returns width/height, or 0 for an undetermined size.
func (s FrameSize) AspectRatio() float64 {
	if s.Height == 0 {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

func (s FrameSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

package ffmpeg

import (
	"strings"

	"github.com/google/uuid"
	"github.com/smazurov/playoutnode/internal/ffmpeg/filter"
	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
)

// Command is a fully rendered ffmpeg invocation. It is never executed by this
// package.
type Command struct {
	ID   uuid.UUID
	Path string
	Args []string
	// Env holds extra KEY=VALUE entries for the process environment.
	Env  []string

	Pipeline state.PipelineState
	Final    state.FrameState
	Steps    []filter.Step

	VideoEncoder   string
	AudioEncoder   string
	// Accel is the accelerator chosen for the build before per-stage fallbacks.
	Accel          state.HardwareAccel
	// EncoderFamily is the family of the selected video encoder.
	EncoderFamily  string
	// SoftwareDecode is set when a hardware backend was selected but the
	// source had to be decoded on the CPU.
	SoftwareDecode bool
	ChannelID      string
}

// Argv returns the executable followed by its arguments.
func (c *Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Path)
	return append(argv, c.Args...)
}

// String renders the command as a single shell-quoted line, prefixed by any
// environment overrides.
func (c *Command) String() string {
	parts := make([]string, 0, len(c.Env)+len(c.Args)+1)
	for _, kv := range c.Env {
		parts = append(parts, shellQuote(kv))
	}
	for _, arg := range c.Argv() {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

// Filters returns the fragments of every applied filter step in order.
func (c *Command) Filters() []string {
	out := make([]string, 0, len(c.Steps))
	for _, s := range c.Steps {
		out = append(out, s.Fragment)
	}
	return out
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`;&|<>()[]*?!#~{}") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

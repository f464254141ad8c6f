// Package cmd holds the one-shot CLI subcommands. They log to stderr so
// stdout carries only the command's result.
package cmd

import (
	"encoding/json"
	"io"
	"time"

	"github.com/smazurov/playoutnode/internal/ffmpeg"
	"github.com/smazurov/playoutnode/internal/hardware"
	"github.com/smazurov/playoutnode/internal/logging"
	"github.com/smazurov/playoutnode/internal/process"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// deps are the process and filesystem seams shared by the subcommands.
type deps struct {
	runner process.Runner
	fs     afero.Fs
	// platform pins hardware detection; empty detects the host.
	platform string
}

func defaultDeps() deps {
	return deps{runner: process.Exec{}, fs: afero.NewOsFs()}
}

func (d deps) detector(timeout time.Duration) *hardware.Detector {
	det := hardware.NewDetector()
	det.Runner = d.runner
	det.Platform = d.platform
	if timeout > 0 {
		det.Timeout = timeout
	}
	return det
}

func (d deps) prober(timeout time.Duration) *ffmpeg.Prober {
	p := ffmpeg.NewProber()
	p.Runner = d.runner
	p.Fs = d.fs
	if timeout > 0 {
		p.Timeout = timeout
	}
	return p
}

// cliFlags are the logging flags every subcommand accepts.
type cliFlags struct {
	logLevel string
	logJSON  bool
	asJSON   bool
}

func (f *cliFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.logLevel, "log-level", "warn", "Logging level (debug, info, warn, error)")
	c.Flags().BoolVar(&f.logJSON, "log-json", false, "Use JSON log format")
	c.Flags().BoolVar(&f.asJSON, "json", false, "Print the result as JSON")
}

func (f *cliFlags) initLogging() {
	cfg := logging.Config{Level: f.logLevel, Format: "text", Output: "stderr"}
	if f.logJSON {
		cfg.Format = "json"
	}
	logging.Initialize(cfg)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

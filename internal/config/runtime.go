package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/playoutnode/internal/logging"
)

// Runtime holds the settings that can change while the service runs.
type Runtime struct {
	Hardware HardwareSettings `toml:"hardware"`
	Channels ChannelSettings  `toml:"channels"`
	Logging  logging.Config   `toml:"-"`
}

// HardwareSettings selects the ffmpeg binary and backend override. ffprobe
// is looked up next to ffmpeg.
type HardwareSettings struct {
	FFmpegPath string `toml:"ffmpeg_path"`
	Override   string `toml:"override"`
}

// ChannelSettings points at the channel profiles file.
type ChannelSettings struct {
	ConfigFile string `toml:"config_file"`
}

// LoadRuntime reads the reloadable sections of the service config file.
// Unlike LoadLoggingConfig, a malformed file is an error so a bad edit never
// replaces working settings.
func LoadRuntime(path string) (Runtime, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Runtime{}, fmt.Errorf("failed to read config: %w", err)
	}

	var rt Runtime
	if err := toml.Unmarshal(data, &rt); err != nil {
		return Runtime{}, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	rt.Logging = LoadLoggingConfig(path)
	return rt, nil
}


package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/playoutnode/cmd"
	"github.com/smazurov/playoutnode/internal/api"
	"github.com/smazurov/playoutnode/internal/channels"
	"github.com/smazurov/playoutnode/internal/config"
	"github.com/smazurov/playoutnode/internal/events"
	"github.com/smazurov/playoutnode/internal/ffmpeg"
	"github.com/smazurov/playoutnode/internal/hardware"
	"github.com/smazurov/playoutnode/internal/logging"
	"github.com/smazurov/playoutnode/internal/metrics/exporters"
	"github.com/smazurov/playoutnode/internal/types"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port       string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`
	CORSOrigin string `help:"Allowed CORS origin" default:"*" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`

	// Channel settings
	ChannelsConfigFile string `help:"Channel profiles file" default:"channels.toml" toml:"channels.config_file" env:"CHANNELS_CONFIG_FILE"`

	// Hardware settings
	FfmpegPath    string `help:"Path to the ffmpeg binary" default:"ffmpeg" toml:"hardware.ffmpeg_path" env:"HARDWARE_FFMPEG_PATH"`
	Hardware      string `help:"Backend override (auto, none, nvenc, qsv, vaapi, ...)" default:"auto" toml:"hardware.override" env:"HARDWARE_OVERRIDE"`
	DetectTimeout string `help:"Hardware detection timeout" default:"5s" toml:"hardware.detect_timeout" env:"HARDWARE_DETECT_TIMEOUT"`
	ProbeTimeout  string `help:"ffprobe timeout" default:"30s" toml:"hardware.probe_timeout" env:"HARDWARE_PROBE_TIMEOUT"`

	// Default output for previews without output settings
	OutputWidth        int    `help:"Default output width" default:"1920" toml:"output.width" env:"OUTPUT_WIDTH"`
	OutputHeight       int    `help:"Default output height" default:"1080" toml:"output.height" env:"OUTPUT_HEIGHT"`
	OutputVideoCodec   string `help:"Default video codec" default:"h264" toml:"output.video_codec" env:"OUTPUT_VIDEO_CODEC"`
	OutputAudioCodec   string `help:"Default audio codec" default:"aac" toml:"output.audio_codec" env:"OUTPUT_AUDIO_CODEC"`
	OutputVideoBitrate int    `help:"Default video bitrate in kbps" default:"4000" toml:"output.video_bitrate" env:"OUTPUT_VIDEO_BITRATE"`
	OutputAudioBitrate int    `help:"Default audio bitrate in kbps" default:"192" toml:"output.audio_bitrate" env:"OUTPUT_AUDIO_BITRATE"`
	OutputFormat       string `help:"Default container" default:"mpegts" toml:"output.format" env:"OUTPUT_FORMAT"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingHardware string `help:"Hardware detection logging level" default:"info" toml:"logging.hardware" env:"LOGGING_HARDWARE"`
	LoggingPipeline string `help:"Pipeline builder logging level" default:"info" toml:"logging.pipeline" env:"LOGGING_PIPELINE"`
	LoggingProbe    string `help:"Probe logging level" default:"info" toml:"logging.probe" env:"LOGGING_PROBE"`
	LoggingChannels string `help:"Channel profiles logging level" default:"info" toml:"logging.channels" env:"LOGGING_CHANNELS"`
	LoggingAPI      string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"hardware": o.LoggingHardware,
			"pipeline": o.LoggingPipeline,
			"probe":    o.LoggingProbe,
			"channels": o.LoggingChannels,
			"api":      o.LoggingAPI,
			"http":     o.LoggingAPI,
		},
	}
}

func (o *Options) defaultOutput() types.OutputSettings {
	return types.OutputSettings{
		Width:        o.OutputWidth,
		Height:       o.OutputHeight,
		VideoCodec:   o.OutputVideoCodec,
		AudioCodec:   o.OutputAudioCodec,
		VideoBitrate: o.OutputVideoBitrate,
		AudioBitrate: o.OutputAudioBitrate,
		Format:       types.OutputFormat(o.OutputFormat),
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		eventBus := events.New()

		detector := hardware.NewDetector()
		detector.Timeout = parseDuration(opts.DetectTimeout, hardware.DefaultTimeout)
		hwCache := hardware.NewCache(detector, opts.FfmpegPath, opts.Hardware, eventBus)

		prober := ffmpeg.NewProber()
		prober.Timeout = parseDuration(opts.ProbeTimeout, ffmpeg.DefaultProbeTimeout)

		channelStore := channels.NewStore(opts.ChannelsConfigFile, nil, eventBus)
		if loadErr := channelStore.Load(); loadErr != nil {
			logger.Warn("Failed to load channel profiles", "error", loadErr)
		}

		server := api.NewServer(&api.Options{
			AuthUsername:   opts.AuthUsername,
			AuthPassword:   opts.AuthPassword,
			CORSOrigin:     opts.CORSOrigin,
			Hardware:       hwCache,
			Builder:        ffmpeg.NewBuilder(hwCache, eventBus),
			Prober:         prober,
			Channels:       channelStore,
			EventBus:       eventBus,
			DefaultOutput:  opts.defaultOutput(),
			MetricsHandler: exporters.HTTPHandler(),
		})

		// Runtime settings follow edits to the service config file.
		configWatcher := config.NewConfigWatcher(opts.Config, config.LoadRuntime, nil)
		configWatcher.OnReload(func(rt config.Runtime) {
			logging.Initialize(rt.Logging)

			ffmpegPath, override := hwCache.Settings()
			if rt.Hardware.FFmpegPath != "" {
				ffmpegPath = rt.Hardware.FFmpegPath
			}
			if rt.Hardware.Override != "" {
				override = rt.Hardware.Override
			}
			hwCache.Configure(ffmpegPath, override)
			hwCache.Refresh(context.Background())

			if rt.Channels.ConfigFile != "" && rt.Channels.ConfigFile != channelStore.Path() {
				logger.Warn("Channel file changes take effect after restart",
					"current", channelStore.Path(), "configured", rt.Channels.ConfigFile)
			}
		})

		channelWatcher := config.NewConfigWatcher(channelStore.Path(), func(string) (int, error) {
			if err := channelStore.Load(); err != nil {
				return 0, err
			}
			return len(channelStore.IDs()), nil
		}, logging.GetLogger("channels"))

		hooks.OnStart(func() {
			caps := hwCache.Refresh(context.Background())
			logger.Info("Hardware detected",
				"preferred", caps.Preferred,
				"available", caps.AvailableNames())

			if _, statErr := os.Stat(opts.Config); statErr == nil {
				if startErr := configWatcher.Start(); startErr != nil {
					logger.Warn("Failed to watch config file", "path", opts.Config, "error", startErr)
				}
			}
			if startErr := channelWatcher.Start(); startErr != nil {
				logger.Warn("Failed to watch channel file", "path", channelStore.Path(), "error", startErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			if stopErr := configWatcher.Stop(); stopErr != nil {
				logger.Debug("Error stopping config watcher", "error", stopErr)
			}
			if stopErr := channelWatcher.Stop(); stopErr != nil {
				logger.Debug("Error stopping channel watcher", "error", stopErr)
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateDetectCmd())
	cli.Root().AddCommand(cmd.CreateProbeCmd())
	cli.Root().AddCommand(cmd.CreateBuildCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}

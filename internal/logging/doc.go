// Package logging configures log/slog for the service with one logger per
// module.
//
// Call Initialize at startup, and again whenever the configuration file is
// reloaded. Loggers returned by GetLogger stay valid across calls: each
// module's level is a slog.LevelVar and records are forwarded to whichever
// handler the latest Initialize installed.
//
//	logging.Initialize(logging.Config{
//		Level:   "info",
//		Format:  "json",
//		Modules: map[string]string{"hardware": "debug"},
//	})
//	logger := logging.GetLogger("pipeline").With("channel_id", "news")
//	logger.Info("Pipeline built", "encoder", "h264_nvenc")
//
// Records go to stdout (or stderr when Output is "stderr") and, when
// journald is listening, to the systemd journal with identifier
// playoutnode. Attributes become journal fields:
//
//	journalctl -t playoutnode MODULE=hardware
//	journalctl -t playoutnode CHANNEL_ID=news -p warning
//
// TOML form:
//
//	[logging]
//	level = "info"
//	format = "text"
//	hardware = "debug"
//	probe = "warn"
package logging

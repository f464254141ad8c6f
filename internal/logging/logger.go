package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger is satisfied by *slog.Logger. Packages that accept an injected
// logger depend on this instead of the concrete type.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config selects the level, format and destination of log output.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"` // text (default) or json
	Output  string            `toml:"output"` // stdout (default) or stderr
	Modules map[string]string `toml:"modules"`

	// Writer replaces Output and disables the journal when set.
	Writer io.Writer `toml:"-"`
}

var (
	mu      sync.Mutex
	current Config
	ready   bool
	levels  = make(map[string]*slog.LevelVar)
	loggers = make(map[string]*slog.Logger)
	root    = &slog.LevelVar{}
	out     = &sink{}
)

// Initialize applies cfg. It may be called again at runtime: loggers
// already handed out keep working and pick up the new levels, format and
// destination.
func Initialize(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	current = cfg
	ready = true

	root.Set(levelOr(cfg.Level, slog.LevelInfo))
	for name, lv := range levels {
		lv.Set(moduleLevel(cfg, name))
	}

	out.set(newBaseHandler(cfg))
	slog.SetDefault(slog.New(&liveHandler{sink: out, level: root}))
}

// GetLogger returns the logger of module, creating it on first use. Before
// Initialize it logs text at info level to stdout.
func GetLogger(module string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[module]; ok {
		return l
	}

	lv := &slog.LevelVar{}
	lv.Set(slog.LevelInfo)
	if ready {
		lv.Set(moduleLevel(current, module))
	}

	l := slog.New(&liveHandler{sink: out, level: lv}).With("module", module)
	levels[module] = lv
	loggers[module] = l
	return l
}

func moduleLevel(cfg Config, module string) slog.Level {
	base := levelOr(cfg.Level, slog.LevelInfo)
	if s, ok := cfg.Modules[module]; ok {
		return levelOr(s, base)
	}
	return base
}

// newBaseHandler builds the unfiltered handler every module writes through.
// Level filtering happens in liveHandler.
func newBaseHandler(cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.Level(-8)}

	w := cfg.Writer
	if w == nil {
		w = outputFile(cfg.Output)
	}
	var stream slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		stream = slog.NewJSONHandler(w, opts)
	} else {
		stream = slog.NewTextHandler(w, opts)
	}

	if cfg.Writer != nil {
		return stream
	}

	var handlers fanout
	if f, ok := w.(*os.File); !ok || isStreamAvailable(f) {
		handlers = append(handlers, stream)
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(opts.Level))
	}
	switch len(handlers) {
	case 0:
		return stream
	case 1:
		return handlers[0]
	default:
		return handlers
	}
}

func outputFile(name string) *os.File {
	if strings.EqualFold(name, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

// isStreamAvailable reports whether f is a terminal, pipe, socket or regular
// file. /dev/null is a device and does not count.
func isStreamAvailable(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&(os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0 || mode.IsRegular()
}

func levelOr(s string, fallback slog.Level) slog.Level {
	if l, ok := parseLevel(s); ok {
		return l
	}
	return fallback
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

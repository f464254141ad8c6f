package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
)

// reset forgets every module logger and the installed handler.
func reset(t *testing.T) {
	t.Helper()
	mu.Lock()
	current = Config{}
	ready = false
	levels = make(map[string]*slog.LevelVar)
	loggers = make(map[string]*slog.Logger)
	out = &sink{}
	mu.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	reset(t)
	Initialize(Config{
		Level:  "info",
		Writer: &bytes.Buffer{},
		Modules: map[string]string{
			"pipeline": "debug",
			"api":      "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"pipeline", true, true, true},
		{"api", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			h := GetLogger(tt.module).Handler()
			ctx := context.Background()
			if got := h.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("Debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := h.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("Info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := h.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("Warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestOutputCarriesModule(t *testing.T) {
	reset(t)
	var buf bytes.Buffer
	Initialize(Config{Level: "debug", Writer: &buf})

	GetLogger("hardware").Debug("listing encoders", "ffmpeg", "/usr/bin/ffmpeg")

	got := buf.String()
	for _, want := range []string{"level=DEBUG", "module=hardware", "listing encoders", "ffmpeg=/usr/bin/ffmpeg"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %s", want, got)
		}
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	reset(t)

	before := GetLogger("hardware")
	if before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger created before Initialize should default to info")
	}

	var buf bytes.Buffer
	Initialize(Config{Level: "info", Writer: &buf, Modules: map[string]string{"hardware": "debug"}})

	if !before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("earlier logger should follow the new module level")
	}
	if GetLogger("hardware") != before {
		t.Error("GetLogger should return the cached logger")
	}

	before.Debug("after init")
	if !strings.Contains(buf.String(), "after init") {
		t.Errorf("earlier logger should write to the new destination, got %q", buf.String())
	}
}

func TestReinitializeSwitchesFormat(t *testing.T) {
	reset(t)
	var text, js bytes.Buffer
	Initialize(Config{Writer: &text})

	logger := GetLogger("channels").With("path", "channels.toml")
	grouped := logger.WithGroup("reload")

	logger.Info("loaded")
	Initialize(Config{Format: "json", Writer: &js})
	grouped.Info("loaded again", "count", 3)

	if !strings.Contains(text.String(), "path=channels.toml") {
		t.Errorf("text output missing attrs: %s", text.String())
	}

	var rec map[string]any
	if err := json.Unmarshal(js.Bytes(), &rec); err != nil {
		t.Fatalf("json output not decodable: %v (%s)", err, js.String())
	}
	if rec["module"] != "channels" || rec["path"] != "channels.toml" {
		t.Errorf("attrs lost across reinitialize: %v", rec)
	}
	group, ok := rec["reload"].(map[string]any)
	if !ok || group["count"] != float64(3) {
		t.Errorf("group lost across reinitialize: %v", rec)
	}
}

func TestConcurrentLogging(t *testing.T) {
	reset(t)
	Initialize(Config{Writer: &syncBuffer{}})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := GetLogger("pipeline")
			for range 50 {
				l.Info("built", "worker", i)
			}
		}()
	}
	for range 5 {
		Initialize(Config{Level: "debug", Writer: &syncBuffer{}})
	}
	wg.Wait()
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func TestFanoutWritesOncePerHandler(t *testing.T) {
	var buf bytes.Buffer
	debug := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	info := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(fanout{debug, info}).With("module", "test")
	logger.Debug("debug only")
	logger.Info("both")

	if n := strings.Count(buf.String(), "debug only"); n != 1 {
		t.Errorf("debug record written %d times, want 1", n)
	}
	if n := strings.Count(buf.String(), "both"); n != 2 {
		t.Errorf("info record written %d times, want 2", n)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"DEBUG", slog.LevelDebug, true},
		{" info ", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"invalid", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseLevel(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("parseLevel(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestOutputFile(t *testing.T) {
	if outputFile("stderr") != os.Stderr {
		t.Error("stderr output should map to os.Stderr")
	}
	if outputFile("STDERR") != os.Stderr {
		t.Error("output name should be case insensitive")
	}
	if outputFile("") != os.Stdout {
		t.Error("empty output should default to os.Stdout")
	}
}

func TestJournalFields(t *testing.T) {
	fields := make(map[string]string)

	addAttrToFields(fields, slog.String("module", "hardware"), "")
	addAttrToFields(fields, slog.Int("exit_code", 3), "")
	addAttrToFields(fields, slog.Group("caps", slog.String("preferred", "vaapi")), "")
	addAttrToFields(fields, slog.Bool("failed", true), "DETECT_")
	addAttrToFields(fields, slog.String("channel-id", "news"), "")
	addAttrToFields(fields, slog.Group("", slog.String("inline", "yes")), "")

	want := map[string]string{
		"MODULE":         "hardware",
		"EXIT_CODE":      "3",
		"CAPS_PREFERRED": "vaapi",
		"DETECT_FAILED":  "true",
		"CHANNEL_ID":     "news",
		"INLINE":         "yes",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("fields[%s] = %q, want %q", k, fields[k], v)
		}
	}
}

func TestJournalHandlerAttrsAndGroups(t *testing.T) {
	h := NewJournalHandler(slog.LevelInfo)
	withAttrs := h.WithAttrs([]slog.Attr{slog.String("module", "probe")}).(*JournalHandler)
	grouped := withAttrs.WithGroup("source").(*JournalHandler)

	if withAttrs.fields["MODULE"] != "probe" {
		t.Errorf("WithAttrs fields = %v", withAttrs.fields)
	}
	if grouped.prefix != "SOURCE_" {
		t.Errorf("group prefix = %q, want SOURCE_", grouped.prefix)
	}
	if len(h.fields) != 0 {
		t.Error("WithAttrs must not modify the parent handler")
	}
}

func TestJournalHandlerLevel(t *testing.T) {
	lv := &slog.LevelVar{}
	lv.Set(slog.LevelWarn)
	h := NewJournalHandler(lv)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	lv.Set(slog.LevelDebug)
	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("handler should follow LevelVar changes")
	}
}

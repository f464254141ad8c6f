package channels

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"github.com/smazurov/playoutnode/internal/events"
	"github.com/smazurov/playoutnode/internal/ffmpeg"
	"github.com/smazurov/playoutnode/internal/types"
)

const channelsTOML = `
version = 1

[channels.news]
name = "News 24"
width = 1280
height = 720
video_bitrate = 3000
hardware = "vaapi"
format = "hls"
input_options = ["genpts", "thread_queue_4096"]

[channels.news.hls]
playlist_path = "/var/hls/news.m3u8"
segment_seconds = 6

[channels.movies]
name = "Movies"
video_codec = "hevc"
normalize_audio = true
`

// setupTestStore creates a store backed by an in-memory filesystem.
func setupTestStore(t *testing.T, content string) (*Store, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	if content != "" {
		if err := afero.WriteFile(fs, "/etc/playoutnode/channels.toml", []byte(content), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	return NewStore("/etc/playoutnode/channels.toml", fs, nil), fs
}

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore("", nil, nil)
	if s.Path() != DefaultPath {
		t.Errorf("expected default path %q, got %q", DefaultPath, s.Path())
	}
	if len(s.List()) != 0 {
		t.Errorf("new store should be empty, got %d profiles", len(s.List()))
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	s, _ := setupTestStore(t, "")

	if err := s.Load(); err != nil {
		t.Errorf("Load should not error on non-existent file, got: %v", err)
	}
	if len(s.IDs()) != 0 {
		t.Errorf("expected no channels, got %v", s.IDs())
	}
}

func TestLoadProfiles(t *testing.T) {
	s, _ := setupTestStore(t, channelsTOML)

	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ids := s.IDs()
	if len(ids) != 2 || ids[0] != "movies" || ids[1] != "news" {
		t.Fatalf("expected [movies news], got %v", ids)
	}

	news, ok := s.Get("news")
	if !ok {
		t.Fatal("news not found after load")
	}
	if news.ID != "news" {
		t.Errorf("ID should come from the table key, got %q", news.ID)
	}
	if news.Width != 1280 || news.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", news.Width, news.Height)
	}
	if news.HLS == nil || news.HLS.SegmentSeconds != 6 {
		t.Errorf("expected hls segment seconds 6, got %+v", news.HLS)
	}
	if len(news.InputOptions) != 2 || news.InputOptions[1] != ffmpeg.OptionThreadQueue4096 {
		t.Errorf("unexpected input options %v", news.InputOptions)
	}

	movies, _ := s.Get("movies")
	if movies.NormalizeAudio == nil || !*movies.NormalizeAudio {
		t.Error("movies should enable audio normalization")
	}
}

func TestLoadInvalidKeepsPrevious(t *testing.T) {
	s, fs := setupTestStore(t, channelsTOML)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"malformed toml", "[channels.news\nwidth = ", nil},
		{"unknown hardware", "[channels.news]\nhardware = \"voodoo\"\n", ErrInvalidChannel},
		{"conflicting options", "[channels.news]\ninput_options = [\"thread_queue_1024\", \"thread_queue_4096\"]\n", ErrInvalidChannel},
		{"half a resolution", "[channels.news]\nwidth = 1280\n", ErrInvalidChannel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := afero.WriteFile(fs, s.Path(), []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write fixture: %v", err)
			}
			err := s.Load()
			if err == nil {
				t.Fatal("expected load error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if len(s.IDs()) != 2 {
				t.Errorf("previous profiles should stay loaded, got %v", s.IDs())
			}
		})
	}
}

func TestLoadPublishesEvent(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "channels.toml", []byte(channelsTOML), 0o644)
	bus := events.New()
	s := NewStore("channels.toml", fs, bus)

	var mu sync.Mutex
	var got []events.ChannelsReloadedEvent
	done := make(chan struct{}, 2)
	unsub := bus.Subscribe(func(e events.ChannelsReloadedEvent) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
		done <- struct{}{}
	})
	defer unsub()

	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	<-done

	_ = afero.WriteFile(fs, "channels.toml", []byte("not = [toml"), 0o644)
	_ = s.Load()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if len(got[0].Channels) != 2 || got[0].Error != "" {
		t.Errorf("unexpected first event %+v", got[0])
	}
	if got[1].Error == "" {
		t.Error("failed reload should carry the error")
	}
}

func TestPutAndRemovePersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "channels.toml")
	s := NewStore(path, afero.NewOsFs(), nil)

	profile := Profile{ID: "sports", Name: "Sports", Width: 1920, Height: 1080, Format: types.FormatMPEGTS}
	if err := s.Put(profile); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	reloaded := NewStore(path, afero.NewOsFs(), nil)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, ok := reloaded.Get("sports")
	if !ok {
		t.Fatal("profile was not persisted")
	}
	if got.Name != "Sports" || got.Width != 1920 {
		t.Errorf("unexpected persisted profile %+v", got)
	}

	if err := s.Remove("sports"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := s.Remove("sports"); !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("expected ErrChannelNotFound, got %v", err)
	}
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := reloaded.Get("sports"); ok {
		t.Error("removal was not persisted")
	}

	if err := s.Put(Profile{}); !errors.Is(err, ErrInvalidChannel) {
		t.Errorf("expected ErrInvalidChannel for empty id, got %v", err)
	}
}

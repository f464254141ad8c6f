package channels

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/playoutnode/internal/events"
	"github.com/smazurov/playoutnode/internal/logging"
	"github.com/spf13/afero"
)

// DefaultPath is used when no channel file is configured.
const DefaultPath = "channels.toml"

// file is the on-disk layout of the channel profiles.
type file struct {
	Version  int                `toml:"version" json:"version"`
	Channels map[string]Profile `toml:"channels" json:"channels"`
}

// Store keeps channel profiles loaded from a TOML file. A failed reload
// keeps the previously loaded profiles.
type Store struct {
	path   string
	fs     afero.Fs
	bus    *events.Bus
	logger logging.Logger

	mu     sync.RWMutex
	config *file
}

// NewStore creates a store for path on fs. A nil fs uses the OS filesystem.
func NewStore(path string, fs afero.Fs, bus *events.Bus) *Store {
	if path == "" {
		path = DefaultPath
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{
		path:   path,
		fs:     fs,
		bus:    bus,
		logger: logging.GetLogger("channels"),
		config: emptyFile(),
	}
}

func emptyFile() *file {
	return &file{Version: 1, Channels: make(map[string]Profile)}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the channel file. A missing file yields no channels. Every
// load, successful or not, is published as a ChannelsReloadedEvent.
func (s *Store) Load() error {
	next, err := s.read()
	if err != nil {
		s.logger.Error("Failed to load channel profiles", "path", s.path, "error", err)
		s.publish(err)
		return err
	}

	s.mu.Lock()
	s.config = next
	s.mu.Unlock()

	s.logger.Info("Loaded channel profiles", "path", s.path, "count", len(next.Channels))
	s.publish(nil)
	return nil
}

func (s *Store) read() (*file, error) {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat channel config: %w", err)
	}
	if !exists {
		return emptyFile(), nil
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read channel config: %w", err)
	}

	cfg := emptyFile()
	if unmarshalErr := toml.Unmarshal(data, cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse channel config: %w", unmarshalErr)
	}
	if cfg.Channels == nil {
		cfg.Channels = make(map[string]Profile)
	}
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	// The table key is the identifier.
	for key, p := range cfg.Channels {
		p.ID = key
		if err := p.Validate(); err != nil {
			return nil, err
		}
		cfg.Channels[key] = p
	}
	return cfg, nil
}

// Save writes the current profiles to the backing file.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := toml.Marshal(s.config)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal channel config: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if writeErr := afero.WriteFile(s.fs, s.path, data, 0o644); writeErr != nil {
		return fmt.Errorf("failed to write channel config: %w", writeErr)
	}
	return nil
}

// Get returns the profile with id.
func (s *Store) Get(id string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.config.Channels[id]
	return p, ok
}

// List returns all profiles sorted by identifier.
func (s *Store) List() []Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Profile, 0, len(s.config.Channels))
	for _, p := range s.config.Channels {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns the sorted channel identifiers.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.config.Channels))
	for id := range s.config.Channels {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Put validates and stores p, then saves the file.
func (s *Store) Put(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.config.Channels[p.ID] = p
	s.mu.Unlock()
	return s.Save()
}

// Remove deletes the profile with id, then saves the file.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	if _, ok := s.config.Channels[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrChannelNotFound, id)
	}
	delete(s.config.Channels, id)
	s.mu.Unlock()
	return s.Save()
}

func (s *Store) publish(err error) {
	ev := events.ChannelsReloadedEvent{
		Channels:  s.IDs(),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.bus.Publish(ev)
}

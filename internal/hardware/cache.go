package hardware

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smazurov/playoutnode/internal/events"
	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// Cache holds the process-wide capability inventory. Readers never block;
// refreshes are deduplicated.
type Cache struct {
	detector *Detector
	bus      *events.Bus

	mu         sync.Mutex // guards ffmpegPath and override
	ffmpegPath string
	override   string

	current atomic.Pointer[Capabilities]
	group   singleflight.Group
}

// NewCache creates a cache that detects with d. bus may be nil.
func NewCache(d *Detector, ffmpegPath, override string, bus *events.Bus) *Cache {
	if d == nil {
		d = NewDetector()
	}
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpegPath
	}
	return &Cache{
		detector:   d,
		bus:        bus,
		ffmpegPath: ffmpegPath,
		override:   override,
	}
}

// Get returns the last published inventory, or a software-only inventory
// before the first detection.
func (c *Cache) Get() *Capabilities {
	if caps := c.current.Load(); caps != nil {
		return caps
	}
	c.mu.Lock()
	path := c.ffmpegPath
	c.mu.Unlock()
	return SoftwareOnlyCapabilities(path, runtime.GOOS)
}

// Detected reports whether a detection has completed.
func (c *Cache) Detected() bool {
	return c.current.Load() != nil
}

// Configure changes the binary or override used by the next Refresh.
func (c *Cache) Configure(ffmpegPath, override string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ffmpegPath != "" {
		c.ffmpegPath = ffmpegPath
	}
	c.override = override
}

// Settings returns the binary and override the next Refresh will use.
func (c *Cache) Settings() (ffmpegPath, override string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ffmpegPath, c.override
}

// Refresh runs detection and publishes the result. Concurrent callers share
// one run and receive the same inventory.
func (c *Cache) Refresh(ctx context.Context) *Capabilities {
	v, _, _ := c.group.Do("detect", func() (any, error) {
		c.mu.Lock()
		path, override := c.ffmpegPath, c.override
		c.mu.Unlock()

		start := time.Now()
		caps := c.detector.Detect(ctx, path, override)
		c.current.Store(caps)
		c.publish(caps, time.Since(start))
		return caps, nil
	})
	return v.(*Capabilities)
}

func (c *Cache) publish(caps *Capabilities, elapsed time.Duration) {
	known := make([]string, len(state.AllHardwareAccels))
	for i, a := range state.AllHardwareAccels {
		known[i] = string(a)
	}
	metrics.SetHardwareInventory(known, caps.AvailableNames(), string(caps.Preferred))

	c.bus.Publish(events.CapabilitiesDetectedEvent{
		Available: caps.AvailableNames(),
		Preferred: string(caps.Preferred),
		Platform:  caps.Platform,
		Failed:    caps.Error != "",
		Error:     caps.Error,
		Duration:  elapsed.Round(time.Millisecond).String(),
		Timestamp: caps.DetectedAt.Format(time.RFC3339),
	})
}

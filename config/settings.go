package config

import (
	"sync"
	"time"
)

// Settings holds every knob the shipper reads. All fields have static
// defaults, so an unconfigured store is always usable.
type Settings struct {
	LokiURL              string
	LokiEnabled          bool
	IsDevelopment        bool
	FlushInterval        time.Duration
	MaxBufferSize        int
	JobLabel             string
	ContainerLabel       string
	Environment          string
	ServiceLabel         string
	RegisterShutdownHook bool
}

func Defaults() Settings {
	return Settings{
		LokiURL:              "http://localhost:3100",
		LokiEnabled:          false,
		IsDevelopment:        false,
		FlushInterval:        1000 * time.Millisecond,
		MaxBufferSize:        100,
		JobLabel:             "accessibility",
		ContainerLabel:       "stonewall-sveltekit",
		Environment:          "development",
		ServiceLabel:         "a11y-monitoring",
		RegisterShutdownHook: true,
	}
}

// Override is a partial Settings: nil fields leave the current value alone.
type Override struct {
	LokiURL              *string
	LokiEnabled          *bool
	IsDevelopment        *bool
	FlushInterval        *time.Duration
	MaxBufferSize        *int
	JobLabel             *string
	ContainerLabel       *string
	Environment          *string
	ServiceLabel         *string
	RegisterShutdownHook *bool
}

// Store is the mutable settings holder shared between the host application
// (which configures it) and the shipper (which only reads snapshots). The
// shipper takes a fresh Snapshot at every decision point so overrides applied
// between calls take effect immediately.
type Store struct {
	mu      sync.RWMutex
	current Settings
}

// NewStore returns a store seeded with the static defaults.
func NewStore() *Store {
	return &Store{current: Defaults()}
}

// NewStoreFrom returns a store seeded with the given settings.
func NewStoreFrom(s Settings) *Store {
	return &Store{current: s}
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Apply merges the non-nil fields of the override into the current settings.
func (s *Store) Apply(o Override) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.LokiURL != nil {
		s.current.LokiURL = *o.LokiURL
	}
	if o.LokiEnabled != nil {
		s.current.LokiEnabled = *o.LokiEnabled
	}
	if o.IsDevelopment != nil {
		s.current.IsDevelopment = *o.IsDevelopment
	}
	if o.FlushInterval != nil {
		s.current.FlushInterval = *o.FlushInterval
	}
	if o.MaxBufferSize != nil {
		s.current.MaxBufferSize = *o.MaxBufferSize
	}
	if o.JobLabel != nil {
		s.current.JobLabel = *o.JobLabel
	}
	if o.ContainerLabel != nil {
		s.current.ContainerLabel = *o.ContainerLabel
	}
	if o.Environment != nil {
		s.current.Environment = *o.Environment
	}
	if o.ServiceLabel != nil {
		s.current.ServiceLabel = *o.ServiceLabel
	}
	if o.RegisterShutdownHook != nil {
		s.current.RegisterShutdownHook = *o.RegisterShutdownHook
	}
}

// Reset restores the static defaults.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Defaults()
}

// Load resolves initial settings with precedence config file -> environment
// variable -> default, then wraps them in a store. A missing or unreadable
// config file is not an error; resolution falls through to env and defaults.
func Load(configPath string) *Store {
	r := NewResolver(configPath)

	return NewStoreFrom(Settings{
		LokiURL:              r.GetString("loki.url", "A11Y_LOKI_URL", "http://localhost:3100"),
		LokiEnabled:          r.GetBool("loki.enabled", "A11Y_LOKI_ENABLED", false),
		IsDevelopment:        r.GetBool("development", "A11Y_DEVELOPMENT", false),
		FlushInterval:        time.Duration(r.GetInt("buffer.flush_interval_ms", "A11Y_FLUSH_INTERVAL_MS", 1000)) * time.Millisecond,
		MaxBufferSize:        r.GetInt("buffer.max_size", "A11Y_MAX_BUFFER_SIZE", 100),
		JobLabel:             r.GetString("labels.job", "A11Y_JOB_LABEL", "accessibility"),
		ContainerLabel:       r.GetString("labels.container", "A11Y_CONTAINER_LABEL", "stonewall-sveltekit"),
		Environment:          r.GetString("labels.environment", "A11Y_ENVIRONMENT", "development"),
		ServiceLabel:         r.GetString("labels.service", "A11Y_SERVICE_LABEL", "a11y-monitoring"),
		RegisterShutdownHook: r.GetBool("register_shutdown_hook", "A11Y_REGISTER_SHUTDOWN_HOOK", true),
	})
}

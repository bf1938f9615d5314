// Package config implements the global configuration owner for streamcore,
// shaped after the teacher's cmn.GCO / globalConfigOwner: an immutable
// snapshot replaced wholesale behind an atomic pointer, never mutated
// in place.
package config

import (
	"fmt"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/atomic"
)

// StreamingMode controls how aggressively the processing graph drains
// queued commands per tick (spec §6).
type StreamingMode string

const (
	// ModeMinimumImpact drains at most one command per tick.
	ModeMinimumImpact StreamingMode = "minimum-impact"
	// ModeBounded drains until MainThreadTimeLimitMS is exceeded.
	ModeBounded StreamingMode = "bounded"
	// ModeHurried drains until idle, ignoring the time budget.
	ModeHurried StreamingMode = "hurried"
)

// Config is the full set of tunables named in spec §6. Treated as
// immutable once published via Owner.Update.
type Config struct {
	StreamingMode                     StreamingMode `json:"streaming_mode"`
	MainThreadTimeLimitMS             float64       `json:"main_thread_time_limit_ms"`
	MaximumSimultaneousContentRequests int          `json:"maximum_simultaneous_content_requests"`
	PlanetRadiusMeters                 float64      `json:"planet_radius_meters"`
	// MaximumScreenSpaceError is the threshold the target-state controller
	// (spec §4.G) compares a node's projected error against; exceeding it
	// expands the node.
	MaximumScreenSpaceError float64 `json:"maximum_screen_space_error"`
}

// Default mirrors the defaults named in spec §6: 10ms tick budget,
// "bounded" mode, and WGS84's equatorial (semi-major axis) radius.
func Default() Config {
	return Config{
		StreamingMode:                      ModeBounded,
		MainThreadTimeLimitMS:              10,
		MaximumSimultaneousContentRequests: 6,
		PlanetRadiusMeters:                 6378137.0,
		MaximumScreenSpaceError:            16.0,
	}
}

func (c Config) Validate() error {
	if c.MainThreadTimeLimitMS < 0 {
		return errInvalidConfig("main-thread-time-limit-ms must be >= 0")
	}
	if c.MaximumSimultaneousContentRequests <= 0 {
		return errInvalidConfig("maximum-simultaneous-content-requests must be positive")
	}
	if c.PlanetRadiusMeters <= 0 {
		return errInvalidConfig("planet-radius-meters must be positive")
	}
	if c.MaximumScreenSpaceError <= 0 {
		return errInvalidConfig("maximum-screen-space-error must be positive")
	}
	switch c.StreamingMode {
	case ModeMinimumImpact, ModeBounded, ModeHurried:
	default:
		return errInvalidConfig("unknown streaming-mode %q", c.StreamingMode)
	}
	return nil
}

// Owner is a process-wide holder of the current Config, mirroring the
// teacher's globalConfigOwner (cmn/config.go): a mutex serializes updates,
// an atomic.Pointer lets readers never block on writers.
type Owner struct {
	mtx sync.Mutex
	cur atomic.Pointer[Config]
}

func NewOwner(initial Config) *Owner {
	o := &Owner{}
	cp := initial
	o.cur.Store(&cp)
	return o
}

// Get returns the currently published configuration. Never blocks.
func (o *Owner) Get() Config {
	return *o.cur.Load()
}

// Update validates and atomically publishes a new configuration snapshot.
func (o *Owner) Update(next Config) error {
	if err := next.Validate(); err != nil {
		return err
	}
	o.mtx.Lock()
	defer o.mtx.Unlock()
	cp := next
	o.cur.Store(&cp)
	return nil
}

// MarshalSnapshot serializes the current configuration with the same JSON
// library the teacher uses for its own Config type (cmn/config.go).
func (o *Owner) MarshalSnapshot() ([]byte, error) {
	c := o.Get()
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(c)
}

type configError struct{ msg string }

func (e *configError) Error() string { return e.msg }

func errInvalidConfig(format string, args ...interface{}) error {
	return &configError{msg: fmt.Sprintf(format, args...)}
}

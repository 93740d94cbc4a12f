package detector

import (
	"log/slog"
	"time"
)

const (
	DefaultDebounce  = time.Millisecond
	DefaultMaxPasses = 10
)

type OnErrorFunc func(n *Observer, err error)

// Instrument receives check events for metrics and tracing.
type Instrument interface {
	// StartTreeCheck is called when a traversal starts at a root and returns
	// the function called with the number of nodes checked once it ends.
	StartTreeCheck(rootID uint64) (done func(checked int))
	WatcherFired(nodeID uint64, property string)
	CheckFailed(err *WatchError)
}

type nopInstrument struct{}

func (nopInstrument) StartTreeCheck(uint64) func(int) { return func(int) {} }
func (nopInstrument) WatcherFired(uint64, string)     {}
func (nopInstrument) CheckFailed(*WatchError)         {}

type config struct {
	logger     *slog.Logger
	onError    OnErrorFunc
	async      bool
	debounce   time.Duration
	maxPasses  int
	executor   func(func())
	instrument Instrument
}

type Option func(*config)

func defaultConfig() *config {
	return &config{
		debounce:   DefaultDebounce,
		maxPasses:  DefaultMaxPasses,
		instrument: nopInstrument{},
		executor: func(fn func()) {
			fn()
		},
	}
}

func newConfig(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *config) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithOnError registers a handler called for every caught failure, before it
// is logged.
func WithOnError(fn OnErrorFunc) Option {
	return func(c *config) {
		c.onError = fn
	}
}

// WithAsync sets the scheduling mode used when ScheduleTreeCheck is called
// without options.
func WithAsync(async bool) Option {
	return func(c *config) {
		c.async = async
	}
}

func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithMaxPasses bounds how many times CheckTree re-checks a node that keeps
// marking itself dirty during its own check.
func WithMaxPasses(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxPasses = n
		}
	}
}

// WithExecutor routes deferred traversals through fn, typically a function
// posting work onto the goroutine that owns the UI.
func WithExecutor(fn func(func())) Option {
	return func(c *config) {
		if fn != nil {
			c.executor = fn
		}
	}
}

func WithInstrument(i Instrument) Option {
	return func(c *config) {
		if i != nil {
			c.instrument = i
		}
	}
}

type CheckOptions struct {
	Async bool
}

type CheckOption func(*CheckOptions)

func Async() CheckOption {
	return func(o *CheckOptions) {
		o.Async = true
	}
}

func Sync() CheckOption {
	return func(o *CheckOptions) {
		o.Async = false
	}
}

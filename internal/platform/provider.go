package platform

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Ref is the handle to the currently attached device. Command handlers
// only Load it; the backend that owns the connection is the single writer
// through Attach and Detach. A detach may race with a reader at any time,
// so a nil Load is a normal outcome.
type Ref struct {
	cur atomic.Pointer[holder]

	mu    sync.Mutex
	hooks []func(prev, next Device)
}

type holder struct {
	dev Device
}

// Load returns the attached device, or nil.
func (r *Ref) Load() Device {
	h := r.cur.Load()
	if h == nil {
		return nil
	}
	return h.dev
}

// Active reports whether a device is attached.
func (r *Ref) Active() bool {
	return r.cur.Load() != nil
}

// Attach makes d the current device. Attaching the device that is already
// current is a no-op.
func (r *Ref) Attach(d Device) {
	if d == nil {
		r.Detach()
		return
	}
	r.swap(&holder{dev: d})
}

// Detach clears the current device.
func (r *Ref) Detach() {
	r.swap(nil)
}

func (r *Ref) swap(next *holder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.cur.Load()
	var prevDev, nextDev Device
	if prev != nil {
		prevDev = prev.dev
	}
	if next != nil {
		nextDev = next.dev
	}
	if prevDev == nextDev {
		return
	}
	r.cur.Store(next)
	for _, fn := range r.hooks {
		fn(prevDev, nextDev)
	}
}

// OnChange registers fn to run after every attach or detach, on the
// writer's goroutine.
func (r *Ref) OnChange(fn func(prev, next Device)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// Options configures a backend.
type Options struct {
	Serial       string
	ADBPath      string
	PollInterval time.Duration
	Density      float64
	Logger       *zap.Logger
}

// Backend owns the connection to a device-state provider and keeps a Ref
// up to date with its availability.
type Backend interface {
	// Run attaches and detaches the device on ref until ctx is done.
	Run(ctx context.Context, ref *Ref) error
}

// Factory creates a backend.
type Factory func(opts Options) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend available by name. Backend packages call it
// from init().
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Backends lists the registered backend names.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewBackend creates the named backend.
func NewBackend(name string, opts Options) (Backend, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (registered: %s)", name, strings.Join(Backends(), ", "))
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return f(opts)
}

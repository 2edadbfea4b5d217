// Package overlay shows a short-lived marker where a tap lands.
//
// All state lives on a single loop goroutine. Callers post work to it and
// never wait; timers post back into the loop tagged with the generation
// that armed them, so a timer from an earlier tap does nothing.
package overlay

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mj1618/device-bridge/internal/platform"
	"go.uber.org/zap"
)

// State is the marker lifecycle.
type State int32

const (
	Idle State = iota
	Appearing
	Dismissing
)

func (s State) String() string {
	switch s {
	case Appearing:
		return "appearing"
	case Dismissing:
		return "dismissing"
	default:
		return "idle"
	}
}

// Default marker geometry and timing.
const (
	DefaultSizeDP  = 88
	DefaultAppear  = 120 * time.Millisecond
	DefaultDismiss = 520 * time.Millisecond
	DefaultCeiling = 900 * time.Millisecond
)

var (
	hidden  = platform.Appearance{Alpha: 0, Scale: 0.6}
	shown   = platform.Appearance{Alpha: 1, Scale: 1}
	dropped = platform.Appearance{Alpha: 0, Scale: 1.4}
)

// Options configures an Overlay.
type Options struct {
	SizePx  int
	Appear  time.Duration
	Dismiss time.Duration
	Ceiling time.Duration
	Logger  *zap.Logger
}

// Overlay is the tap-feedback state machine. At most one marker view is
// live at any time.
type Overlay struct {
	opts   Options
	logger *zap.Logger

	events  chan func()
	quit    chan struct{}
	done    chan struct{}
	destroy sync.Once
	state   atomic.Int32

	// loop-owned
	gen    uint64
	view   platform.OverlayView
	timers []*time.Timer
}

// New starts the overlay loop. Call Destroy to stop it.
func New(opts Options) *Overlay {
	if opts.SizePx <= 0 {
		opts.SizePx = DefaultSizeDP
	}
	if opts.Appear <= 0 {
		opts.Appear = DefaultAppear
	}
	if opts.Dismiss <= 0 {
		opts.Dismiss = DefaultDismiss
	}
	if opts.Ceiling <= 0 {
		opts.Ceiling = DefaultCeiling
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Overlay{
		opts:   opts,
		logger: logger.Named("overlay"),
		events: make(chan func(), 16),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go o.run()
	return o
}

// State returns the current lifecycle state.
func (o *Overlay) State() State {
	return State(o.state.Load())
}

// ShowTap replaces any live marker with a new one centred at (x, y) on
// host. It never blocks; when the loop is saturated the tap is not shown.
func (o *Overlay) ShowTap(host platform.OverlayHost, x, y int) {
	ev := func() { o.show(host, x, y) }
	select {
	case <-o.quit:
	case o.events <- ev:
	default:
		o.logger.Debug("overlay busy, skipping tap marker", zap.Int("x", x), zap.Int("y", y))
	}
}

// Clear removes any live marker and returns to Idle. It is used when the
// device that hosts the marker goes away.
func (o *Overlay) Clear() {
	o.post(o.reset)
}

// Destroy stops the loop, removes any live marker and forces Idle. Later
// calls, and later ShowTap calls, do nothing.
func (o *Overlay) Destroy() {
	o.destroy.Do(func() {
		close(o.quit)
		<-o.done
	})
}

func (o *Overlay) run() {
	defer close(o.done)
	for {
		select {
		case fn := <-o.events:
			fn()
		case <-o.quit:
			o.reset()
			return
		}
	}
}

func (o *Overlay) post(fn func()) {
	select {
	case o.events <- fn:
	case <-o.quit:
	}
}

// after arms a timer that runs fn on the loop if no newer tap or reset
// happened in between.
func (o *Overlay) after(d time.Duration, fn func()) {
	gen := o.gen
	t := time.AfterFunc(d, func() {
		o.post(func() {
			if o.gen == gen {
				fn()
			}
		})
	})
	o.timers = append(o.timers, t)
}

func (o *Overlay) show(host platform.OverlayHost, x, y int) {
	o.reset()

	view, err := host.AddMarker(platform.CenteredMarker(x, y, o.opts.SizePx, hidden))
	if err != nil {
		o.logger.Warn("adding tap marker", zap.Int("x", x), zap.Int("y", y), zap.Error(err))
		return
	}
	o.view = view
	o.setState(Appearing)
	view.Animate(shown, o.opts.Appear)

	o.after(o.opts.Appear, o.startDismiss)
	o.after(o.opts.Ceiling, func() {
		o.logger.Debug("tap marker hit ceiling")
		o.reset()
	})
}

func (o *Overlay) startDismiss() {
	if o.State() != Appearing || o.view == nil {
		return
	}
	o.setState(Dismissing)
	o.view.Animate(dropped, o.opts.Dismiss)
	o.after(o.opts.Dismiss, o.reset)
}

// reset invalidates pending timers, removes the live view and goes Idle.
func (o *Overlay) reset() {
	o.gen++
	for _, t := range o.timers {
		t.Stop()
	}
	o.timers = o.timers[:0]
	if o.view != nil {
		if err := o.view.Remove(); err != nil {
			o.logger.Warn("removing tap marker", zap.Error(err))
		}
		o.view = nil
	}
	o.setState(Idle)
}

func (o *Overlay) setState(s State) {
	o.state.Store(int32(s))
}

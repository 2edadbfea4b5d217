package overlay

import (
	"errors"
	"testing"
	"time"

	"github.com/mj1618/device-bridge/internal/platform"
	"github.com/mj1618/device-bridge/internal/platform/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestOverlay(t *testing.T, opts Options) *Overlay {
	t.Helper()
	opts.Logger = zaptest.NewLogger(t)
	o := New(opts)
	t.Cleanup(o.Destroy)
	return o
}

func liveViews(dev *fake.Device) int {
	live, _ := dev.LiveViews()
	return live
}

func TestShowTap_Lifecycle(t *testing.T) {
	dev := fake.NewDevice("test")
	o := newTestOverlay(t, Options{SizePx: 88, Appear: 30 * time.Millisecond, Dismiss: 60 * time.Millisecond, Ceiling: time.Second})

	o.ShowTap(dev, 100, 200)

	require.Eventually(t, func() bool { return o.State() == Appearing }, time.Second, time.Millisecond)
	assert.Equal(t, 1, liveViews(dev))
	require.Eventually(t, func() bool { return o.State() == Dismissing }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return o.State() == Idle && liveViews(dev) == 0 }, time.Second, 5*time.Millisecond)

	markers := dev.Markers()
	require.Len(t, markers, 1)
	assert.Equal(t, 56, markers[0].X)
	assert.Equal(t, 156, markers[0].Y)
	assert.Equal(t, 88, markers[0].Size)
	assert.Equal(t, []platform.Appearance{shown, dropped}, dev.Animations())
}

func TestShowTap_ReplacesLiveMarker(t *testing.T) {
	dev := fake.NewDevice("test")
	o := newTestOverlay(t, Options{Appear: 50 * time.Millisecond, Dismiss: 50 * time.Millisecond, Ceiling: time.Second})

	for i := 0; i < 5; i++ {
		o.ShowTap(dev, 10*i, 10*i)
	}

	require.Eventually(t, func() bool { return len(dev.Markers()) == 5 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return o.State() == Idle && liveViews(dev) == 0 }, 2*time.Second, 5*time.Millisecond)
	_, max := dev.LiveViews()
	assert.Equal(t, 1, max, "never more than one live marker")
}

func TestShowTap_CeilingForcesIdle(t *testing.T) {
	dev := fake.NewDevice("test")
	o := newTestOverlay(t, Options{Appear: 20 * time.Millisecond, Dismiss: time.Hour, Ceiling: 80 * time.Millisecond})

	o.ShowTap(dev, 1, 1)
	require.Eventually(t, func() bool { return o.State() == Dismissing }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return o.State() == Idle && liveViews(dev) == 0 }, time.Second, 5*time.Millisecond)
}

func TestDestroy(t *testing.T) {
	dev := fake.NewDevice("test")
	o := newTestOverlay(t, Options{Appear: time.Hour, Ceiling: time.Hour})

	o.ShowTap(dev, 1, 1)
	require.Eventually(t, func() bool { return o.State() == Appearing }, time.Second, time.Millisecond)

	o.Destroy()
	assert.Equal(t, Idle, o.State())
	assert.Zero(t, liveViews(dev))

	o.ShowTap(dev, 2, 2)
	o.Destroy()
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, dev.Markers(), 1, "ShowTap after Destroy is a no-op")
}

func TestClear(t *testing.T) {
	dev := fake.NewDevice("test")
	o := newTestOverlay(t, Options{Appear: time.Hour, Ceiling: time.Hour})

	o.ShowTap(dev, 1, 1)
	require.Eventually(t, func() bool { return o.State() == Appearing }, time.Second, time.Millisecond)
	o.Clear()
	require.Eventually(t, func() bool { return o.State() == Idle }, time.Second, time.Millisecond)
	assert.Zero(t, liveViews(dev))
}

type failingHost struct{}

func (failingHost) AddMarker(platform.MarkerSpec) (platform.OverlayView, error) {
	return nil, errors.New("window manager rejected view")
}

func TestShowTap_AddFailureIsSwallowed(t *testing.T) {
	o := newTestOverlay(t, Options{})

	o.ShowTap(failingHost{}, 1, 1)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, Idle, o.State())

	// the loop keeps working afterwards
	dev := fake.NewDevice("test")
	o.ShowTap(dev, 1, 1)
	require.Eventually(t, func() bool { return len(dev.Markers()) == 1 }, time.Second, time.Millisecond)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "appearing", Appearing.String())
	assert.Equal(t, "dismissing", Dismissing.String())
}

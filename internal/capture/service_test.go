package capture

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mj1618/device-bridge/internal/imaging"
	"github.com/mj1618/device-bridge/internal/model"
	"github.com/mj1618/device-bridge/internal/platform"
	"github.com/mj1618/device-bridge/internal/platform/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// orderedDevice records the order in which the tree and the frame are read.
type orderedDevice struct {
	*fake.Device
	mu    sync.Mutex
	calls []string
}

func (d *orderedDevice) RootInActiveWindow() model.Node {
	d.mu.Lock()
	d.calls = append(d.calls, "tree")
	d.mu.Unlock()
	return d.Device.RootInActiveWindow()
}

func (d *orderedDevice) TakeScreenshot(display int, cb platform.ScreenshotCallback) {
	d.mu.Lock()
	d.calls = append(d.calls, "frame")
	d.mu.Unlock()
	d.Device.TakeScreenshot(display, cb)
}

func newTestService(t *testing.T, annotate bool) *Service {
	t.Helper()
	c := newTestCapturer(t, Options{})
	b := model.NewTreeSnapshotBuilder(model.BuildOptions{})
	return NewService(b, c, annotate, imaging.LabelIDs, zaptest.NewLogger(t))
}

func TestCaptureState_DemoTree(t *testing.T) {
	dev := &orderedDevice{Device: fake.NewDevice("test")}
	s := newTestService(t, false)

	snap, err := s.CaptureState(context.Background(), dev)
	require.NoError(t, err)

	want := []model.UiElement{
		{ID: 1, Class: "android.widget.EditText", Text: "Email", Bounds: [4]int{80, 500, 920, 140}},
		{ID: 2, Class: "android.widget.EditText", Text: "Password", Bounds: [4]int{80, 680, 920, 140}},
		{ID: 3, Class: "android.widget.CheckBox", Text: "Remember me", Bounds: [4]int{80, 860, 500, 100}},
		{ID: 4, Class: "android.widget.Button", Text: "OK", Bounds: [4]int{80, 1020, 920, 160}},
	}
	if diff := cmp.Diff(want, snap.Elements); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
	assert.FileExists(t, snap.ImagePath)
	assert.Equal(t, []string{"tree", "frame"}, dev.calls)
}

func TestCaptureState_NoWindowStillCaptures(t *testing.T) {
	dev := fake.NewDevice("test")
	dev.SetRoot(nil)
	s := newTestService(t, false)

	snap, err := s.CaptureState(context.Background(), dev)
	require.NoError(t, err)
	assert.NotNil(t, snap.Elements)
	assert.Empty(t, snap.Elements)
	assert.Equal(t, 1, dev.Screenshots())
	assert.FileExists(t, snap.ImagePath)
}

func TestCaptureState_FrameFailureFailsCommand(t *testing.T) {
	dev := fake.NewDevice("test")
	dev.SetScreenshotMode(fake.ScreenshotFail, 1)
	s := newTestService(t, false)

	snap, err := s.CaptureState(context.Background(), dev)
	var pe *PlatformError
	require.ErrorAs(t, err, &pe)
	assert.Empty(t, snap.ImagePath)
	assert.Nil(t, snap.Elements)
}

func TestCaptureState_Annotated(t *testing.T) {
	dev := fake.NewDevice("test")
	s := newTestService(t, true)

	snap, err := s.CaptureState(context.Background(), dev)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(filepath.Dir(snap.ImagePath), AnnotatedName))
	assert.Zero(t, dev.OpenFrames())
}

// brokenTreeDevice panics while its tree is read.
type brokenTreeDevice struct{ *fake.Device }

func (brokenTreeDevice) RootInActiveWindow() model.Node { panic("tree service died") }

func TestCaptureState_TreePanicStillCaptures(t *testing.T) {
	dev := brokenTreeDevice{fake.NewDevice("test")}
	s := newTestService(t, false)

	snap, err := s.CaptureState(context.Background(), dev)
	require.NoError(t, err)
	assert.NotNil(t, snap.Elements)
	assert.Empty(t, snap.Elements)
	assert.Equal(t, 1, dev.Screenshots())
	assert.FileExists(t, snap.ImagePath)
}

// ctxTreeDevice reads its tree through the caller's context.
type ctxTreeDevice struct {
	*fake.Device
	got context.Context
}

func (d *ctxTreeDevice) RootInActiveWindowContext(ctx context.Context) model.Node {
	d.got = ctx
	if ctx.Err() != nil {
		return nil
	}
	return d.Device.RootInActiveWindow()
}

func TestCaptureState_TreeReadUsesContext(t *testing.T) {
	dev := &ctxTreeDevice{Device: fake.NewDevice("test")}
	s := newTestService(t, false)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "caller")
	snap, err := s.CaptureState(ctx, dev)
	require.NoError(t, err)
	require.NotNil(t, dev.got)
	assert.Equal(t, "caller", dev.got.Value(key{}))
	assert.Len(t, snap.Elements, 4)
}

func TestCaptureState_AnnotatedCoords(t *testing.T) {
	dev := fake.NewDevice("test")
	c := newTestCapturer(t, Options{})
	b := model.NewTreeSnapshotBuilder(model.BuildOptions{})
	s := NewService(b, c, true, imaging.LabelCoords, zaptest.NewLogger(t))

	snap, err := s.CaptureState(context.Background(), dev)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(filepath.Dir(snap.ImagePath), AnnotatedName))
}

package fake

import (
	"context"
	"testing"
	"time"

	"github.com/mj1618/device-bridge/internal/model"
	"github.com/mj1618/device-bridge/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackend_Run(t *testing.T) {
	b, err := platform.NewBackend("fake", platform.Options{Serial: "pixel"})
	require.NoError(t, err)

	ref := &platform.Ref{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, ref) }()

	require.Eventually(t, ref.Active, time.Second, time.Millisecond)
	assert.Equal(t, "pixel", ref.Load().Name())

	cancel()
	require.NoError(t, <-done)
	assert.False(t, ref.Active())
}

func TestDemoTree_Actionable(t *testing.T) {
	els, _ := model.NewTreeSnapshotBuilder(model.BuildOptions{}).Build(DemoTree())
	var labels []string
	for _, e := range els {
		labels = append(labels, e.Text)
	}
	assert.Equal(t, []string{"Email", "Password", "Remember me", "OK"}, labels)
}

func TestDevice_ScreenshotModes(t *testing.T) {
	d := NewDevice("test")
	d.SetScreenshotMode(ScreenshotNever, 0)

	got := make(chan platform.Frame, 1)
	d.TakeScreenshot(0, platform.ScreenshotCallback{
		OnSuccess: func(f platform.Frame) { got <- f },
		OnFailure: func(int) { t.Error("unexpected failure") },
	})
	assert.Equal(t, 1, d.Screenshots())
	assert.Equal(t, 1, d.ReleasePending())

	f := <-got
	img, err := f.Image()
	require.NoError(t, err)
	assert.Equal(t, 108, img.Bounds().Dx())
	assert.Equal(t, 1, d.OpenFrames())
	require.NoError(t, f.Close())
	assert.Equal(t, 0, d.OpenFrames())
}

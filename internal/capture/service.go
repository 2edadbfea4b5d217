package capture

import (
	"context"
	"path/filepath"

	"github.com/mj1618/device-bridge/internal/imaging"
	"github.com/mj1618/device-bridge/internal/model"
	"github.com/mj1618/device-bridge/internal/platform"
	"go.uber.org/zap"
)

// AnnotatedName is written next to the capture when annotation is on.
const AnnotatedName = "last_capture_annotated.png"

// Device is what a state capture needs from a device.
type Device interface {
	platform.TreeReader
	Source
}

// Service pairs a tree snapshot with the frame captured right after it.
type Service struct {
	builder  *model.TreeSnapshotBuilder
	capturer *Capturer
	annotate bool
	labels   imaging.LabelMode
	logger   *zap.Logger
}

// NewService returns a Service. With annotate set, every capture also
// writes a copy with element boxes and the given labels drawn on it.
func NewService(builder *model.TreeSnapshotBuilder, capturer *Capturer, annotate bool, labels imaging.LabelMode, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if annotate {
		capturer.opts.RetainImage = true
	}
	return &Service{builder: builder, capturer: capturer, annotate: annotate, labels: labels, logger: logger.Named("snapshot")}
}

// CaptureState walks the tree first and captures the frame second, so the
// image never predates the element list. A missing or unreadable window
// yields an empty list; a failed frame fails the whole call.
func (s *Service) CaptureState(ctx context.Context, dev Device) (model.UiSnapshot, error) {
	elements := s.readTree(ctx, dev)

	shot, err := s.capturer.Capture(ctx, dev)
	if err != nil {
		return model.UiSnapshot{}, err
	}
	if s.annotate && shot.Image != nil {
		s.writeAnnotated(shot, elements)
	}

	s.logger.Debug("state captured", zap.Int("elements", len(elements)), zap.String("image", shot.Path))
	return model.UiSnapshot{Elements: elements, ImagePath: shot.Path}, nil
}

// readTree builds the element list. The tree is best effort: a panic in
// the platform tree service is logged and yields no elements.
func (s *Service) readTree(ctx context.Context, dev Device) (elements []model.UiElement) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("ui tree read panicked", zap.Any("panic", r))
			elements = []model.UiElement{}
		}
	}()

	var root model.Node
	if cr, ok := dev.(platform.ContextTreeReader); ok {
		root = cr.RootInActiveWindowContext(ctx)
	} else {
		root = dev.RootInActiveWindow()
	}
	elements, stats := s.builder.Build(root)
	if stats.Truncated || stats.SkippedDeep > 0 {
		s.logger.Warn("ui tree walk was bounded",
			zap.Int("visited", stats.Visited),
			zap.Int("skippedDeep", stats.SkippedDeep),
			zap.Bool("truncated", stats.Truncated))
	}
	return elements
}

func (s *Service) writeAnnotated(shot Shot, elements []model.UiElement) {
	out := imaging.Annotate(shot.Image, elements, shot.Native, s.labels)
	path := filepath.Join(filepath.Dir(shot.Path), AnnotatedName)
	if err := imaging.SavePNG(path, out, 1); err != nil {
		s.logger.Warn("writing annotated capture", zap.Error(err))
	}
}

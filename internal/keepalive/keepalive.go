// Package keepalive holds the bridge's "agent running" presence: a status
// line and a heartbeat that logs it while the agent is active.
package keepalive

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultStatus is used when UpdateStatus gets an empty status.
const DefaultStatus = "Agent running"

// Options configures a Service.
type Options struct {
	DefaultStatus     string
	HeartbeatInterval time.Duration // 0 disables the heartbeat
	Logger            *zap.Logger
}

// Service is started and stopped by controller commands. All methods are
// idempotent and safe for concurrent use.
type Service struct {
	opts   Options
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	status  string
	started time.Time
	stop    chan struct{}
	done    chan struct{}
}

// New returns a stopped Service.
func New(opts Options) *Service {
	if opts.DefaultStatus == "" {
		opts.DefaultStatus = DefaultStatus
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{opts: opts, logger: logger.Named("keepalive"), status: opts.DefaultStatus}
}

// Start marks the agent as running. Starting a running service only
// returns true.
func (s *Service) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return true
	}
	s.running = true
	s.started = time.Now()
	s.logger.Info("agent presence started", zap.String("status", s.status))

	if s.opts.HeartbeatInterval > 0 {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.heartbeat(s.stop, s.done)
	}
	return true
}

// Stop marks the agent as stopped and waits for the heartbeat to exit.
func (s *Service) Stop() bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return true
	}
	s.running = false
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	s.logger.Info("agent presence stopped")
	return true
}

// UpdateStatus replaces the status line; "" restores the default. It
// works whether or not the service is running.
func (s *Service) UpdateStatus(status string) bool {
	if status == "" {
		status = s.opts.DefaultStatus
	}
	s.mu.Lock()
	s.status = status
	running := s.running
	s.mu.Unlock()
	s.logger.Info("agent status updated", zap.String("status", status), zap.Bool("running", running))
	return true
}

// Status reports whether the service runs and its current status line.
func (s *Service) Status() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running, s.status
}

func (s *Service) heartbeat(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.opts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			status, since := s.status, time.Since(s.started)
			s.mu.Unlock()
			s.logger.Debug("agent heartbeat", zap.String("status", status), zap.Duration("uptime", since.Round(time.Second)))
		}
	}
}

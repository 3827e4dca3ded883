package warmup

import (
	"sync/atomic"
	"time"
)

// ReadinessState tracks whether the first index build has landed, for
// the readiness probe. The service also reports ready once the timeout
// elapses so a slow embedding provider cannot keep an instance out of
// rotation forever; requests then degrade per the usual catalog-
// unavailable path instead.
type ReadinessState struct {
	ready     atomic.Bool
	startTime time.Time
	timeout   time.Duration
}

// ReadinessStatus is the probe response body.
type ReadinessStatus struct {
	Ready          bool   `json:"ready"`
	Reason         string `json:"reason,omitempty"`
	ElapsedSeconds int    `json:"elapsed_seconds,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// NewReadinessState starts the not-ready clock.
func NewReadinessState(timeout time.Duration) *ReadinessState {
	return &ReadinessState{
		startTime: time.Now(),
		timeout:   timeout,
	}
}

// MarkReady records that the initial index build completed.
func (s *ReadinessState) MarkReady() {
	s.ready.Store(true)
}

// IsReady reports readiness: the first build completed, or the timeout
// has elapsed.
func (s *ReadinessState) IsReady() bool {
	if s.ready.Load() {
		return true
	}
	return time.Since(s.startTime) >= s.timeout
}

// IndexBuilt reports whether MarkReady was called, ignoring the
// timeout fallback.
func (s *ReadinessState) IndexBuilt() bool {
	return s.ready.Load()
}

// Status returns the probe body for the current state.
func (s *ReadinessState) Status() ReadinessStatus {
	elapsed := time.Since(s.startTime)
	ready := s.IsReady()

	status := ReadinessStatus{
		Ready:          ready,
		ElapsedSeconds: int(elapsed.Seconds()),
		TimeoutSeconds: int(s.timeout.Seconds()),
	}
	if !ready {
		status.Reason = "catalog index build in progress"
	} else if !s.ready.Load() {
		status.Reason = "timeout reached (index build may still be running)"
	}
	return status
}

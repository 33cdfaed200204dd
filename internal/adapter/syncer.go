package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"netcanvas/internal/domain"
	"netcanvas/internal/metrics"
)

// Syncer keeps the candidate list fed from a Source
type Syncer struct {
	source   Source
	logger   *slog.Logger
	metrics  *metrics.Registry
	now      func() time.Time
	timeout  time.Duration
	interval time.Duration

	mu         sync.RWMutex
	candidates []domain.Candidate
	lastErr    error
	lastSync   time.Time
	appliedSeq uint64
	onEvent    EventFunc

	seq atomic.Uint64

	loopMu sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// SyncerOption configures a Syncer
type SyncerOption func(*Syncer)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) SyncerOption {
	return func(s *Syncer) {
		s.logger = l
	}
}

// WithMetrics records fetch outcomes in m
func WithMetrics(m *metrics.Registry) SyncerOption {
	return func(s *Syncer) {
		s.metrics = m
	}
}

// WithClock overrides the clock used to derive device status
func WithClock(now func() time.Time) SyncerOption {
	return func(s *Syncer) {
		s.now = now
	}
}

// WithTimeout bounds background refreshes
func WithTimeout(d time.Duration) SyncerOption {
	return func(s *Syncer) {
		s.timeout = d
	}
}

// WithPollInterval enables periodic refresh after Start; zero disables polling
func WithPollInterval(d time.Duration) SyncerOption {
	return func(s *Syncer) {
		s.interval = d
	}
}

// NewSyncer creates a syncer over source
func NewSyncer(source Source, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		source:     source,
		logger:     slog.Default(),
		now:        time.Now,
		timeout:    30 * time.Second,
		candidates: []domain.Candidate{},
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEventHandler sets the callback for applied refresh results
func (s *Syncer) SetEventHandler(fn EventFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvent = fn
}

// Refresh fetches the device list and applies it unless a newer refresh already has.
// The returned error is the fetch error even when the result was discarded as stale.
func (s *Syncer) Refresh(ctx context.Context) error {
	seq := s.seq.Add(1)
	start := time.Now()

	records, err := s.source.Fetch(ctx)
	if err != nil && !errors.Is(err, domain.ErrSyncFailure) {
		err = fmt.Errorf("%w: %v", domain.ErrSyncFailure, err)
	}

	s.apply(seq, records, err, time.Since(start))
	return err
}

// RefreshAsync starts a refresh in the background
func (s *Syncer) RefreshAsync() {
	s.loopMu.Lock()
	parent := s.ctx
	s.wg.Add(1)
	s.loopMu.Unlock()

	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(parent, s.timeout)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("background device sync failed", "source", s.source.Name(), "error", err)
		}
	}()
}

func (s *Syncer) apply(seq uint64, records []domain.DeviceRecord, err error, elapsed time.Duration) {
	s.mu.Lock()
	if seq <= s.appliedSeq {
		s.mu.Unlock()
		s.metrics.RecordSync(err, true, 0, elapsed)
		s.logger.Debug("discarding stale device sync result", "sequence", seq)
		return
	}

	s.appliedSeq = seq
	s.lastSync = s.now()
	if err != nil {
		s.candidates = []domain.Candidate{}
		s.lastErr = err
	} else {
		now := s.now()
		s.candidates = lo.Map(records, func(r domain.DeviceRecord, _ int) domain.Candidate {
			return r.ToCandidate(now)
		})
		s.lastErr = nil
	}
	count := len(s.candidates)
	snapshot := append([]domain.Candidate(nil), s.candidates...)
	handler := s.onEvent
	s.mu.Unlock()

	s.metrics.RecordSync(err, false, count, elapsed)

	if err != nil {
		s.logger.Warn("device sync failed", "source", s.source.Name(), "sequence", seq, "error", err)
		if handler != nil {
			handler(EventSyncFailed, FailurePayload{Sequence: seq, Error: err.Error()})
		}
		return
	}

	s.logger.Info("device sync complete", "source", s.source.Name(), "sequence", seq, "candidates", count)
	if handler != nil {
		handler(EventCandidatesUpdated, CandidatesPayload{Sequence: seq, Candidates: snapshot})
	}
}

// Candidates returns a copy of the current candidate list
func (s *Syncer) Candidates() []domain.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Candidate{}, s.candidates...)
}

// Candidate looks up one candidate by device ID
func (s *Syncer) Candidate(deviceID string) (domain.Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Find(s.candidates, func(c domain.Candidate) bool {
		return c.DeviceID == deviceID
	})
}

// LastError returns the error of the most recently applied refresh
func (s *Syncer) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Status summarizes the syncer state
type Status struct {
	Source     string    `json:"source"`
	Sequence   uint64    `json:"sequence"`
	Candidates int       `json:"candidates"`
	LastSync   time.Time `json:"lastSync,omitempty"`
	LastError  string    `json:"lastError,omitempty"`
	Polling    bool      `json:"polling"`
}

// Status returns a point-in-time summary
func (s *Syncer) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Source:     s.source.Name(),
		Sequence:   s.appliedSeq,
		Candidates: len(s.candidates),
		LastSync:   s.lastSync,
		Polling:    s.interval > 0,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Start binds background refreshes to ctx and, when a poll interval is set,
// begins the polling loop with an immediate first refresh
func (s *Syncer) Start(ctx context.Context) {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)
	if s.interval <= 0 {
		return
	}

	s.wg.Add(1)
	go s.pollLoop(s.ctx)
	s.logger.Info("started device polling loop", "source", s.source.Name(), "interval", s.interval)
}

func (s *Syncer) pollLoop(ctx context.Context) {
	defer s.wg.Done()

	s.pollOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping device polling loop", "source", s.source.Name())
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Syncer) pollOnce(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.Refresh(fetchCtx); err != nil {
		s.logger.Debug("poll refresh failed", "error", err)
	}
}

// Stop cancels the polling loop and waits for in-flight refreshes
func (s *Syncer) Stop() {
	s.loopMu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.loopMu.Unlock()

	s.wg.Wait()
}

package adapter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netcanvas/internal/domain"
	"netcanvas/internal/metrics"
)

// fakeSource returns queued responses; a response with a release channel
// blocks until the channel is closed
type fakeSource struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     int
}

type fakeResponse struct {
	records []domain.DeviceRecord
	err     error
	release chan struct{}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(ctx context.Context) ([]domain.DeviceRecord, error) {
	f.mu.Lock()
	var resp fakeResponse
	if f.calls < len(f.responses) {
		resp = f.responses[f.calls]
	}
	f.calls++
	f.mu.Unlock()

	if resp.release != nil {
		select {
		case <-resp.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return resp.records, resp.err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var syncNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func TestSyncerRefresh(t *testing.T) {
	source := &fakeSource{responses: []fakeResponse{{
		records: []domain.DeviceRecord{
			{DeviceID: "a", Hostname: "fresh", LastSeen: syncNow.Add(-time.Minute)},
			{DeviceID: "b", Hostname: "idle", LastSeen: syncNow.Add(-10 * time.Minute)},
			{DeviceID: "c", LastSeen: syncNow.Add(-2 * time.Hour)},
		},
	}}}

	var events []string
	s := NewSyncer(source, WithClock(func() time.Time { return syncNow }), WithMetrics(metrics.NewRegistry()))
	s.SetEventHandler(func(eventType string, payload any) {
		events = append(events, eventType)
	})

	require.NoError(t, s.Refresh(context.Background()))

	candidates := s.Candidates()
	require.Len(t, candidates, 3)
	assert.Equal(t, domain.NodeStatusOnline, candidates[0].Status)
	assert.Equal(t, domain.NodeStatusIdle, candidates[1].Status)
	assert.Equal(t, domain.NodeStatusOffline, candidates[2].Status)
	assert.Equal(t, "c", candidates[2].Label, "label falls back to device id")
	assert.Equal(t, domain.NodeKindMonitoredDevice, candidates[0].Kind)

	c, ok := s.Candidate("b")
	require.True(t, ok)
	assert.Equal(t, "idle", c.Label)

	assert.NoError(t, s.LastError())
	assert.Equal(t, []string{EventCandidatesUpdated}, events)
	assert.Equal(t, uint64(1), s.Status().Sequence)
}

func TestSyncerFailureEmptiesCandidates(t *testing.T) {
	source := &fakeSource{responses: []fakeResponse{
		{records: []domain.DeviceRecord{{DeviceID: "a"}}},
		{err: errors.New("connection refused")},
	}}

	var failed FailurePayload
	s := NewSyncer(source)
	s.SetEventHandler(func(eventType string, payload any) {
		if eventType == EventSyncFailed {
			failed = payload.(FailurePayload)
		}
	})

	require.NoError(t, s.Refresh(context.Background()))
	require.Len(t, s.Candidates(), 1)

	err := s.Refresh(context.Background())
	assert.ErrorIs(t, err, domain.ErrSyncFailure)
	assert.Empty(t, s.Candidates())
	assert.ErrorIs(t, s.LastError(), domain.ErrSyncFailure)
	assert.Equal(t, uint64(2), failed.Sequence)
	assert.Contains(t, s.Status().LastError, "connection refused")
}

func TestSyncerNewestRequestWins(t *testing.T) {
	slow := make(chan struct{})
	source := &fakeSource{responses: []fakeResponse{
		{records: []domain.DeviceRecord{{DeviceID: "stale"}}, release: slow},
		{records: []domain.DeviceRecord{{DeviceID: "fresh"}}},
	}}
	s := NewSyncer(source)

	done := make(chan error, 1)
	go func() { done <- s.Refresh(context.Background()) }()

	require.Eventually(t, func() bool { return source.callCount() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, s.Refresh(context.Background()))
	close(slow)
	require.NoError(t, <-done)

	candidates := s.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, "fresh", candidates[0].DeviceID)
}

func TestSyncerRefreshAsync(t *testing.T) {
	source := &fakeSource{responses: []fakeResponse{{records: []domain.DeviceRecord{{DeviceID: "a"}}}}}
	s := NewSyncer(source)

	s.RefreshAsync()
	s.Stop()

	assert.Len(t, s.Candidates(), 1)
}

func TestSyncerPolling(t *testing.T) {
	source := &fakeSource{}
	s := NewSyncer(source, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	require.Eventually(t, func() bool { return source.callCount() >= 3 }, 2*time.Second, time.Millisecond)
	s.Stop()

	calls := source.callCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, source.callCount(), "no polling after Stop")
	assert.True(t, s.Status().Polling)
}

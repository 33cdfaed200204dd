package adapter

import (
	"context"

	"netcanvas/internal/domain"
)

// Source is a read-only provider of device records
type Source interface {
	// Name returns a short identifier used in logs
	Name() string

	// Fetch returns the current device list
	Fetch(ctx context.Context) ([]domain.DeviceRecord, error)
}

// Sync event types published through the EventFunc
const (
	EventCandidatesUpdated = "candidates_updated"
	EventSyncFailed        = "sync_failed"
)

// EventFunc is called when a refresh result is applied
type EventFunc func(eventType string, payload any)

// CandidatesPayload accompanies EventCandidatesUpdated
type CandidatesPayload struct {
	Sequence   uint64             `json:"sequence"`
	Candidates []domain.Candidate `json:"candidates"`
}

// FailurePayload accompanies EventSyncFailed
type FailurePayload struct {
	Sequence uint64 `json:"sequence"`
	Error    string `json:"error"`
}

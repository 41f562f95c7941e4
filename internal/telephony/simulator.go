package telephony

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Simulator stands in for the calling API when it is not configured.
// Calls move through queued, ringing and in-progress and end after
// SimulatedCallLength with a fixed duration and transcript.
type Simulator struct {
	mu    sync.Mutex
	calls map[string]simCall

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

const (
	simRingingAfter     = 1 * time.Second
	simConnectedAfter   = 3 * time.Second
	SimulatedCallLength = 12 * time.Second
	simDurationSeconds  = 167
)

const simTranscript = "AI: Hello! How can I help you today?\n" +
	"Customer: Hi, I received a call from you...\n" +
	"AI: I understand. Let me help you with that...\n" +
	"Customer: That sounds interesting, tell me more."

type simCall struct {
	req       StartCallRequest
	createdAt time.Time
}

func NewSimulator() *Simulator {
	return &Simulator{calls: map[string]simCall{}, clock: time.Now}
}

func (s *Simulator) Name() string { return "simulator" }

func (s *Simulator) HealthCheck(ctx context.Context) error { return nil }

func (s *Simulator) CreateAssistant(ctx context.Context, req AssistantRequest) (string, error) {
	if req.Name == "" {
		return "", &APIError{Op: "Assistant creation", Status: 400, Message: "name is required"}
	}
	return "sim-asst-" + uuid.NewString(), nil
}

func (s *Simulator) StartCall(ctx context.Context, req StartCallRequest) (CallDetail, error) {
	if req.Customer.Number == "" {
		return CallDetail{}, &APIError{Op: "Call", Status: 400, Message: "customer.number is required"}
	}
	id := "sim-call-" + uuid.NewString()
	now := s.clock().UTC()

	c := simCall{req: req, createdAt: now}

	s.mu.Lock()
	s.calls[id] = c
	s.mu.Unlock()

	return s.detail(id, c, now), nil
}

func (s *Simulator) GetCall(ctx context.Context, callID string) (CallDetail, error) {
	s.mu.Lock()
	c, ok := s.calls[callID]
	s.mu.Unlock()
	if !ok {
		return CallDetail{}, &APIError{Op: "Call lookup", Status: 404, Message: "call not found"}
	}
	return s.detail(callID, c, s.clock().UTC()), nil
}

// ListCalls is always empty so the dashboard falls back to its sample data.
func (s *Simulator) ListCalls(ctx context.Context) ([]CallDetail, error) {
	return []CallDetail{}, nil
}

func (s *Simulator) detail(id string, c simCall, now time.Time) CallDetail {
	d := CallDetail{
		ID:          id,
		AssistantID: c.req.AssistantID,
		Customer:    c.req.Customer,
		CreatedAt:   c.createdAt,
	}
	elapsed := now.Sub(c.createdAt)
	switch {
	case elapsed < simRingingAfter:
		d.Status = StatusQueued
	case elapsed < simConnectedAfter:
		d.Status = StatusRinging
	case elapsed < SimulatedCallLength:
		d.Status = StatusInProgress
		started := c.createdAt.Add(simConnectedAfter)
		d.StartedAt = &started
	default:
		started := c.createdAt.Add(simConnectedAfter)
		ended := c.createdAt.Add(SimulatedCallLength)
		d.Status = StatusEnded
		d.StartedAt = &started
		d.EndedAt = &ended
		d.EndedReason = "customer-ended-call"
		d.Duration = simDurationSeconds
		d.Summary = "Successful contact, customer interested"
		d.Transcript = simTranscript
	}
	return d
}

package telephony

import (
	"context"
	"math"
	"time"
)

// Provider defines the calling-API interface used by business logic.
//
// Rules:
// - No HTTP calls to the calling API outside provider adapters.
// - Request/response types mirror the provider's JSON; callers never see raw payloads.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	CreateAssistant(ctx context.Context, req AssistantRequest) (string, error)
	StartCall(ctx context.Context, req StartCallRequest) (CallDetail, error)
	GetCall(ctx context.Context, callID string) (CallDetail, error)
	ListCalls(ctx context.Context) ([]CallDetail, error)
}

// Provider call statuses. "failed" is not sent by every provider but is honored.
const (
	StatusQueued     = "queued"
	StatusRinging    = "ringing"
	StatusInProgress = "in-progress"
	StatusForwarding = "forwarding"
	StatusEnded      = "ended"
	StatusFailed     = "failed"
)

// IsTerminal reports whether a provider status ends monitoring.
func IsTerminal(status string) bool {
	return status == StatusEnded || status == StatusFailed
}

// AssistantRequest is the body of POST /assistant.
type AssistantRequest struct {
	Name         string         `json:"name"`
	Model        AssistantModel `json:"model"`
	Voice        AssistantVoice `json:"voice"`
	FirstMessage string         `json:"firstMessage"`
}

type AssistantModel struct {
	Provider string    `json:"provider"`
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type AssistantVoice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

// AssistantProfile carries the configured model and voice for new assistants.
type AssistantProfile struct {
	ModelProvider string
	Model         string
	VoiceProvider string
	VoiceID       string
}

// NewAssistant builds an assistant payload with a single system prompt.
func NewAssistant(name, systemPrompt, firstMessage string, p AssistantProfile) AssistantRequest {
	return AssistantRequest{
		Name: name,
		Model: AssistantModel{
			Provider: p.ModelProvider,
			Model:    p.Model,
			Messages: []Message{{Role: "system", Content: systemPrompt}},
		},
		Voice:        AssistantVoice{Provider: p.VoiceProvider, VoiceID: p.VoiceID},
		FirstMessage: firstMessage,
	}
}

// StartCallRequest is the body of POST /call.
type StartCallRequest struct {
	AssistantID   string   `json:"assistantId"`
	PhoneNumberID string   `json:"phoneNumberId"`
	Customer      Customer `json:"customer"`
}

type Customer struct {
	Number string `json:"number"`
	Name   string `json:"name,omitempty"`
}

// CallDetail is a call as returned by GET /call and GET /call/{id}.
type CallDetail struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	AssistantID string     `json:"assistantId,omitempty"`
	Customer    Customer   `json:"customer"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
	EndedReason string     `json:"endedReason,omitempty"`

	// Duration is in seconds when the provider reports it directly.
	Duration   float64       `json:"duration,omitempty"`
	Transcript string        `json:"transcript,omitempty"`
	Summary    string        `json:"summary,omitempty"`
	Analysis   *CallAnalysis `json:"analysis,omitempty"`
}

type CallAnalysis struct {
	Summary string `json:"summary,omitempty"`
}

// DurationSeconds prefers the reported duration, then startedAt/endedAt.
func (d CallDetail) DurationSeconds() int {
	if d.Duration > 0 {
		return int(math.Round(d.Duration))
	}
	if d.StartedAt != nil && d.EndedAt != nil && d.EndedAt.After(*d.StartedAt) {
		return int(math.Round(d.EndedAt.Sub(*d.StartedAt).Seconds()))
	}
	return 0
}

// SummaryText returns the top-level summary or the analysis summary.
func (d CallDetail) SummaryText() string {
	if d.Summary != "" {
		return d.Summary
	}
	if d.Analysis != nil {
		return d.Analysis.Summary
	}
	return ""
}

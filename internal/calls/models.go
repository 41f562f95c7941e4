package calls

import (
	"strings"
	"time"

	"voice-campaigns/internal/telephony"
)

// Call is one call record shown on the dashboard.
//
// Records come from the calling API (or sample data) and are mutable only
// through Service.Update; the last writer wins.
type Call struct {
	ID             string     `json:"id"`
	CustomerNumber string     `json:"customerNumber"`
	CustomerName   string     `json:"customerName"`
	Status         CallStatus `json:"status"`

	// Duration is the call duration in seconds.
	Duration int `json:"duration"`

	CreatedAt   time.Time  `json:"createdAt"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
	EndedReason string     `json:"endedReason,omitempty"`
	AssistantID string     `json:"assistantId,omitempty"`

	Transcript   string   `json:"transcript"`
	Summary      string   `json:"summary"`
	Outcome      string   `json:"outcome,omitempty"`
	Priority     Priority `json:"priority,omitempty"`
	NextActions  string   `json:"nextActions,omitempty"`
	FollowupDate string   `json:"followupDate,omitempty"`
	Tags         []string `json:"tags"`
}

type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// failureReasons are endedReason fragments that turn an ended call into a failed one.
var failureReasons = []string{"error", "failed", "did-not-answer", "no-answer", "busy"}

// NormalizeStatus maps a provider status and ended reason onto the dashboard statuses.
func NormalizeStatus(providerStatus, endedReason string) CallStatus {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case telephony.StatusEnded, string(CallStatusCompleted):
		reason := strings.ToLower(endedReason)
		for _, f := range failureReasons {
			if strings.Contains(reason, f) {
				return CallStatusFailed
			}
		}
		return CallStatusCompleted
	case telephony.StatusFailed:
		return CallStatusFailed
	case telephony.StatusInProgress, telephony.StatusForwarding:
		return CallStatusInProgress
	case telephony.StatusRinging:
		return CallStatusRinging
	}
	return CallStatusQueued
}

// FromProvider converts a provider call into a dashboard record.
func FromProvider(d telephony.CallDetail) Call {
	return Call{
		ID:             d.ID,
		CustomerNumber: d.Customer.Number,
		CustomerName:   d.Customer.Name,
		Status:         NormalizeStatus(d.Status, d.EndedReason),
		Duration:       d.DurationSeconds(),
		CreatedAt:      d.CreatedAt,
		EndedAt:        d.EndedAt,
		EndedReason:    d.EndedReason,
		AssistantID:    d.AssistantID,
		Transcript:     d.Transcript,
		Summary:        d.SummaryText(),
		Tags:           []string{},
	}
}

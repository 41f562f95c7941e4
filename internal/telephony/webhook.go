package telephony

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Server message types pushed by the calling API to the webhook URL.
const (
	MessageStatusUpdate    = "status-update"
	MessageEndOfCallReport = "end-of-call-report"
)

var (
	ErrInvalidMessage     = errors.New("telephony: invalid server message")
	ErrUnsupportedMessage = errors.New("telephony: unsupported server message")
)

// CallEvent is a parsed server message. Call carries every field the
// message reported, merged onto the embedded call object.
type CallEvent struct {
	Type string
	Call CallDetail
}

// serverMessage captures the subset of the webhook envelope we care about.
type serverMessage struct {
	Message struct {
		Type            string        `json:"type"`
		Status          string        `json:"status"`
		EndedReason     string        `json:"endedReason"`
		Transcript      string        `json:"transcript"`
		Summary         string        `json:"summary"`
		DurationSeconds float64       `json:"durationSeconds"`
		StartedAt       *time.Time    `json:"startedAt"`
		EndedAt         *time.Time    `json:"endedAt"`
		Analysis        *CallAnalysis `json:"analysis"`
		Artifact        *struct {
			Transcript string `json:"transcript"`
		} `json:"artifact"`
		Call     *CallDetail `json:"call"`
		Customer *Customer   `json:"customer"`
	} `json:"message"`
}

// ParseServerMessage decodes a webhook body. Message types other than
// status-update and end-of-call-report return ErrUnsupportedMessage.
func ParseServerMessage(body []byte) (CallEvent, error) {
	var m serverMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return CallEvent{}, ErrInvalidMessage
	}
	msg := m.Message
	switch msg.Type {
	case MessageStatusUpdate, MessageEndOfCallReport:
	case "":
		return CallEvent{}, ErrInvalidMessage
	default:
		return CallEvent{Type: msg.Type}, ErrUnsupportedMessage
	}
	if msg.Call == nil || strings.TrimSpace(msg.Call.ID) == "" {
		return CallEvent{}, ErrInvalidMessage
	}

	call := *msg.Call
	if msg.Customer != nil && call.Customer.Number == "" {
		call.Customer = *msg.Customer
	}
	if msg.Status != "" {
		call.Status = msg.Status
	}
	if msg.Type == MessageEndOfCallReport {
		call.Status = StatusEnded
	}
	if msg.EndedReason != "" {
		call.EndedReason = msg.EndedReason
	}
	switch {
	case msg.Transcript != "":
		call.Transcript = msg.Transcript
	case msg.Artifact != nil && msg.Artifact.Transcript != "":
		call.Transcript = msg.Artifact.Transcript
	}
	if msg.Summary != "" {
		call.Summary = msg.Summary
	} else if msg.Analysis != nil && msg.Analysis.Summary != "" {
		call.Summary = msg.Analysis.Summary
	}
	if msg.DurationSeconds > 0 {
		call.Duration = msg.DurationSeconds
	}
	if msg.StartedAt != nil {
		call.StartedAt = msg.StartedAt
	}
	if msg.EndedAt != nil {
		call.EndedAt = msg.EndedAt
	}
	return CallEvent{Type: msg.Type, Call: call}, nil
}

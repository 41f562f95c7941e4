package activity

import (
	"fmt"
	"time"
)

// Event is one append-only line of an activity log (campaign log, outbound log).
//
// Invariants:
// - Events are never updated or deleted individually.
// - Stream is required; it names the log the event belongs to.
type Event struct {
	ID      string `json:"id"`
	Stream  string `json:"stream"`
	Level   Level  `json:"level"`
	Message string `json:"message"`

	CreatedAt time.Time `json:"createdAt"`
}

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Well-known streams.
const StreamOutbound = "outbound"

// CampaignStream names the log stream of a campaign.
func CampaignStream(campaignID string) string { return "campaign:" + campaignID }

// Line renders the event as "[HH:MM:SS] message".
func (e Event) Line() string {
	return fmt.Sprintf("[%s] %s", e.CreatedAt.Format("15:04:05"), e.Message)
}

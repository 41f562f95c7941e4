package campaigns

import (
	"strings"
	"time"

	"voice-campaigns/internal/contacts"
	"voice-campaigns/internal/reporting"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusStopped   Status = "stopped"
	StatusCompleted Status = "completed"
)

// Campaign is a sequential sweep of calls over one contact list.
//
// Invariants:
// - CalledContacts == SuccessfulCalls + FailedCalls <= TotalContacts.
// - Outcomes holds at most one entry per contact; a revisited contact's
//   earlier outcome is removed from the counters before it is called again.
// - stopped and completed are terminal.
type Campaign struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ListID   string `json:"listId"`
	ListName string `json:"listName"`

	Agent  string `json:"agent"`
	Goal   string `json:"goal"`
	Script string `json:"script"`

	DelaySeconds int `json:"delaySeconds"`
	Retries      int `json:"retries"`

	// ContactIDs is fixed at creation: the selected subset, or every contact
	// the list held then. Contacts deleted since are skipped. Empty only on
	// records written before the field was pinned, which sweep the whole list.
	ContactIDs []string `json:"contactIds,omitempty"`

	TotalContacts   int `json:"totalContacts"`
	CalledContacts  int `json:"calledContacts"`
	SuccessfulCalls int `json:"successfulCalls"`
	FailedCalls     int `json:"failedCalls"`

	Outcomes map[string]contacts.Status `json:"outcomes,omitempty"`

	Status      Status     `json:"status"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// CreateRequest is the operator input for a new campaign.
type CreateRequest struct {
	Name         string     `json:"name"`
	ListID       string     `json:"listId"`
	Agent        string     `json:"agent"`
	Goal         string     `json:"goal"`
	Script       string     `json:"script"`
	DelaySeconds int        `json:"delaySeconds"`
	Retries      int        `json:"retries"`
	ContactIDs   []string   `json:"contactIds"`
	Scheduled    bool       `json:"scheduled"`
	StartTime    *time.Time `json:"startTime"`
}

func (r CreateRequest) normalize() CreateRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.ListID = strings.TrimSpace(r.ListID)
	r.Agent = strings.TrimSpace(r.Agent)
	r.Goal = strings.TrimSpace(r.Goal)
	r.Script = strings.TrimSpace(r.Script)
	return r
}

// View is a campaign plus derived progress figures.
type View struct {
	Campaign
	Progress reporting.CampaignProgress `json:"progress"`
	Running  bool                       `json:"running"`
}

func (c Campaign) clone() Campaign {
	out := c
	out.ContactIDs = append([]string(nil), c.ContactIDs...)
	if c.Outcomes != nil {
		out.Outcomes = make(map[string]contacts.Status, len(c.Outcomes))
		for k, v := range c.Outcomes {
			out.Outcomes[k] = v
		}
	}
	return out
}

func (c Campaign) delay() time.Duration {
	return time.Duration(c.DelaySeconds) * time.Second
}

// targets returns the contacts the campaign sweeps, in list order.
func (c Campaign) targets(l contacts.List) []contacts.Contact {
	if len(c.ContactIDs) == 0 {
		return l.Contacts
	}
	want := make(map[string]bool, len(c.ContactIDs))
	for _, id := range c.ContactIDs {
		want[id] = true
	}
	out := make([]contacts.Contact, 0, len(c.ContactIDs))
	for _, ct := range l.Contacts {
		if want[ct.ID] {
			out = append(out, ct)
		}
	}
	return out
}

// forget removes a contact's earlier outcome from the counters.
func (c *Campaign) forget(contactID string) {
	switch c.Outcomes[contactID] {
	case contacts.StatusCompleted:
		c.CalledContacts--
		c.SuccessfulCalls--
	case contacts.StatusFailed:
		c.CalledContacts--
		c.FailedCalls--
	default:
		return
	}
	delete(c.Outcomes, contactID)
}

func (c *Campaign) record(contactID string, ok bool) {
	c.forget(contactID)
	if c.Outcomes == nil {
		c.Outcomes = map[string]contacts.Status{}
	}
	c.CalledContacts++
	if ok {
		c.SuccessfulCalls++
		c.Outcomes[contactID] = contacts.StatusCompleted
		return
	}
	c.FailedCalls++
	c.Outcomes[contactID] = contacts.StatusFailed
}

func (c Campaign) view(running bool) View {
	return View{
		Campaign: c,
		Progress: reporting.Progress(c.TotalContacts, c.CalledContacts, c.SuccessfulCalls, c.FailedCalls),
		Running:  running,
	}
}

package calls

import (
	"fmt"
	"strings"
	"time"
)

// Annotation is the operator-edited part of a call record.
// It is persisted per call id so refreshes keep it.
type Annotation struct {
	CallID       string   `json:"callId"`
	CustomerName string   `json:"customerName"`
	Summary      string   `json:"summary"`
	Outcome      string   `json:"outcome"`
	Priority     Priority `json:"priority"`
	NextActions  string   `json:"nextActions"`
	FollowupDate string   `json:"followupDate"`
	Tags         []string `json:"tags"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// Normalize trims fields, dedupes tags and validates priority and follow-up date.
func (a Annotation) Normalize() (Annotation, error) {
	a.CustomerName = strings.TrimSpace(a.CustomerName)
	a.Outcome = strings.TrimSpace(a.Outcome)
	a.NextActions = strings.TrimSpace(a.NextActions)
	a.FollowupDate = strings.TrimSpace(a.FollowupDate)
	a.Priority = Priority(strings.ToLower(strings.TrimSpace(string(a.Priority))))

	if !a.Priority.Valid() {
		return Annotation{}, fmt.Errorf("%w: priority must be low, medium or high", ErrInvalidArgument)
	}
	if a.FollowupDate != "" {
		if _, err := time.Parse(dateLayout, a.FollowupDate); err != nil {
			return Annotation{}, fmt.Errorf("%w: followupDate must be YYYY-MM-DD", ErrInvalidArgument)
		}
	}
	a.Tags = DedupeTags(a.Tags)
	return a, nil
}

// DedupeTags trims tags, drops empties and keeps the first occurrence of each.
func DedupeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// apply writes the annotation onto c.
func (a Annotation) apply(c *Call) {
	c.CustomerName = a.CustomerName
	c.Summary = a.Summary
	c.Outcome = a.Outcome
	c.Priority = a.Priority
	c.NextActions = a.NextActions
	c.FollowupDate = a.FollowupDate
	c.Tags = append([]string(nil), a.Tags...)
}

package contacts

import (
	"strings"
	"time"
)

// Contact is one callee. Created by CSV import or manual add, mutated by
// the campaign runner, deleted only by an operator.
type Contact struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Email    string   `json:"email"`
	Context  string   `json:"context"`
	Priority Priority `json:"priority"`
	Status   Status   `json:"status"`
}

// List owns an ordered set of contacts.
type List struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	Contacts    []Contact `json:"contacts"`
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority lower-cases p; empty or unknown values become medium.
func ParsePriority(p string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(p))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	}
	return PriorityMedium
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCalling   Status = "calling"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCalling, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Summary is the list view without contacts.
type Summary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	Total       int       `json:"total"`
	Pending     int       `json:"pending"`
	Completed   int       `json:"completed"`
	Failed      int       `json:"failed"`
}

func (l List) Summary() Summary {
	s := Summary{ID: l.ID, Name: l.Name, Description: l.Description, CreatedAt: l.CreatedAt, Total: len(l.Contacts)}
	for _, c := range l.Contacts {
		switch c.Status {
		case StatusPending:
			s.Pending++
		case StatusCompleted:
			s.Completed++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

func (l List) clone() List {
	out := l
	out.Contacts = append([]Contact(nil), l.Contacts...)
	return out
}

func (l List) indexOf(contactID string) int {
	for i, c := range l.Contacts {
		if c.ID == contactID {
			return i
		}
	}
	return -1
}

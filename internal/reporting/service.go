package reporting

import (
	"context"
	"errors"
	"math"
	"time"

	"voice-campaigns/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts where call records come from.
// Implementations return the full, unfiltered record set.
type Repository interface {
	ListCalls(ctx context.Context) ([]calls.Call, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) Dashboard(ctx context.Context, req DashboardRequest) (DashboardStats, error) {
	if s.repo == nil {
		return DashboardStats{}, errors.New("reporting: repository not configured")
	}
	rows, err := s.repo.ListCalls(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	return Summarize(rows, now, req.Location), nil
}

// Summarize computes the dashboard aggregates over records.
func Summarize(rows []calls.Call, now time.Time, loc *time.Location) DashboardStats {
	today := calls.Day(now, loc)

	var out DashboardStats
	completedDuration := 0
	for _, c := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += c.Duration
		if calls.Day(c.CreatedAt, loc) == today {
			out.TodayCalls++
		}
		switch c.Status {
		case calls.CallStatusCompleted:
			out.CompletedCalls++
			completedDuration += c.Duration
		case calls.CallStatusFailed:
			out.FailedCalls++
		case calls.CallStatusInProgress:
			out.InProgressCalls++
		case calls.CallStatusRinging, calls.CallStatusQueued:
			out.PendingCalls++
		}
	}
	if out.CompletedCalls > 0 {
		out.AverageDurationSeconds = roundDiv(completedDuration, out.CompletedCalls)
	}
	if out.TotalCalls > 0 {
		out.SuccessRate = roundDiv(out.CompletedCalls*100, out.TotalCalls)
	}
	return out
}

// Progress derives percentages from campaign counters.
func Progress(total, called, successful, failed int) CampaignProgress {
	out := CampaignProgress{
		TotalContacts:   total,
		CalledContacts:  called,
		SuccessfulCalls: successful,
		FailedCalls:     failed,
	}
	if total > 0 {
		out.PercentComplete = roundDiv(called*100, total)
	}
	if called > 0 {
		out.SuccessRate = roundDiv(successful*100, called)
	}
	return out
}

// roundDiv rounds half away from zero, matching Math.round for non-negative values.
func roundDiv(num, den int) int {
	return int(math.Round(float64(num) / float64(den)))
}

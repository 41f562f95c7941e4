package reporting

import (
	"context"
	"testing"
	"time"

	"voice-campaigns/internal/calls"
)

func TestDashboard_SampleData(t *testing.T) {
	now := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	repo := NewMemoryRepo()
	repo.Calls = calls.SampleCalls(now)
	svc := NewService(repo)

	out, err := svc.Dashboard(context.Background(), DashboardRequest{Now: now, Location: time.UTC})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 3 {
		t.Fatalf("expected 3 calls, got %d", out.TotalCalls)
	}
	// (245 + 180) / 2 = 212.5 -> 213
	if out.AverageDurationSeconds != 213 {
		t.Fatalf("expected avg 213, got %d", out.AverageDurationSeconds)
	}
	// 2/3 = 66.67% -> 67
	if out.SuccessRate != 67 {
		t.Fatalf("expected success rate 67, got %d", out.SuccessRate)
	}
	if out.TodayCalls != 3 {
		t.Fatalf("expected 3 today, got %d", out.TodayCalls)
	}
}

func TestSummarize_EmptyIsZero(t *testing.T) {
	out := Summarize(nil, time.Now(), time.UTC)
	if out.TotalCalls != 0 || out.AverageDurationSeconds != 0 || out.SuccessRate != 0 || out.TodayCalls != 0 {
		t.Fatalf("expected zeros, got %+v", out)
	}
}

func TestSummarize_AverageIgnoresFailedCalls(t *testing.T) {
	now := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	rows := []calls.Call{
		{ID: "a", Status: calls.CallStatusCompleted, Duration: 100, CreatedAt: now},
		{ID: "b", Status: calls.CallStatusFailed, Duration: 900, CreatedAt: now.Add(-48 * time.Hour)},
	}
	out := Summarize(rows, now, time.UTC)
	if out.AverageDurationSeconds != 100 {
		t.Fatalf("expected avg 100, got %d", out.AverageDurationSeconds)
	}
	if out.SuccessRate != 50 || out.TodayCalls != 1 {
		t.Fatalf("unexpected stats: %+v", out)
	}
}

func TestProgress(t *testing.T) {
	p := Progress(3, 2, 1, 1)
	if p.PercentComplete != 67 || p.SuccessRate != 50 {
		t.Fatalf("unexpected progress: %+v", p)
	}
	if z := Progress(0, 0, 0, 0); z.PercentComplete != 0 || z.SuccessRate != 0 {
		t.Fatalf("expected zeros, got %+v", z)
	}
}

func TestDashboard_RequiresRepo(t *testing.T) {
	if _, err := NewService(nil).Dashboard(context.Background(), DashboardRequest{}); err == nil {
		t.Fatalf("expected error")
	}
}

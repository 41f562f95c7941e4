package reporting

import "time"

// DashboardRequest requests the dashboard aggregates. Now and Location
// decide which records count as "today"; zero values mean time.Now and time.Local.
type DashboardRequest struct {
	Now      time.Time
	Location *time.Location
}

// DashboardStats are computed over the full record set, never the filtered view.
type DashboardStats struct {
	TotalCalls int `json:"totalCalls"`

	// AverageDurationSeconds averages completed calls only, rounded.
	AverageDurationSeconds int `json:"avgDuration"`

	// SuccessRate is round(completed/total*100), 0 when there are no calls.
	SuccessRate int `json:"successRate"`
	TodayCalls  int `json:"todayCalls"`

	CompletedCalls  int `json:"completedCalls"`
	FailedCalls     int `json:"failedCalls"`
	InProgressCalls int `json:"inProgressCalls"`
	PendingCalls    int `json:"pendingCalls"`

	TotalDurationSeconds int `json:"totalDuration"`
}

// CampaignProgress summarizes a campaign's counters.
type CampaignProgress struct {
	TotalContacts   int `json:"totalContacts"`
	CalledContacts  int `json:"calledContacts"`
	SuccessfulCalls int `json:"successfulCalls"`
	FailedCalls     int `json:"failedCalls"`

	// PercentComplete is round(called/total*100).
	PercentComplete int `json:"percentComplete"`
	// SuccessRate is round(successful/called*100).
	SuccessRate int `json:"successRate"`
}

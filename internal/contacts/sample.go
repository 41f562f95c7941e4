package contacts

import "time"

// SampleList is seeded on first start so the dashboard is not empty.
func SampleList(now time.Time) List {
	return List{
		ID:          "list_1",
		Name:        "Q1 2024 Prospects",
		Description: "High-value prospects for Q1 campaign",
		CreatedAt:   now,
		Contacts: []Contact{
			{
				ID:       "c1",
				Name:     "Alice Johnson",
				Phone:    "+1234567890",
				Email:    "alice@example.com",
				Context:  "Interested in premium package, previous customer",
				Priority: PriorityHigh,
				Status:   StatusPending,
			},
			{
				ID:       "c2",
				Name:     "Bob Smith",
				Phone:    "+1987654321",
				Email:    "bob@example.com",
				Context:  "New lead from website form, looking for basic plan",
				Priority: PriorityMedium,
				Status:   StatusPending,
			},
		},
	}
}

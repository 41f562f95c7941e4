package calls

import "time"

// SampleCalls returns the demo records shown when the calling API has no data.
// Times are relative to now.
func SampleCalls(now time.Time) []Call {
	at := func(d time.Duration) time.Time { return now.Add(-d) }
	ended := func(d time.Duration) *time.Time { t := now.Add(-d); return &t }

	return []Call{
		{
			ID:             "1",
			CustomerNumber: "+1234567890",
			CustomerName:   "John Smith",
			Duration:       245,
			Status:         CallStatusCompleted,
			CreatedAt:      at(time.Hour),
			EndedAt:        ended(time.Hour - 5*time.Second),
			AssistantID:    "assistant-1",
			Transcript: "Agent: Hello, this is Sarah from ABC Company. How are you today?\n" +
				"Customer: Hi Sarah, I'm doing well, thank you.\n" +
				"Agent: Great! I'm calling to tell you about our new product line...\n" +
				"Customer: That sounds interesting. Can you tell me more?\n" +
				"Agent: Absolutely! Our new product offers amazing features that can help streamline your business processes...",
			Summary:     "Successful product introduction call with interested customer",
			Outcome:     "appointment_scheduled",
			NextActions: "Follow up with product demo on Friday at 2 PM",
			Tags:        []string{},
		},
		{
			ID:             "2",
			CustomerNumber: "+1987654321",
			CustomerName:   "Jane Doe",
			Duration:       180,
			Status:         CallStatusCompleted,
			CreatedAt:      at(2 * time.Hour),
			EndedAt:        ended(2*time.Hour - 3*time.Minute),
			AssistantID:    "assistant-1",
			Transcript: "Agent: Hello, this is Sarah from ABC Company.\n" +
				"Customer: I'm not interested in any sales calls.\n" +
				"Agent: I understand, but this is actually about a service you inquired about last week.\n" +
				"Customer: Oh, which service was that?\n" +
				"Agent: The consultation service for business optimization...",
			Summary:     "Customer initially resistant but became interested in consultation",
			Outcome:     "information_provided",
			NextActions: "Send information packet via email",
			Tags:        []string{},
		},
		{
			ID:             "3",
			CustomerNumber: "+1555666777",
			CustomerName:   "Mike Johnson",
			Duration:       0,
			Status:         CallStatusFailed,
			CreatedAt:      at(3 * time.Hour),
			EndedAt:        ended(3 * time.Hour),
			AssistantID:    "assistant-1",
			Summary:        "Call failed - no answer",
			Outcome:        "callback_requested",
			NextActions:    "Retry call tomorrow afternoon",
			Tags:           []string{},
		},
	}
}

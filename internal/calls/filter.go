package calls

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Filter selects records by status and calendar day.
// Status "" or "all" matches every record. Date is YYYY-MM-DD or empty.
type Filter struct {
	Status string
	Date   string
}

// Apply returns the records matching f in their original order.
// Days are computed in loc. Apply is idempotent.
func Apply(records []Call, f Filter, loc *time.Location) ([]Call, error) {
	if loc == nil {
		loc = time.Local
	}
	status := strings.TrimSpace(f.Status)
	date := strings.TrimSpace(f.Date)
	if date != "" {
		if _, err := time.ParseInLocation(dateLayout, date, loc); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidArgument)
		}
	}

	out := make([]Call, 0, len(records))
	for _, c := range records {
		if status != "" && status != "all" && string(c.Status) != status {
			continue
		}
		if date != "" && Day(c.CreatedAt, loc) != date {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Day formats t as YYYY-MM-DD in loc.
func Day(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dateLayout)
}

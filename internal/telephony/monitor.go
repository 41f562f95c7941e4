package telephony

import (
	"context"
	"errors"
	"time"
)

// Monitor polls GetCall every interval until the call reaches a terminal
// status or ctx is done. onStatus is called whenever the status changes.
// It returns the last observed call.
func Monitor(ctx context.Context, p Provider, callID string, interval time.Duration, onStatus func(CallDetail)) (CallDetail, error) {
	if p == nil {
		return CallDetail{}, errors.New("telephony: provider is nil")
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}

	var last CallDetail
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-timer.C:
		}

		d, err := p.GetCall(ctx, callID)
		if err != nil {
			return last, err
		}
		if d.Status != last.Status && onStatus != nil {
			onStatus(d)
		}
		last = d
		if IsTerminal(d.Status) {
			return last, nil
		}
		timer.Reset(interval)
	}
}

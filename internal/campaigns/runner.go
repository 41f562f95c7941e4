package campaigns

import (
	"context"
	"fmt"

	"voice-campaigns/internal/activity"
	"voice-campaigns/internal/contacts"
	"voice-campaigns/internal/telephony"
	"voice-campaigns/pkg/logger"
)

// sweep visits the campaign's contacts in list order and reports whether it
// reached the end. Pause and stop are observed at the top of each iteration,
// during the delay between contacts, and before a retry.
func (m *Manager) sweep(ctx context.Context, id string, tok *Token) bool {
	m.mu.Lock()
	i := m.indexOf(id)
	if i < 0 {
		m.mu.Unlock()
		return false
	}
	c := m.campaigns[i].clone()
	m.mu.Unlock()
	stream := activity.CampaignStream(id)

	list, err := m.contacts.Get(c.ListID)
	if err != nil {
		m.journal.Log(ctx, stream, activity.LevelError, "Contact list not found")
		m.mu.Lock()
		if i := m.indexOf(id); i >= 0 && m.campaigns[i].Status == StatusActive {
			_, _ = m.setStatusLocked(ctx, i, StatusStopped)
		}
		m.mu.Unlock()
		return false
	}

	targets := c.targets(list)
	for i, ct := range targets {
		if tok.Requested() != RequestNone || ctx.Err() != nil {
			return false
		}
		if err := m.limiter.Refresh(ctx); err != nil {
			logger.From(ctx).Error("run slot refresh failed", "campaign_id", id, "err", err)
		}
		if ct.Status == contacts.StatusCompleted {
			continue
		}
		if !m.callContact(ctx, tok, c, ct) {
			return false
		}
		if i < len(targets)-1 {
			m.sleep(ctx, c.delay(), tok.Done())
		}
	}
	return tok.Requested() == RequestNone && ctx.Err() == nil
}

// callContact runs the per-contact protocol and records its outcome.
// It returns false only when ctx was cancelled mid-contact.
func (m *Manager) callContact(ctx context.Context, tok *Token, c Campaign, ct contacts.Contact) bool {
	stream := activity.CampaignStream(c.ID)

	if err := m.contacts.SetContactStatus(ctx, c.ListID, ct.ID, contacts.StatusCalling); err != nil {
		m.journal.Log(ctx, stream, activity.LevelError, fmt.Sprintf("Skipping %s: %v", ct.Name, err))
		return true
	}
	m.update(ctx, c.ID, func(c *Campaign) { c.forget(ct.ID) })
	m.journal.Log(ctx, stream, activity.LevelInfo, fmt.Sprintf("Calling %s (%s)...", ct.Name, ct.Phone))

	var err error
	for attempt := 0; ; attempt++ {
		err = m.dial(ctx, c, ct)
		if err == nil || ctx.Err() != nil || attempt >= c.Retries || tok.Requested() != RequestNone {
			break
		}
		if !m.sleep(ctx, c.delay(), tok.Done()) {
			break
		}
		m.journal.Log(ctx, stream, activity.LevelInfo, fmt.Sprintf("Retrying %s (attempt %d of %d)", ct.Name, attempt+2, c.Retries+1))
	}

	if ctx.Err() != nil {
		// Shutdown mid-call: leave the contact for the next run.
		_ = m.contacts.SetContactStatus(context.WithoutCancel(ctx), c.ListID, ct.ID, contacts.StatusPending)
		return false
	}

	status := contacts.StatusCompleted
	if err != nil {
		status = contacts.StatusFailed
	}
	if serr := m.contacts.SetContactStatus(ctx, c.ListID, ct.ID, status); serr != nil {
		logger.From(ctx).Error("contact status update failed", "contact_id", ct.ID, "err", serr)
	}
	m.update(ctx, c.ID, func(c *Campaign) { c.record(ct.ID, err == nil) })

	if err != nil {
		m.journal.Log(ctx, stream, activity.LevelError, fmt.Sprintf("Failed to call %s: %v", ct.Name, err))
		return true
	}
	m.journal.Log(ctx, stream, activity.LevelSuccess, fmt.Sprintf("Successfully called %s", ct.Name))
	return true
}

// dial creates a per-contact assistant and places the call.
func (m *Manager) dial(ctx context.Context, c Campaign, ct contacts.Contact) error {
	prompt := c.Script + "\n\nContact Context: " + ct.Context + "\nContact Name: " + ct.Name + "\nContact Email: " + ct.Email
	first := fmt.Sprintf("Hello %s, this is %s. How are you today?", ct.Name, c.Agent)

	assistantID, err := m.provider.CreateAssistant(ctx, telephony.NewAssistant(c.Agent, prompt, first, m.opts.Profile))
	if err != nil {
		return err
	}
	d, err := m.provider.StartCall(ctx, telephony.StartCallRequest{
		AssistantID:   assistantID,
		PhoneNumberID: m.opts.PhoneNumberID,
		Customer:      telephony.Customer{Number: ct.Phone, Name: ct.Name},
	})
	if err != nil {
		return err
	}
	if m.opts.OnCallStarted != nil {
		m.opts.OnCallStarted(ctx, d)
	}
	return nil
}

// finish completes a fully swept campaign and frees the run slot.
func (m *Manager) finish(ctx context.Context, id string, tok *Token, swept bool) {
	completed := false
	m.mu.Lock()
	if i := m.indexOf(id); i >= 0 && swept && tok.Requested() == RequestNone && m.campaigns[i].Status == StatusActive {
		if _, err := m.setStatusLocked(ctx, i, StatusCompleted); err != nil {
			logger.From(ctx).Error("campaign persist failed", "campaign_id", id, "err", err)
		}
		completed = true
	}
	delete(m.running, id)
	m.mu.Unlock()

	if err := m.limiter.Release(context.WithoutCancel(ctx)); err != nil {
		logger.From(ctx).Error("run slot release failed", "campaign_id", id, "err", err)
	}
	if completed {
		m.journal.Log(ctx, activity.CampaignStream(id), activity.LevelSuccess, "Campaign completed!")
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"voice-campaigns/internal/activity"
	"voice-campaigns/internal/auth"
	"voice-campaigns/internal/calls"
	"voice-campaigns/internal/campaigns"
	"voice-campaigns/internal/config"
	"voice-campaigns/internal/contacts"
	"voice-campaigns/internal/httpapi"
	"voice-campaigns/internal/outbound"
	"voice-campaigns/internal/reporting"
	"voice-campaigns/internal/store"
	"voice-campaigns/internal/telephony"
	"voice-campaigns/internal/web"
)

// app holds the wired services. No globals: everything hangs off this struct.
type app struct {
	cfg     config.Config
	backend *store.Backend

	provider  telephony.Provider
	calls     *calls.Service
	contacts  *contacts.Service
	campaigns *campaigns.Manager
	outbound  *outbound.Service
	reporting *reporting.Service
	auth      *auth.Manager
	pages     *web.Pages
}

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg}

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.backend = backend

	if cfg.DemoMode() {
		log.Warn("calling API not configured, demo mode enabled")
		a.provider = telephony.NewSimulator()
	} else {
		a.provider = telephony.NewVapiClient(cfg.Vapi)
	}
	if err := a.provider.HealthCheck(ctx); err != nil {
		// Not fatal: the dashboard falls back to sample data and calls report the error.
		log.Warn("calling API check failed", "provider", a.provider.Name(), "err", telephony.FriendlyError(err))
	} else {
		log.Info("calling API ready", "provider", a.provider.Name())
	}

	if cfg.AuthEnabled() {
		a.auth, err = auth.NewManager(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
	}

	a.pages, err = web.NewPages(cfg.App.StaticDir)
	if err != nil {
		return nil, err
	}

	profile := telephony.AssistantProfile{
		ModelProvider: cfg.Vapi.ModelProvider,
		Model:         cfg.Vapi.Model,
		VoiceProvider: cfg.Vapi.VoiceProvider,
		VoiceID:       cfg.Vapi.VoiceID,
	}
	journal := activity.NewService(activity.NewMemoryRepo())

	a.calls = calls.NewService(a.provider, backend.Store, cfg.App.Location)
	a.reporting = reporting.NewService(reporting.CallsRepo{Calls: a.calls})
	a.contacts = contacts.NewService(backend.Store)

	// Calls started by the runner and the demo form show up on the dashboard
	// without waiting for the next refresh.
	track := func(ctx context.Context, d telephony.CallDetail) {
		if err := a.calls.ApplyEvent(ctx, telephony.CallEvent{Type: telephony.MessageStatusUpdate, Call: d}); err != nil {
			log.Warn("call tracking failed", "call_id", d.ID, "err", err)
		}
	}

	var limiter campaigns.Limiter
	if backend.Redis != nil {
		rl, err := campaigns.NewRedisLimiter(backend.Redis, campaigns.DefaultSlotKey, campaigns.DefaultSlotTTL)
		if err != nil {
			return nil, fmt.Errorf("run slot: %w", err)
		}
		limiter = rl
	}
	a.campaigns = campaigns.NewManager(backend.Store, a.contacts, a.provider, journal, limiter, campaigns.Options{
		PhoneNumberID: cfg.Vapi.PhoneNumberID,
		Profile:       profile,
		OnCallStarted: track,
	})
	a.outbound = outbound.NewService(a.provider, journal, outbound.Options{
		AssistantID:   cfg.Vapi.AssistantID,
		PhoneNumberID: cfg.Vapi.PhoneNumberID,
		Profile:       profile,
		PollInterval:  cfg.Calls.PollInterval,
		DemoMode:      cfg.DemoMode(),
		OnStatus:      track,
	})

	if err := a.contacts.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading contact lists: %w", err)
	}
	if err := a.contacts.SeedIfEmpty(ctx); err != nil {
		return nil, fmt.Errorf("seeding contact lists: %w", err)
	}
	if err := a.campaigns.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading campaigns: %w", err)
	}
	res := a.calls.Refresh(ctx)
	log.Info("call records loaded", "count", res.Count, "sample_data", res.SampleData)

	return a, nil
}

func (a *app) handlers(started time.Time) httpapi.Handlers {
	return httpapi.Handlers{
		Config:    a.cfg,
		Calls:     a.calls,
		Reporting: a.reporting,
		Contacts:  a.contacts,
		Campaigns: a.campaigns,
		Outbound:  a.outbound,
		Started:   started,
	}
}

func (a *app) webhook() telephony.WebhookHandler {
	return telephony.WebhookHandler{Secret: a.cfg.Vapi.WebhookSecret, Sink: a.calls.ApplyEvent}
}

// shutdown stops background work, then closes the backend.
func (a *app) shutdown(ctx context.Context) error {
	var firstErr error
	if err := a.campaigns.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if err := a.outbound.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.backend.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

package outbound

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"voice-campaigns/internal/activity"
	"voice-campaigns/internal/telephony"
	"voice-campaigns/pkg/logger"
)

var ErrInvalidForm = errors.New("outbound: invalid form")

var phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)

// Request is the demo call form.
type Request struct {
	AgentName        string `json:"agentName"`
	AgentDescription string `json:"agentDescription"`
	PhoneNumber      string `json:"phoneNumber"`
	Goal             string `json:"goal"`
}

// Validate trims the form and checks required fields and the phone format.
func (r *Request) Validate() error {
	r.AgentName = strings.TrimSpace(r.AgentName)
	r.AgentDescription = strings.TrimSpace(r.AgentDescription)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.Goal = strings.TrimSpace(r.Goal)

	switch {
	case r.AgentName == "":
		return fmt.Errorf("%w: agent name is required", ErrInvalidForm)
	case r.AgentDescription == "":
		return fmt.Errorf("%w: agent description is required", ErrInvalidForm)
	case r.PhoneNumber == "":
		return fmt.Errorf("%w: phone number is required", ErrInvalidForm)
	case !phonePattern.MatchString(r.PhoneNumber):
		return fmt.Errorf("%w: please enter a valid phone number", ErrInvalidForm)
	}
	return nil
}

// Result describes a started call.
type Result struct {
	CallID      string `json:"callId"`
	AssistantID string `json:"assistantId"`
	Status      string `json:"status"`
	DemoMode    bool   `json:"demoMode"`
}

// Journal receives outbound log lines.
type Journal interface {
	Log(ctx context.Context, stream string, level activity.Level, message string)
	List(ctx context.Context, stream string) ([]activity.Event, error)
}

type Options struct {
	// AssistantID, when set, is used instead of creating an assistant per call.
	AssistantID   string
	PhoneNumberID string
	Profile       telephony.AssistantProfile
	PollInterval  time.Duration
	DemoMode      bool

	// OnStatus, when set, receives the started call and every status change.
	OnStatus func(ctx context.Context, d telephony.CallDetail)
}

// Service places single demo calls and monitors them in the background.
type Service struct {
	provider telephony.Provider
	journal  Journal
	opts     Options

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(p telephony.Provider, journal Journal, opts Options) *Service {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{provider: p, journal: journal, opts: opts, runCtx: ctx, cancel: cancel}
}

// Initiate validates the form, obtains an assistant, starts the call and
// begins monitoring it. Provider failures are logged and returned.
func (s *Service) Initiate(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	s.logf(ctx, activity.LevelInfo, "Starting outbound call process")
	s.logf(ctx, activity.LevelInfo, "Configuring agent: %s", req.AgentName)
	s.logf(ctx, activity.LevelInfo, "Target number: %s", req.PhoneNumber)
	if req.Goal != "" {
		s.logf(ctx, activity.LevelInfo, "Call objective: %s", req.Goal)
	}
	if s.opts.DemoMode {
		s.logf(ctx, activity.LevelInfo, "Running demonstration (VAPI not configured)")
	} else {
		s.logf(ctx, activity.LevelInfo, "Making real VAPI call")
	}

	assistantID := s.opts.AssistantID
	if assistantID != "" {
		s.logf(ctx, activity.LevelInfo, "Using pre-configured assistant")
	} else {
		s.logf(ctx, activity.LevelInfo, "Creating custom AI assistant...")
		a := telephony.NewAssistant(
			req.AgentName,
			fmt.Sprintf("You are %s. %s", req.AgentName, req.AgentDescription),
			fmt.Sprintf("Hello! This is %s. How can I help you today?", req.AgentName),
			s.opts.Profile,
		)
		id, err := s.provider.CreateAssistant(ctx, a)
		if err != nil {
			s.logf(ctx, activity.LevelError, "Error creating assistant: %s", telephony.FriendlyError(err))
			return Result{}, err
		}
		assistantID = id
		s.logf(ctx, activity.LevelSuccess, "AI Assistant created successfully")
	}

	s.logf(ctx, activity.LevelInfo, "Initiating call to %s", req.PhoneNumber)
	d, err := s.provider.StartCall(ctx, telephony.StartCallRequest{
		AssistantID:   assistantID,
		PhoneNumberID: s.opts.PhoneNumberID,
		Customer:      telephony.Customer{Number: req.PhoneNumber},
	})
	if err != nil {
		s.logf(ctx, activity.LevelError, "Call failed: %s", telephony.FriendlyError(err))
		return Result{}, err
	}
	s.logf(ctx, activity.LevelSuccess, "Outbound call initiated successfully")
	s.logf(ctx, activity.LevelInfo, "Call ID: %s", d.ID)
	s.logf(ctx, activity.LevelInfo, "Monitoring call status...")
	if s.opts.OnStatus != nil {
		s.opts.OnStatus(ctx, d)
	}

	monCtx := logger.With(s.runCtx, logger.From(ctx).With("call_id", d.ID))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.monitor(monCtx, d.ID)
	}()

	return Result{CallID: d.ID, AssistantID: assistantID, Status: d.Status, DemoMode: s.opts.DemoMode}, nil
}

func (s *Service) monitor(ctx context.Context, callID string) {
	_, err := telephony.Monitor(ctx, s.provider, callID, s.opts.PollInterval, func(d telephony.CallDetail) {
		switch d.Status {
		case telephony.StatusRinging:
			s.logf(ctx, activity.LevelInfo, "Phone ringing...")
		case telephony.StatusInProgress:
			s.logf(ctx, activity.LevelInfo, "Call in progress")
		case telephony.StatusEnded:
			duration := "Unknown"
			if secs := d.DurationSeconds(); secs > 0 {
				duration = fmt.Sprintf("%ds", secs)
			}
			s.logf(ctx, activity.LevelSuccess, "Call ended - Duration: %s", duration)
			if sum := d.SummaryText(); sum != "" {
				s.logf(ctx, activity.LevelInfo, "Call summary: %s", sum)
			}
		case telephony.StatusFailed:
			reason := d.EndedReason
			if reason == "" {
				reason = "Unknown error"
			}
			s.logf(ctx, activity.LevelError, "Call failed: %s", reason)
		}
		if s.opts.OnStatus != nil {
			s.opts.OnStatus(ctx, d)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logf(ctx, activity.LevelError, "Status check error: %s", telephony.FriendlyError(err))
	}
}

// Log returns the outbound log, oldest first.
func (s *Service) Log(ctx context.Context) ([]activity.Event, error) {
	return s.journal.List(ctx, activity.StreamOutbound)
}

// Shutdown stops monitors and waits for them to return.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) logf(ctx context.Context, level activity.Level, format string, args ...any) {
	s.journal.Log(ctx, activity.StreamOutbound, level, fmt.Sprintf(format, args...))
}

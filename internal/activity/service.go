package activity

import (
	"context"
	"errors"
	"time"

	"voice-campaigns/pkg/logger"

	"github.com/google/uuid"
)

// Repository is the persistence contract for activity events.
// Streams are append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, stream string) ([]Event, error)
}

// Service records operator-visible activity. Callers treat logging as
// best-effort; failures are reported to the process log only.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("activity: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("activity: repository not configured")
	}
	if e.Stream == "" || e.Message == "" {
		return ErrInvalidEvent
	}
	if e.Level == "" {
		e.Level = LevelInfo
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// Log appends a message and mirrors it to the structured process log.
func (s *Service) Log(ctx context.Context, stream string, level Level, message string) {
	log := logger.From(ctx).With("stream", stream)
	switch level {
	case LevelError:
		log.Warn(message)
	default:
		log.Info(message)
	}
	if err := s.Append(ctx, Event{Stream: stream, Level: level, Message: message}); err != nil {
		log.Error("activity append failed", "err", err)
	}
}

func (s *Service) List(ctx context.Context, stream string) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("activity: repository not configured")
	}
	if stream == "" {
		return nil, ErrInvalidEvent
	}
	return s.repo.List(ctx, stream)
}

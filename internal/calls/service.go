package calls

import (
	"context"
	"errors"
	"sync"
	"time"

	"voice-campaigns/internal/store"
	"voice-campaigns/internal/telephony"
	"voice-campaigns/pkg/logger"
)

var (
	ErrNotFound        = errors.New("calls: not found")
	ErrInvalidArgument = errors.New("calls: invalid argument")
	ErrNoTranscript    = errors.New("calls: no transcript available")
)

// Service owns the in-memory call records shown on the dashboard.
// Operator annotations are persisted through the store and merged back
// onto records after every refresh.
type Service struct {
	provider telephony.Provider
	store    store.Store
	loc      *time.Location

	// clock is injectable for deterministic tests.
	clock func() time.Time

	mu          sync.RWMutex
	records     []Call
	sampleData  bool
	lastRefresh time.Time
}

func NewService(provider telephony.Provider, st store.Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{provider: provider, store: st, loc: loc, clock: time.Now, records: []Call{}}
}

// Location is the time zone used for calendar-day comparisons.
func (s *Service) Location() *time.Location { return s.loc }

// RefreshResult describes the outcome of a refresh.
type RefreshResult struct {
	Count       int       `json:"count"`
	SampleData  bool      `json:"sampleData"`
	RefreshedAt time.Time `json:"refreshedAt"`
	Error       string    `json:"error,omitempty"`
}

// Refresh reloads records from the provider. On error or an empty result
// the sample records are used instead and SampleData is reported.
func (s *Service) Refresh(ctx context.Context) RefreshResult {
	log := logger.From(ctx)
	now := s.clock()

	var (
		records  []Call
		fetchErr error
	)
	if s.provider == nil {
		fetchErr = errors.New("calls: provider not configured")
	} else {
		details, err := s.provider.ListCalls(ctx)
		fetchErr = err
		for _, d := range details {
			records = append(records, FromProvider(d))
		}
	}

	res := RefreshResult{RefreshedAt: now.UTC()}
	if fetchErr != nil || len(records) == 0 {
		if fetchErr != nil {
			log.Warn("call refresh failed, using sample data", "err", fetchErr)
			res.Error = fetchErr.Error()
		}
		records = SampleCalls(now)
		res.SampleData = true
	}

	s.mergeAnnotations(ctx, records)

	s.mu.Lock()
	s.records = records
	s.sampleData = res.SampleData
	s.lastRefresh = res.RefreshedAt
	s.mu.Unlock()

	res.Count = len(records)
	log.Debug("calls refreshed", "count", res.Count, "sample", res.SampleData)
	return res
}

func (s *Service) mergeAnnotations(ctx context.Context, records []Call) {
	if s.store == nil {
		return
	}
	anns, err := store.ListJSON[Annotation](ctx, s.store, store.CollectionCallAnnotations)
	if err != nil {
		logger.From(ctx).Warn("loading call annotations failed", "err", err)
		return
	}
	byID := make(map[string]Annotation, len(anns))
	for _, a := range anns {
		byID[a.CallID] = a
	}
	for i := range records {
		if a, ok := byID[records[i].ID]; ok {
			a.apply(&records[i])
		}
	}
}

// List returns the records matching f in original order.
func (s *Service) List(f Filter) ([]Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Apply(s.records, f, s.loc)
}

// All returns a copy of every record.
func (s *Service) All() []Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Call, len(s.records))
	copy(out, s.records)
	return out
}

// SampleData reports whether the current records are sample records.
func (s *Service) SampleData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sampleData
}

// LastRefresh is the time of the last successful or fallback refresh.
func (s *Service) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

func (s *Service) Get(id string) (Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.records {
		if c.ID == id {
			return c, nil
		}
	}
	return Call{}, ErrNotFound
}

// Update writes an annotation onto the record with id and persists it.
func (s *Service) Update(ctx context.Context, id string, a Annotation) (Call, error) {
	if id == "" {
		return Call{}, ErrInvalidArgument
	}
	a, err := a.Normalize()
	if err != nil {
		return Call{}, err
	}
	a.CallID = id
	a.UpdatedAt = s.clock().UTC()

	s.mu.Lock()
	idx := -1
	for i := range s.records {
		if s.records[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return Call{}, ErrNotFound
	}
	a.apply(&s.records[idx])
	out := s.records[idx]
	s.mu.Unlock()

	if s.store != nil {
		if err := store.PutJSON(ctx, s.store, store.CollectionCallAnnotations, id, a); err != nil {
			return Call{}, err
		}
	}
	logger.From(ctx).Info("call annotated", "call_id", id)
	return out, nil
}

// Transcript returns the transcript export for a record.
func (s *Service) Transcript(id string) (TranscriptExport, error) {
	c, err := s.Get(id)
	if err != nil {
		return TranscriptExport{}, err
	}
	return ExportTranscript(c, s.loc)
}

// SearchTranscript searches a record's transcript.
func (s *Service) SearchTranscript(id, term string) (SearchResult, error) {
	c, err := s.Get(id)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchTranscript(c.Transcript, term)
}

// Live fetches the current provider view of a call.
func (s *Service) Live(ctx context.Context, id string) (Call, error) {
	if s.provider == nil {
		return Call{}, errors.New("calls: provider not configured")
	}
	d, err := s.provider.GetCall(ctx, id)
	if err != nil {
		return Call{}, err
	}
	return FromProvider(d), nil
}

// ApplyEvent upserts a record from a provider server message. The first
// real event replaces sample data.
func (s *Service) ApplyEvent(ctx context.Context, ev telephony.CallEvent) error {
	if ev.Call.ID == "" {
		return ErrInvalidArgument
	}
	incoming := FromProvider(ev.Call)
	if incoming.CreatedAt.IsZero() {
		incoming.CreatedAt = s.clock().UTC()
	}

	// Annotations win over provider fields for records first seen here.
	var (
		ann    Annotation
		hasAnn bool
	)
	if s.store != nil {
		err := store.GetJSON(ctx, s.store, store.CollectionCallAnnotations, incoming.ID, &ann)
		switch {
		case err == nil:
			hasAnn = true
		case !errors.Is(err, store.ErrNotFound):
			logger.From(ctx).Warn("loading call annotation failed", "call_id", incoming.ID, "err", err)
		}
	}

	s.mu.Lock()
	if s.sampleData {
		s.records = []Call{}
		s.sampleData = false
	}
	idx := -1
	for i := range s.records {
		if s.records[i].ID == incoming.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		if hasAnn {
			ann.apply(&incoming)
		}
		s.records = append(s.records, incoming)
	} else {
		mergeProviderFields(&s.records[idx], incoming)
	}
	s.mu.Unlock()

	logger.From(ctx).Info("call event applied", "call_id", incoming.ID, "type", ev.Type, "status", incoming.Status)
	return nil
}

// mergeProviderFields copies provider-owned fields, keeping existing values
// when the event did not carry them.
func mergeProviderFields(dst *Call, src Call) {
	dst.Status = src.Status
	if src.Duration > 0 {
		dst.Duration = src.Duration
	}
	if src.EndedAt != nil {
		dst.EndedAt = src.EndedAt
	}
	if src.EndedReason != "" {
		dst.EndedReason = src.EndedReason
	}
	if src.Transcript != "" {
		dst.Transcript = src.Transcript
	}
	if src.Summary != "" && dst.Summary == "" {
		dst.Summary = src.Summary
	}
	if dst.CustomerNumber == "" {
		dst.CustomerNumber = src.CustomerNumber
	}
	if dst.AssistantID == "" {
		dst.AssistantID = src.AssistantID
	}
}

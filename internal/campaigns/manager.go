package campaigns

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"voice-campaigns/internal/activity"
	"voice-campaigns/internal/contacts"
	"voice-campaigns/internal/store"
	"voice-campaigns/internal/telephony"
	"voice-campaigns/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("campaigns: not found")
	ErrInvalidArgument   = errors.New("campaigns: invalid argument")
	ErrInvalidTransition = errors.New("campaigns: invalid status transition")
	ErrRunnerBusy        = errors.New("campaigns: another campaign is running")
)

// ContactSource is the contact list service as seen by the runner.
type ContactSource interface {
	Get(listID string) (contacts.List, error)
	SetContactStatus(ctx context.Context, listID, contactID string, status contacts.Status) error
}

// ActivityLog receives campaign log lines.
type ActivityLog interface {
	Log(ctx context.Context, stream string, level activity.Level, message string)
	List(ctx context.Context, stream string) ([]activity.Event, error)
}

// Options configures the calls a runner places.
type Options struct {
	PhoneNumberID string
	Profile       telephony.AssistantProfile

	// OnCallStarted, when set, receives every call the provider accepted.
	OnCallStarted func(ctx context.Context, d telephony.CallDetail)
}

type run struct {
	token *Token
	done  chan struct{}
}

// Manager owns campaigns and drives at most one sweep at a time.
type Manager struct {
	store    store.Store
	contacts ContactSource
	provider telephony.Provider
	journal  ActivityLog
	limiter  Limiter
	opts     Options

	// clock and sleep are injectable for deterministic tests.
	clock func() time.Time
	sleep func(ctx context.Context, d time.Duration, interrupt <-chan struct{}) bool

	// runCtx outlives requests; Shutdown cancels it.
	runCtx    context.Context
	cancelRun context.CancelFunc
	wg        sync.WaitGroup

	mu        sync.Mutex
	campaigns []Campaign
	running   map[string]*run
}

func NewManager(st store.Store, src ContactSource, p telephony.Provider, journal ActivityLog, lim Limiter, opts Options) *Manager {
	if lim == nil {
		lim = NewLocalLimiter()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:     st,
		contacts:  src,
		provider:  p,
		journal:   journal,
		limiter:   lim,
		opts:      opts,
		clock:     time.Now,
		sleep:     sleepInterruptible,
		runCtx:    ctx,
		cancelRun: cancel,
		campaigns: []Campaign{},
		running:   map[string]*run{},
	}
}

// Load reads campaigns from the store. A campaign left active by a previous
// process is marked paused so an operator can resume it.
func (m *Manager) Load(ctx context.Context) error {
	cs, err := store.ListJSON[Campaign](ctx, m.store, store.CollectionCampaigns)
	if err != nil {
		return fmt.Errorf("campaigns: loading: %w", err)
	}
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].CreatedAt.Before(cs[j].CreatedAt) })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns = cs
	for i := range m.campaigns {
		if m.campaigns[i].Status != StatusActive {
			continue
		}
		m.campaigns[i].Status = StatusPaused
		m.campaigns[i].UpdatedAt = m.clock().UTC()
		if err := m.persistLocked(ctx, m.campaigns[i]); err != nil {
			return err
		}
		logger.From(ctx).Warn("campaign interrupted by restart; paused", "campaign_id", m.campaigns[i].ID)
	}
	return nil
}

// Create stores a new campaign. Unless the request is scheduled the sweep
// starts immediately; ErrRunnerBusy is returned, and nothing is created,
// when another sweep holds the run slot.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (View, error) {
	req = req.normalize()
	if req.Name == "" || req.ListID == "" || req.Agent == "" || req.Script == "" {
		return View{}, fmt.Errorf("%w: name, contact list, agent and script are required", ErrInvalidArgument)
	}
	if req.DelaySeconds < 0 || req.Retries < 0 {
		return View{}, fmt.Errorf("%w: delay and retries must not be negative", ErrInvalidArgument)
	}
	list, err := m.contacts.Get(req.ListID)
	if errors.Is(err, contacts.ErrNotFound) {
		return View{}, fmt.Errorf("%w: selected contact list not found", ErrInvalidArgument)
	}
	if err != nil {
		return View{}, err
	}

	now := m.clock().UTC()
	c := Campaign{
		ID:           uuid.NewString(),
		Name:         req.Name,
		ListID:       list.ID,
		ListName:     list.Name,
		Agent:        req.Agent,
		Goal:         req.Goal,
		Script:       req.Script,
		DelaySeconds: req.DelaySeconds,
		Retries:      req.Retries,
		ContactIDs:   dedupe(req.ContactIDs),
		Status:       StatusScheduled,
		StartTime:    req.StartTime,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	targets := c.targets(list)
	if len(c.ContactIDs) > 0 && len(targets) != len(c.ContactIDs) {
		return View{}, fmt.Errorf("%w: selected contacts are not all in the list", ErrInvalidArgument)
	}
	if len(targets) == 0 {
		return View{}, fmt.Errorf("%w: contact list is empty", ErrInvalidArgument)
	}
	// Pin the sweep to the contacts present now; later additions to the list
	// are not part of this campaign.
	c.ContactIDs = make([]string, 0, len(targets))
	for _, ct := range targets {
		c.ContactIDs = append(c.ContactIDs, ct.ID)
	}
	c.TotalContacts = len(c.ContactIDs)

	m.mu.Lock()
	defer m.mu.Unlock()

	if req.Scheduled {
		if err := m.persistLocked(ctx, c); err != nil {
			return View{}, err
		}
		m.campaigns = append(m.campaigns, c)
		m.journal.Log(ctx, activity.CampaignStream(c.ID), activity.LevelInfo, fmt.Sprintf("Campaign %q scheduled", c.Name))
		return c.view(false), nil
	}

	if err := m.acquireLocked(ctx); err != nil {
		return View{}, err
	}
	c.StartTime = &now
	m.campaigns = append(m.campaigns, c)
	out, err := m.launchLocked(ctx, len(m.campaigns)-1)
	if err != nil {
		m.campaigns = m.campaigns[:len(m.campaigns)-1]
		return View{}, err
	}
	return out, nil
}

// Start activates a scheduled campaign.
func (m *Manager) Start(ctx context.Context, id string) (View, error) {
	return m.activate(ctx, id, StatusScheduled)
}

// Resume re-runs a paused campaign. Completed contacts are skipped.
func (m *Manager) Resume(ctx context.Context, id string) (View, error) {
	return m.activate(ctx, id, StatusPaused)
}

func (m *Manager) activate(ctx context.Context, id string, from Status) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return View{}, ErrNotFound
	}
	if m.campaigns[i].Status != from {
		return View{}, fmt.Errorf("%w: cannot activate a %s campaign", ErrInvalidTransition, m.campaigns[i].Status)
	}
	if err := m.acquireLocked(ctx); err != nil {
		return View{}, err
	}
	if m.campaigns[i].StartTime == nil {
		now := m.clock().UTC()
		m.campaigns[i].StartTime = &now
	}
	return m.launchLocked(ctx, i)
}

// Pause asks the running sweep to stop after its current contact.
func (m *Manager) Pause(ctx context.Context, id string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return View{}, ErrNotFound
	}
	if m.campaigns[i].Status != StatusActive {
		return View{}, fmt.Errorf("%w: cannot pause a %s campaign", ErrInvalidTransition, m.campaigns[i].Status)
	}
	if r := m.running[id]; r != nil {
		r.token.Pause()
	}
	out, err := m.setStatusLocked(ctx, i, StatusPaused)
	if err != nil {
		return View{}, err
	}
	m.journal.Log(ctx, activity.CampaignStream(id), activity.LevelInfo, "Campaign paused")
	return out, nil
}

// Stop ends a campaign for good. An in-flight call still completes.
func (m *Manager) Stop(ctx context.Context, id string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return View{}, ErrNotFound
	}
	switch m.campaigns[i].Status {
	case StatusScheduled, StatusActive, StatusPaused:
	default:
		return View{}, fmt.Errorf("%w: cannot stop a %s campaign", ErrInvalidTransition, m.campaigns[i].Status)
	}
	if r := m.running[id]; r != nil {
		r.token.Stop()
	}
	out, err := m.setStatusLocked(ctx, i, StatusStopped)
	if err != nil {
		return View{}, err
	}
	m.journal.Log(ctx, activity.CampaignStream(id), activity.LevelInfo, "Campaign stopped")
	return out, nil
}

func (m *Manager) Get(id string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return View{}, ErrNotFound
	}
	return m.campaigns[i].clone().view(m.running[id] != nil), nil
}

func (m *Manager) List() []View {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]View, 0, len(m.campaigns))
	for _, c := range m.campaigns {
		out = append(out, c.clone().view(m.running[c.ID] != nil))
	}
	return out
}

// Logs returns the campaign's log lines, oldest first.
func (m *Manager) Logs(ctx context.Context, id string) ([]activity.Event, error) {
	if _, err := m.Get(id); err != nil {
		return nil, err
	}
	return m.journal.List(ctx, activity.CampaignStream(id))
}

// Wait blocks until the sweep of id (if any) has returned.
func (m *Manager) Wait(ctx context.Context, id string) error {
	m.mu.Lock()
	r := m.running[id]
	m.mu.Unlock()
	if r == nil {
		return nil
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown cancels running sweeps and waits for them. Their campaigns stay
// active in the store and are paused by the next Load.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancelRun()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) acquireLocked(ctx context.Context) error {
	if len(m.running) > 0 {
		return ErrRunnerBusy
	}
	ok, err := m.limiter.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("campaigns: acquiring run slot: %w", err)
	}
	if !ok {
		return ErrRunnerBusy
	}
	return nil
}

// launchLocked marks campaign i active and starts its sweep. The run slot
// must already be held; it is released here on error.
func (m *Manager) launchLocked(ctx context.Context, i int) (View, error) {
	out, err := m.setStatusLocked(ctx, i, StatusActive)
	if err != nil {
		_ = m.limiter.Release(context.WithoutCancel(ctx))
		return View{}, err
	}
	id := m.campaigns[i].ID
	r := &run{token: NewToken(), done: make(chan struct{})}
	m.running[id] = r
	out.Running = true

	runCtx := logger.With(m.runCtx, logger.From(ctx).With("campaign_id", id))
	m.journal.Log(runCtx, activity.CampaignStream(id), activity.LevelInfo, fmt.Sprintf("Campaign %q started", m.campaigns[i].Name))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(r.done)
		swept := m.sweep(runCtx, id, r.token)
		m.finish(runCtx, id, r.token, swept)
	}()
	return out, nil
}

func (m *Manager) setStatusLocked(ctx context.Context, i int, s Status) (View, error) {
	c := m.campaigns[i].clone()
	c.Status = s
	c.UpdatedAt = m.clock().UTC()
	if s == StatusCompleted {
		t := c.UpdatedAt
		c.CompletedAt = &t
	}
	if err := m.persistLocked(ctx, c); err != nil {
		return View{}, err
	}
	m.campaigns[i] = c
	return c.clone().view(m.running[c.ID] != nil), nil
}

// update applies fn to campaign id and persists it. Store errors are logged;
// the in-memory copy stays authoritative for the running sweep.
func (m *Manager) update(ctx context.Context, id string, fn func(*Campaign)) (Campaign, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return Campaign{}, false
	}
	fn(&m.campaigns[i])
	m.campaigns[i].UpdatedAt = m.clock().UTC()
	if err := m.persistLocked(ctx, m.campaigns[i]); err != nil {
		logger.From(ctx).Error("campaign persist failed", "campaign_id", id, "err", err)
	}
	return m.campaigns[i].clone(), true
}

func (m *Manager) persistLocked(ctx context.Context, c Campaign) error {
	if err := store.PutJSON(ctx, m.store, store.CollectionCampaigns, c.ID, c); err != nil {
		return fmt.Errorf("campaigns: saving %s: %w", c.ID, err)
	}
	return nil
}

func (m *Manager) indexOf(id string) int {
	for i, c := range m.campaigns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sleepInterruptible(ctx context.Context, d time.Duration, interrupt <-chan struct{}) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-interrupt:
		return false
	case <-ctx.Done():
		return false
	}
}

package campaigns

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"voice-campaigns/internal/activity"
	"voice-campaigns/internal/contacts"
	"voice-campaigns/internal/store"
	"voice-campaigns/internal/telephony"
)

type fakeProvider struct {
	*telephony.Simulator

	mu         sync.Mutex
	failures   map[string]int
	dialed     []string
	assistants []telephony.AssistantRequest

	// When set, StartCall announces the number on started and waits for release.
	started chan string
	release chan struct{}
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{Simulator: telephony.NewSimulator(), failures: map[string]int{}}
}

func (p *fakeProvider) CreateAssistant(ctx context.Context, req telephony.AssistantRequest) (string, error) {
	p.mu.Lock()
	p.assistants = append(p.assistants, req)
	p.mu.Unlock()
	return p.Simulator.CreateAssistant(ctx, req)
}

func (p *fakeProvider) StartCall(ctx context.Context, req telephony.StartCallRequest) (telephony.CallDetail, error) {
	p.mu.Lock()
	num := req.Customer.Number
	p.dialed = append(p.dialed, num)
	fail := p.failures[num] > 0
	if fail {
		p.failures[num]--
	}
	p.mu.Unlock()

	if p.started != nil {
		p.started <- num
		<-p.release
	}
	if fail {
		return telephony.CallDetail{}, &telephony.APIError{Op: "Call initiation", Status: 500, Message: "line busy"}
	}
	return p.Simulator.StartCall(ctx, req)
}

func (p *fakeProvider) dialedNumbers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.dialed...)
}

type fixture struct {
	m        *Manager
	provider *fakeProvider
	contacts *contacts.Service
	journal  *activity.Service

	mu     sync.Mutex
	sleeps []time.Duration
}

func newFixture(t *testing.T, csv string) (*fixture, contacts.List) {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	cs := contacts.NewService(st)
	l, err := cs.Import(ctx, strings.NewReader(csv), "Test list")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	f := &fixture{provider: newFakeProvider(), contacts: cs, journal: activity.NewService(activity.NewMemoryRepo())}
	f.m = NewManager(st, cs, f.provider, f.journal, nil, Options{PhoneNumberID: "pn-1"})
	f.m.sleep = func(ctx context.Context, d time.Duration, interrupt <-chan struct{}) bool {
		f.mu.Lock()
		f.sleeps = append(f.sleeps, d)
		f.mu.Unlock()
		select {
		case <-interrupt:
			return false
		default:
			return true
		}
	}
	return f, l
}

func (f *fixture) wait(t *testing.T, id string) View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.m.Wait(ctx, id); err != nil {
		t.Fatalf("wait: %v", err)
	}
	v, err := f.m.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	return v
}

func (f *fixture) logLines(t *testing.T, id string) []string {
	t.Helper()
	evs, err := f.m.Logs(context.Background(), id)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	out := make([]string, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.Message)
	}
	return out
}

const twoContacts = "name,phone,email,context\nAnn,+15550000001,ann@example.com,Renewal due\nBob,+15550000002,,\n"

func TestCreate_RunsSweepToCompletion(t *testing.T) {
	f, l := newFixture(t, twoContacts)
	f.provider.failures["+15550000002"] = 1

	v, err := f.m.Create(context.Background(), CreateRequest{
		Name: "Spring", ListID: l.ID, Agent: "Sarah", Script: "Be brief.", DelaySeconds: 7,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.Status != StatusActive || v.TotalContacts != 2 {
		t.Fatalf("unexpected created campaign: %+v", v.Campaign)
	}

	got := f.wait(t, v.ID)
	if got.Status != StatusCompleted || got.CompletedAt == nil {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.CalledContacts != 2 || got.SuccessfulCalls != 1 || got.FailedCalls != 1 {
		t.Fatalf("unexpected counters: %+v", got.Campaign)
	}
	if got.Progress.PercentComplete != 100 || got.Progress.SuccessRate != 50 {
		t.Fatalf("unexpected progress: %+v", got.Progress)
	}

	if len(f.sleeps) != 1 || f.sleeps[0] != 7*time.Second {
		t.Fatalf("expected one 7s delay between contacts, got %v", f.sleeps)
	}

	a := f.provider.assistants[0]
	wantPrompt := "Be brief.\n\nContact Context: Renewal due\nContact Name: Ann\nContact Email: ann@example.com"
	if a.Name != "Sarah" || a.Model.Messages[0].Content != wantPrompt {
		t.Fatalf("unexpected assistant payload: %+v", a)
	}
	if a.FirstMessage != "Hello Ann, this is Sarah. How are you today?" {
		t.Fatalf("unexpected first message %q", a.FirstMessage)
	}

	lines := f.logLines(t, v.ID)
	want := []string{
		`Campaign "Spring" started`,
		"Calling Ann (+15550000001)...",
		"Successfully called Ann",
		"Calling Bob (+15550000002)...",
		"Failed to call Bob: Call initiation failed (500): line busy",
		"Campaign completed!",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected log:\n%s", strings.Join(lines, "\n"))
	}

	list, _ := f.contacts.Get(l.ID)
	if list.Contacts[0].Status != contacts.StatusCompleted || list.Contacts[1].Status != contacts.StatusFailed {
		t.Fatalf("unexpected contact statuses: %+v", list.Contacts)
	}
}

func TestCreate_Validation(t *testing.T) {
	f, l := newFixture(t, twoContacts)
	ctx := context.Background()

	cases := []CreateRequest{
		{ListID: l.ID, Agent: "Sarah", Script: "x"},
		{Name: "n", ListID: l.ID, Agent: "Sarah"},
		{Name: "n", ListID: l.ID, Agent: "Sarah", Script: "x", DelaySeconds: -1},
		{Name: "n", ListID: "missing", Agent: "Sarah", Script: "x"},
		{Name: "n", ListID: l.ID, Agent: "Sarah", Script: "x", ContactIDs: []string{"nope"}},
	}
	for i, req := range cases {
		if _, err := f.m.Create(ctx, req); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("case %d: expected ErrInvalidArgument, got %v", i, err)
		}
	}
	if n := len(f.m.List()); n != 0 {
		t.Fatalf("expected no campaigns, got %d", n)
	}
}

func TestScheduled_StartAndTransitions(t *testing.T) {
	f, l := newFixture(t, twoContacts)
	ctx := context.Background()

	v, err := f.m.Create(ctx, CreateRequest{Name: "Later", ListID: l.ID, Agent: "Sarah", Script: "x", Scheduled: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.Status != StatusScheduled || len(f.provider.dialedNumbers()) != 0 {
		t.Fatalf("scheduled campaign must not run: %+v", v.Campaign)
	}
	if _, err := f.m.Pause(ctx, v.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.m.Resume(ctx, v.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if _, err := f.m.Start(ctx, v.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	got := f.wait(t, v.ID)
	if got.Status != StatusCompleted || got.StartTime == nil {
		t.Fatalf("expected completed with start time, got %+v", got.Campaign)
	}
	if _, err := f.m.Stop(ctx, v.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completed campaign must not stop, got %v", err)
	}
	if _, err := f.m.Start(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStop_FinishesCurrentContactAndEndsStopped(t *testing.T) {
	f, l := newFixture(t, twoContacts)
	f.provider.started = make(chan string)
	f.provider.release = make(chan struct{})
	ctx := context.Background()

	v, err := f.m.Create(ctx, CreateRequest{Name: "Stop me", ListID: l.ID, Agent: "Sarah", Script: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if num := <-f.provider.started; num != "+15550000001" {
		t.Fatalf("unexpected first number %s", num)
	}
	if _, err := f.m.Stop(ctx, v.ID); err != nil {
		t.Fatalf("stop: %v", err)
	}
	close(f.provider.release)

	got := f.wait(t, v.ID)
	if got.Status != StatusStopped {
		t.Fatalf("expected stopped, got %s", got.Status)
	}
	if got.CalledContacts != 1 || got.SuccessfulCalls != 1 {
		t.Fatalf("in-flight contact must be recorded: %+v", got.Campaign)
	}
	if n := len(f.provider.dialedNumbers()); n != 1 {
		t.Fatalf("expected one call placed, got %d", n)
	}
}

func TestPauseResume_SkipsCompletedContacts(t *testing.T) {
	f, l := newFixture(t, twoContacts)
	f.provider.started = make(chan string)
	f.provider.release = make(chan struct{})
	ctx := context.Background()

	v, err := f.m.Create(ctx, CreateRequest{Name: "Pause me", ListID: l.ID, Agent: "Sarah", Script: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	<-f.provider.started
	if _, err := f.m.Pause(ctx, v.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	f.provider.release <- struct{}{}
	if got := f.wait(t, v.ID); got.Status != StatusPaused || got.CalledContacts != 1 {
		t.Fatalf("expected paused after first contact, got %+v", got.Campaign)
	}

	f.provider.started = nil
	if _, err := f.m.Resume(ctx, v.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}
	got := f.wait(t, v.ID)
	if got.Status != StatusCompleted || got.CalledContacts != 2 || got.SuccessfulCalls != 2 {
		t.Fatalf("unexpected resumed campaign: %+v", got.Campaign)
	}
	if d := f.provider.dialedNumbers(); len(d) != 2 || d[1] != "+15550000002" {
		t.Fatalf("expected Ann not to be called twice, got %v", d)
	}
}

func TestRetries_ReattemptFailingContact(t *testing.T) {
	f, l := newFixture(t, "name,phone\nAnn,+15550000001\n")
	f.provider.failures["+15550000001"] = 2

	v, err := f.m.Create(context.Background(), CreateRequest{Name: "Retry", ListID: l.ID, Agent: "Sarah", Script: "x", Retries: 2, DelaySeconds: 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got := f.wait(t, v.ID)
	if got.SuccessfulCalls != 1 || got.FailedCalls != 0 || got.CalledContacts != 1 {
		t.Fatalf("unexpected counters: %+v", got.Campaign)
	}
	if n := len(f.provider.dialedNumbers()); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
	if len(f.sleeps) != 2 {
		t.Fatalf("expected a delay before each retry, got %v", f.sleeps)
	}
}

func TestRetries_ExhaustedRecordsOneFailure(t *testing.T) {
	f, l := newFixture(t, "name,phone\nAnn,+15550000001\n")
	f.provider.failures["+15550000001"] = 5

	v, _ := f.m.Create(context.Background(), CreateRequest{Name: "Retry", ListID: l.ID, Agent: "Sarah", Script: "x", Retries: 1})
	got := f.wait(t, v.ID)
	if got.CalledContacts != 1 || got.FailedCalls != 1 {
		t.Fatalf("unexpected counters: %+v", got.Campaign)
	}
	if n := len(f.provider.dialedNumbers()); n != 2 {
		t.Fatalf("expected 2 attempts, got %d", n)
	}
}

func TestRunnerBusy(t *testing.T) {
	f, l := newFixture(t, twoContacts)
	f.provider.started = make(chan string)
	f.provider.release = make(chan struct{})
	ctx := context.Background()

	first, err := f.m.Create(ctx, CreateRequest{Name: "One", ListID: l.ID, Agent: "Sarah", Script: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	<-f.provider.started

	if _, err := f.m.Create(ctx, CreateRequest{Name: "Two", ListID: l.ID, Agent: "Sarah", Script: "x"}); !errors.Is(err, ErrRunnerBusy) {
		t.Fatalf("expected ErrRunnerBusy, got %v", err)
	}
	sched, err := f.m.Create(ctx, CreateRequest{Name: "Three", ListID: l.ID, Agent: "Sarah", Script: "x", Scheduled: true})
	if err != nil {
		t.Fatalf("scheduled create must succeed while busy: %v", err)
	}
	if _, err := f.m.Start(ctx, sched.ID); !errors.Is(err, ErrRunnerBusy) {
		t.Fatalf("expected ErrRunnerBusy, got %v", err)
	}

	f.provider.started = nil
	close(f.provider.release)
	if got := f.wait(t, first.ID); got.Status != StatusCompleted {
		t.Fatalf("expected first campaign completed, got %s", got.Status)
	}
	if _, err := f.m.Start(ctx, sched.ID); err != nil {
		t.Fatalf("start after first finished: %v", err)
	}
	f.wait(t, sched.ID)
}

func TestLoad_PausesInterruptedCampaigns(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	c := Campaign{ID: "c1", Name: "Old", Status: StatusActive, CreatedAt: time.Unix(1700000000, 0).UTC()}
	if err := store.PutJSON(ctx, st, store.CollectionCampaigns, c.ID, c); err != nil {
		t.Fatalf("put: %v", err)
	}
	m := NewManager(st, contacts.NewService(st), newFakeProvider(), activity.NewService(activity.NewMemoryRepo()), nil, Options{})
	if err := m.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	v, err := m.Get("c1")
	if err != nil || v.Status != StatusPaused {
		t.Fatalf("expected paused, got %+v err=%v", v, err)
	}
}

func TestCampaign_RecordKeepsCountersConsistent(t *testing.T) {
	c := Campaign{TotalContacts: 2}
	c.record("a", false)
	c.record("b", true)
	c.record("a", true)
	if c.CalledContacts != 2 || c.SuccessfulCalls != 2 || c.FailedCalls != 0 {
		t.Fatalf("unexpected counters: %+v", c)
	}
	if c.CalledContacts != c.SuccessfulCalls+c.FailedCalls || c.CalledContacts > c.TotalContacts {
		t.Fatalf("counter invariant broken: %+v", c)
	}
}

func TestToken_StopOverridesPause(t *testing.T) {
	tok := NewToken()
	if !tok.Pause() {
		t.Fatalf("expected first pause to be recorded")
	}
	if tok.Pause() {
		t.Fatalf("second pause must be ignored")
	}
	tok.Stop()
	if tok.Requested() != RequestStop {
		t.Fatalf("expected stop, got %s", tok.Requested())
	}
	select {
	case <-tok.Done():
	default:
		t.Fatalf("done channel must be closed")
	}
}

func TestCreate_PinsContactsPresentAtCreation(t *testing.T) {
	f, l := newFixture(t, twoContacts)
	ctx := context.Background()

	v, err := f.m.Create(ctx, CreateRequest{Name: "Pinned", ListID: l.ID, Agent: "Sarah", Script: "x", Scheduled: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.TotalContacts != 2 || len(v.ContactIDs) != 2 {
		t.Fatalf("expected two pinned contacts, got %+v", v.Campaign)
	}

	_, added, err := f.contacts.AddContact(ctx, contacts.AddContactRequest{ListID: l.ID, Name: "Cy", Phone: "+15550000003"})
	if err != nil {
		t.Fatalf("add contact: %v", err)
	}
	if err := f.contacts.DeleteContact(ctx, l.ID, l.Contacts[1].ID); err != nil {
		t.Fatalf("delete contact: %v", err)
	}

	if _, err := f.m.Start(ctx, v.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	got := f.wait(t, v.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.TotalContacts != 2 || got.CalledContacts != 1 || got.CalledContacts > got.TotalContacts {
		t.Fatalf("unexpected counters: total=%d called=%d", got.TotalContacts, got.CalledContacts)
	}
	if dialed := f.provider.dialedNumbers(); len(dialed) != 1 || dialed[0] != "+15550000001" {
		t.Fatalf("expected only Ann dialed, got %v", dialed)
	}

	list, _ := f.contacts.Get(l.ID)
	for _, ct := range list.Contacts {
		if ct.ID == added.ID && ct.Status != contacts.StatusPending {
			t.Fatalf("contact added after creation must not be called, got %s", ct.Status)
		}
	}
}

type recordingLimiter struct {
	mu    sync.Mutex
	calls []string
}

func (l *recordingLimiter) note(s string) {
	l.mu.Lock()
	l.calls = append(l.calls, s)
	l.mu.Unlock()
}

func (l *recordingLimiter) Acquire(ctx context.Context) (bool, error) {
	l.note("acquire")
	return true, nil
}

func (l *recordingLimiter) Refresh(ctx context.Context) error {
	l.note("refresh")
	return ErrSlotLost
}

func (l *recordingLimiter) Release(ctx context.Context) error {
	l.note("release")
	return nil
}

func TestSweep_RefreshesRunSlotBeforeEachContact(t *testing.T) {
	f, l := newFixture(t, twoContacts+"Cy,+15550000003,,\n")
	lim := &recordingLimiter{}
	f.m.limiter = lim

	v, err := f.m.Create(context.Background(), CreateRequest{Name: "Long", ListID: l.ID, Agent: "Sarah", Script: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// A failed refresh is reported but does not abort the sweep.
	if got := f.wait(t, v.ID); got.Status != StatusCompleted || got.CalledContacts != 3 {
		t.Fatalf("unexpected campaign: %+v", got.Campaign)
	}

	lim.mu.Lock()
	defer lim.mu.Unlock()
	if got := strings.Join(lim.calls, ","); got != "acquire,refresh,refresh,refresh,release" {
		t.Fatalf("unexpected limiter calls: %s", got)
	}
}

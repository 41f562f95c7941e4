package contacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"voice-campaigns/internal/store"
	"voice-campaigns/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("contacts: not found")
	ErrInvalidArgument = errors.New("contacts: invalid argument")
)

// Service owns the contact lists. Every mutation is written through the store.
type Service struct {
	store store.Store

	// clock is injectable for deterministic tests.
	clock func() time.Time

	mu    sync.RWMutex
	lists []List
}

func NewService(st store.Store) *Service {
	return &Service{store: st, clock: time.Now, lists: []List{}}
}

// Load reads every list from the store, oldest first.
func (s *Service) Load(ctx context.Context) error {
	lists, err := store.ListJSON[List](ctx, s.store, store.CollectionContactLists)
	if err != nil {
		return fmt.Errorf("contacts: loading lists: %w", err)
	}
	sort.SliceStable(lists, func(i, j int) bool { return lists[i].CreatedAt.Before(lists[j].CreatedAt) })

	s.mu.Lock()
	s.lists = lists
	s.mu.Unlock()
	return nil
}

// SeedIfEmpty stores the sample list when no list exists.
func (s *Service) SeedIfEmpty(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lists) > 0 {
		return nil
	}
	l := SampleList(s.clock().UTC())
	if err := s.persist(ctx, l); err != nil {
		return err
	}
	s.lists = append(s.lists, l)
	logger.From(ctx).Info("seeded sample contact list", "list_id", l.ID)
	return nil
}

func (s *Service) Lists() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.lists))
	for _, l := range s.lists {
		out = append(out, l.Summary())
	}
	return out
}

func (s *Service) Get(id string) (List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return List{}, ErrNotFound
	}
	return s.lists[i].clone(), nil
}

// Import parses a CSV and creates a new list. Nothing is created on error.
func (s *Service) Import(ctx context.Context, r io.Reader, listName string) (List, error) {
	listName = strings.TrimSpace(listName)
	if listName == "" {
		return List{}, fmt.Errorf("%w: list name is required", ErrInvalidArgument)
	}
	cs, err := ParseCSV(r)
	if err != nil {
		return List{}, err
	}

	l := List{
		ID:          uuid.NewString(),
		Name:        listName,
		Description: fmt.Sprintf("Uploaded %d contacts", len(cs)),
		CreatedAt:   s.clock().UTC(),
		Contacts:    cs,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx, l); err != nil {
		return List{}, err
	}
	s.lists = append(s.lists, l)
	logger.From(ctx).Info("contact list imported", "list_id", l.ID, "contacts", len(cs))
	return l.clone(), nil
}

// AddContactRequest adds one contact to an existing list (ListID) or to a
// new list (NewListName). NewListName wins when both are set.
type AddContactRequest struct {
	ListID      string `json:"listId"`
	NewListName string `json:"newListName"`

	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Context  string `json:"context"`
	Priority string `json:"priority"`
}

func (s *Service) AddContact(ctx context.Context, req AddContactRequest) (List, Contact, error) {
	c := Contact{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		Email:    strings.TrimSpace(req.Email),
		Context:  strings.TrimSpace(req.Context),
		Priority: ParsePriority(req.Priority),
		Status:   StatusPending,
	}
	if c.Name == "" || c.Phone == "" {
		return List{}, Contact{}, fmt.Errorf("%w: name and phone number are required", ErrInvalidArgument)
	}
	newName := strings.TrimSpace(req.NewListName)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case newName != "":
		l := List{
			ID:          uuid.NewString(),
			Name:        newName,
			Description: "Manually created list",
			CreatedAt:   s.clock().UTC(),
			Contacts:    []Contact{c},
		}
		if err := s.persist(ctx, l); err != nil {
			return List{}, Contact{}, err
		}
		s.lists = append(s.lists, l)
		return l.clone(), c, nil
	case req.ListID != "":
		i := s.indexOf(req.ListID)
		if i < 0 {
			return List{}, Contact{}, ErrNotFound
		}
		l := s.lists[i].clone()
		l.Contacts = append(l.Contacts, c)
		if err := s.persist(ctx, l); err != nil {
			return List{}, Contact{}, err
		}
		s.lists[i] = l
		return l.clone(), c, nil
	}
	return List{}, Contact{}, fmt.Errorf("%w: select a list or enter a new list name", ErrInvalidArgument)
}

// ContactUpdate carries optional field changes.
type ContactUpdate struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Context  *string `json:"context"`
	Priority *string `json:"priority"`
	Status   *Status `json:"status"`
}

func (s *Service) UpdateContact(ctx context.Context, listID, contactID string, u ContactUpdate) (Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(listID)
	if i < 0 {
		return Contact{}, ErrNotFound
	}
	l := s.lists[i].clone()
	j := l.indexOf(contactID)
	if j < 0 {
		return Contact{}, ErrNotFound
	}
	c := l.Contacts[j]
	if u.Name != nil {
		c.Name = strings.TrimSpace(*u.Name)
	}
	if u.Phone != nil {
		c.Phone = strings.TrimSpace(*u.Phone)
	}
	if u.Email != nil {
		c.Email = strings.TrimSpace(*u.Email)
	}
	if u.Context != nil {
		c.Context = strings.TrimSpace(*u.Context)
	}
	if u.Priority != nil {
		c.Priority = ParsePriority(*u.Priority)
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			return Contact{}, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, *u.Status)
		}
		c.Status = *u.Status
	}
	if c.Name == "" || c.Phone == "" {
		return Contact{}, fmt.Errorf("%w: name and phone number are required", ErrInvalidArgument)
	}
	l.Contacts[j] = c
	if err := s.persist(ctx, l); err != nil {
		return Contact{}, err
	}
	s.lists[i] = l
	return c, nil
}

// SetContactStatus is used by the campaign runner.
func (s *Service) SetContactStatus(ctx context.Context, listID, contactID string, status Status) error {
	_, err := s.UpdateContact(ctx, listID, contactID, ContactUpdate{Status: &status})
	return err
}

func (s *Service) DeleteContact(ctx context.Context, listID, contactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(listID)
	if i < 0 {
		return ErrNotFound
	}
	l := s.lists[i].clone()
	j := l.indexOf(contactID)
	if j < 0 {
		return ErrNotFound
	}
	l.Contacts = append(l.Contacts[:j], l.Contacts[j+1:]...)
	if err := s.persist(ctx, l); err != nil {
		return err
	}
	s.lists[i] = l
	return nil
}

func (s *Service) DeleteList(ctx context.Context, listID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(listID)
	if i < 0 {
		return ErrNotFound
	}
	if err := s.store.Delete(ctx, store.CollectionContactLists, listID); err != nil {
		return err
	}
	s.lists = append(s.lists[:i], s.lists[i+1:]...)
	logger.From(ctx).Info("contact list deleted", "list_id", listID)
	return nil
}

// Export renders a list as CSV with its download filename.
func (s *Service) Export(listID string) (string, []byte, error) {
	l, err := s.Get(listID)
	if err != nil {
		return "", nil, err
	}
	var b bytes.Buffer
	if err := WriteCSV(&b, l.Contacts); err != nil {
		return "", nil, err
	}
	return ExportFilename(l.Name), b.Bytes(), nil
}

func (s *Service) indexOf(id string) int {
	for i, l := range s.lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) persist(ctx context.Context, l List) error {
	if err := store.PutJSON(ctx, s.store, store.CollectionContactLists, l.ID, l); err != nil {
		return fmt.Errorf("contacts: saving list %s: %w", l.ID, err)
	}
	return nil
}

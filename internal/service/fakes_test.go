package service

import (
	"context"
	"sync"
	"time"

	"github.com/spotmap/spot-api/internal/audit"
	"github.com/spotmap/spot-api/internal/model"
	"github.com/spotmap/spot-api/internal/repository"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]model.Session

	findErr   error
	createErr error
	updateErr error
	whoErr    error

	finds   int
	creates int
	updates int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]model.Session)}
}

func (f *fakeSessionRepo) FindByID(_ context.Context, id string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.findErr != nil {
		return nil, f.findErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeSessionRepo) Create(_ context.Context, session model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.sessions[session.ID]; ok {
		return repository.ErrSessionExists
	}
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionRepo) UpdateExpiry(_ context.Context, id string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	s.ExpiresAt = expiresAt
	f.sessions[id] = s
	return nil
}

func (f *fakeSessionRepo) SetWho(_ context.Context, id string, who model.Who) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.whoErr != nil {
		return f.whoErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	s.Who = &who
	f.sessions[id] = s
	return nil
}

func (f *fakeSessionRepo) RemoveWho(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.whoErr != nil {
		return f.whoErr
	}
	if s, ok := f.sessions[id]; ok {
		s.Who = nil
		f.sessions[id] = s
	}
	return nil
}

func (f *fakeSessionRepo) get(id string) model.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[id]
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
	now   time.Time

	findErr   error
	createErr error
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]model.User), now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeUserRepo) Create(_ context.Context, params model.CreateUserParams) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	u := model.User{ID: params.ID, Name: params.Name, Email: params.Email, Avatar: params.Avatar, RegisteredAt: f.now}
	f.users[u.ID] = u
	return &u, nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id string, params model.UpdateUserParams) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	u.Name, u.Email, u.Avatar = params.Name, params.Email, params.Avatar
	f.users[id] = u
	return &u, nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (f *fakeRecorder) Record(_ context.Context, event audit.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeRecorder) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, string(e.Type)+"/"+e.Action)
	}
	return out
}

// sequenceIDs hands out the given ids in order.
func sequenceIDs(ids ...string) func() (string, error) {
	var i int
	return func() (string, error) {
		id := ids[i%len(ids)]
		i++
		return id, nil
	}
}

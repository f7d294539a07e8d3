package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/chetan-code/concentraction/internal/models"
)

// MemoryStore is an in-process AccountStore with the same update semantics
// as the mongo adapter.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*models.Account
	order    []string
	newID    func() string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*models.Account),
		newID:    uuid.NewString,
	}
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return acc.Clone(), nil
}

func (s *MemoryStore) FindOne(_ context.Context, filter Filter) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		acc := s.accounts[id]
		if matches(acc, filter) {
			return acc.Clone(), nil
		}
	}
	return models.Account{}, ErrNotFound
}

func matches(acc *models.Account, f Filter) bool {
	return f.Email != "" && acc.Email == f.Email
}

func (s *MemoryStore) Insert(_ context.Context, account models.Account) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique("", account.Username, account.Email, account.PasswordHash); err != nil {
		return models.Account{}, err
	}

	stored := account.Clone()
	stored.ID = s.newID()
	if stored.Tasks == nil {
		stored.Tasks = []models.Task{}
	}
	if stored.Objectives == nil {
		stored.Objectives = []models.Objective{}
	}
	for i := range stored.Tasks {
		if stored.Tasks[i].ID == "" {
			stored.Tasks[i].ID = s.newID()
		}
	}
	s.accounts[stored.ID] = &stored
	s.order = append(s.order, stored.ID)
	return stored.Clone(), nil
}

// checkUnique mirrors the unique indexes on username, email and password hash.
// Empty values are not indexed.
func (s *MemoryStore) checkUnique(selfID, username, email, hash string) error {
	for id, acc := range s.accounts {
		if id == selfID {
			continue
		}
		switch {
		case username != "" && acc.Username == username:
			return duplicateError(fmt.Errorf("username already exists"))
		case email != "" && acc.Email == email:
			return duplicateError(fmt.Errorf("email already exists"))
		case hash != "" && acc.PasswordHash == hash:
			return duplicateError(fmt.Errorf("password hash already exists"))
		}
	}
	return nil
}

func (s *MemoryStore) PushTask(_ context.Context, accountID string, task models.Task) (UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return UpdateResult{Acknowledged: true}, nil
	}
	task = task.Clone()
	task.ID = s.newID()
	acc.Tasks = append(acc.Tasks, task)
	return UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1, InsertedID: task.ID}, nil
}

func (s *MemoryStore) SetTaskFields(_ context.Context, accountID, taskID string, fields TaskFields) (UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return UpdateResult{Acknowledged: true}, nil
	}
	for i := range acc.Tasks {
		t := &acc.Tasks[i]
		if t.ID != taskID {
			continue
		}
		res := UpdateResult{Acknowledged: true, MatchedCount: 1}
		if t.Name != fields.Name || t.Category != fields.Category || t.Status != fields.Status {
			t.Name, t.Category, t.Status = fields.Name, fields.Category, fields.Status
			res.ModifiedCount = 1
		}
		return res, nil
	}
	return UpdateResult{Acknowledged: true}, nil
}

func (s *MemoryStore) SetAccountFields(_ context.Context, accountID string, fields AccountFields) (UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return UpdateResult{Acknowledged: true}, nil
	}
	if err := s.checkUnique(accountID, deref(fields.Username), deref(fields.Email), deref(fields.PasswordHash)); err != nil {
		return UpdateResult{}, err
	}

	res := UpdateResult{Acknowledged: true, MatchedCount: 1}
	before := *acc
	if fields.Username != nil {
		acc.Username = *fields.Username
	}
	if fields.Email != nil {
		acc.Email = *fields.Email
	}
	if fields.PasswordHash != nil {
		acc.PasswordHash = *fields.PasswordHash
	}
	if before.Username != acc.Username || before.Email != acc.Email || before.PasswordHash != acc.PasswordHash {
		res.ModifiedCount = 1
	}
	return res, nil
}

// SetObjectives replaces the objectives of an account. Objectives have no
// mutation in the resolver set; this seeds them for reads.
func (s *MemoryStore) SetObjectives(accountID string, objectives []models.Objective) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	acc.Objectives = append([]models.Objective(nil), objectives...)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

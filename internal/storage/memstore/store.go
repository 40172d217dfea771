package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps records in process memory. Used by tests and STORE_BACKEND=memory.
type Store struct {
	mu          sync.RWMutex
	credentials map[string]models.Credential
	plans       map[string]models.PlanRecord
}

func New() *Store {
	return &Store{
		credentials: make(map[string]models.Credential),
		plans:       make(map[string]models.PlanRecord),
	}
}

func (s *Store) GetCredential(_ context.Context, email string) (models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[email]
	if !ok {
		return models.Credential{}, storage.ErrNotFound
	}
	return cred, nil
}

func (s *Store) CreateCredential(_ context.Context, cred models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[cred.Email]; ok {
		return storage.ErrAlreadyExists
	}
	s.credentials[cred.Email] = cred
	return nil
}

func (s *Store) GetPlanRecord(_ context.Context, email string) (models.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.plans[email]
	if !ok {
		return models.PlanRecord{}, storage.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *Store) PutPlanRecord(_ context.Context, rec models.PlanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[rec.Email] = cloneRecord(rec)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// cloneRecord copies the slices and artifacts so callers cannot mutate
// what is stored.
func cloneRecord(rec models.PlanRecord) models.PlanRecord {
	rec.Profile.DietaryPreferences = slices.Clone(rec.Profile.DietaryPreferences)
	if rec.Profile.Feedback != nil {
		fb := *rec.Profile.Feedback
		rec.Profile.Feedback = &fb
	}
	if rec.Plan != nil {
		rec.Plan = &models.Plan{
			Nutrition: slices.Clone(rec.Plan.Nutrition),
			Workout:   slices.Clone(rec.Plan.Workout),
		}
	}
	return rec
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/storage/memstore"
)

// countingStore wraps memstore, counts calls and can inject failures.
type countingStore struct {
	*memstore.Store

	mu        sync.Mutex
	gets      int
	creates   int
	puts      int
	getErr    error
	createErr error
	putErr    error
}

func newCountingStore() *countingStore {
	return &countingStore{Store: memstore.New()}
}

func (s *countingStore) GetCredential(ctx context.Context, email string) (models.Credential, error) {
	s.mu.Lock()
	s.gets++
	err := s.getErr
	s.mu.Unlock()
	if err != nil {
		return models.Credential{}, err
	}
	return s.Store.GetCredential(ctx, email)
}

func (s *countingStore) CreateCredential(ctx context.Context, cred models.Credential) error {
	s.mu.Lock()
	s.creates++
	err := s.createErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Store.CreateCredential(ctx, cred)
}

func (s *countingStore) GetPlanRecord(ctx context.Context, email string) (models.PlanRecord, error) {
	s.mu.Lock()
	s.gets++
	err := s.getErr
	s.mu.Unlock()
	if err != nil {
		return models.PlanRecord{}, err
	}
	return s.Store.GetPlanRecord(ctx, email)
}

func (s *countingStore) PutPlanRecord(ctx context.Context, rec models.PlanRecord) error {
	s.mu.Lock()
	s.puts++
	err := s.putErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Store.PutPlanRecord(ctx, rec)
}

// fakeGenerator returns a distinct plan per call so cache hits are visible.
type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
	last  models.Profile
}

func (g *fakeGenerator) Generate(_ context.Context, profile models.Profile) (models.Plan, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.last = profile
	err, delay := g.err, g.delay
	g.mu.Unlock()

	// Sleeps without watching ctx, like a client with no deadline support.
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return models.Plan{}, err
	}
	return models.Plan{
		Nutrition: artifact(fmt.Sprintf("nutrition #%d", n)),
		Workout:   artifact(fmt.Sprintf("workout #%d", n)),
	}, nil
}

func (g *fakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func artifact(text string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"plan_text": text})
	return b
}

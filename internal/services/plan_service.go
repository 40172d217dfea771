package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/generator"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/storage"
)

const defaultGenerationTimeout = 60 * time.Second

var errIncompletePlan = errors.New("generator returned an incomplete plan")

type PlanService struct {
	store     storage.PlanStore
	generator generator.Generator
	timeout   time.Duration
	now       func() time.Time
}

func NewPlanService(store storage.PlanStore, gen generator.Generator, timeout time.Duration) *PlanService {
	if timeout <= 0 {
		timeout = defaultGenerationTimeout
	}
	return &PlanService{
		store:     store,
		generator: gen,
		timeout:   timeout,
		now:       time.Now,
	}
}

// GetOrCreatePlan returns the stored plan for profile.Email unless forceNew is
// set or nothing is stored yet, in which case a new plan is generated and the
// record for the email is replaced. A failed generation writes nothing.
func (s *PlanService) GetOrCreatePlan(ctx context.Context, profile models.Profile, forceNew bool) (*models.Plan, error) {
	if !forceNew {
		rec, err := s.store.GetPlanRecord(ctx, profile.Email)
		switch {
		case err == nil && rec.Plan != nil:
			metrics.RecordPlanOutcome(metrics.OutcomeCacheHit)
			return rec.Plan, nil
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			metrics.RecordPlanOutcome(metrics.OutcomeStoreFailed)
			return nil, &StoreError{Op: "get plan", Err: err}
		}
	}

	plan, err := s.generate(ctx, profile)
	if err != nil {
		metrics.RecordPlanOutcome(metrics.OutcomeGenerationFailed)
		slog.Error("plan generation failed", "email", profile.Email, "force_new", forceNew, "error", err)
		return nil, err
	}

	stored := profile
	if fb := profile.Feedback; fb != nil && fb.CurrentWeight != nil {
		stored.WeightKg = *fb.CurrentWeight
	}

	// No per-email lock: two concurrent generations for the same email both
	// write, and whichever put lands last wins.
	rec := models.PlanRecord{
		Email:     profile.Email,
		Profile:   stored,
		Plan:      &plan,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.store.PutPlanRecord(ctx, rec); err != nil {
		metrics.RecordPlanOutcome(metrics.OutcomeStoreFailed)
		return nil, &StoreError{Op: "put plan", Err: err}
	}

	metrics.RecordPlanOutcome(metrics.OutcomeGenerated)
	return &plan, nil
}

// GetCachedPlan returns the last generated plan without ever generating.
func (s *PlanService) GetCachedPlan(ctx context.Context, email string) (*models.Plan, error) {
	rec, err := s.store.GetPlanRecord(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, &StoreError{Op: "get plan", Err: err}
	}
	if rec.Plan == nil {
		return nil, ErrPlanNotFound
	}
	return rec.Plan, nil
}

// generate bounds the generator call by s.timeout. A generator that ignores
// its context is abandoned when the deadline passes.
func (s *PlanService) generate(ctx context.Context, profile models.Profile) (models.Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		plan models.Plan
		err  error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		plan, err := s.generator.Generate(ctx, profile)
		done <- result{plan: plan, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil && (len(r.plan.Nutrition) == 0 || len(r.plan.Workout) == 0) {
			r.err = errIncompletePlan
		}
		metrics.RecordGeneration(time.Since(start), r.err == nil)
		if r.err != nil {
			return models.Plan{}, &GenerationError{Err: r.err}
		}
		return r.plan, nil
	case <-ctx.Done():
		metrics.RecordGeneration(time.Since(start), false)
		return models.Plan{}, &GenerationError{Err: ctx.Err()}
	}
}

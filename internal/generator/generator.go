package generator

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
)

// Generator turns a profile into a nutrition + workout plan. Implementations
// may block for a long time; callers bound them with a context deadline.
type Generator interface {
	Generate(ctx context.Context, profile models.Profile) (models.Plan, error)
}

// Func adapts a plain function to Generator.
type Func func(ctx context.Context, profile models.Profile) (models.Plan, error)

func (f Func) Generate(ctx context.Context, profile models.Profile) (models.Plan, error) {
	return f(ctx, profile)
}

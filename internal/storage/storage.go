package storage

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict on create.
var ErrAlreadyExists = errors.New("record already exists")

// CredentialStore persists authentication records keyed by normalized email.
type CredentialStore interface {
	GetCredential(ctx context.Context, email string) (models.Credential, error)
	// CreateCredential inserts a new record and fails with ErrAlreadyExists
	// when one is already stored for the email.
	CreateCredential(ctx context.Context, cred models.Credential) error
}

// PlanStore persists the latest profile and plan per normalized email.
type PlanStore interface {
	GetPlanRecord(ctx context.Context, email string) (models.PlanRecord, error)
	// PutPlanRecord replaces whatever is stored for rec.Email.
	PutPlanRecord(ctx context.Context, rec models.PlanRecord) error
}

// Store bundles both collaborators plus a liveness probe for /health.
type Store interface {
	CredentialStore
	PlanStore
	Ping(ctx context.Context) error
}

package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ storage.Store = (*Store)(nil)

// Store persists credentials and plan records in Postgres through GORM.
// Table names come from configuration.
type Store struct {
	db        *gorm.DB
	authTable string
	planTable string
}

func New(db *gorm.DB, authTable, planTable string) *Store {
	return &Store{db: db, authTable: authTable, planTable: planTable}
}

// Migrate creates or updates both tables.
func (s *Store) Migrate() error {
	if err := s.db.Table(s.authTable).AutoMigrate(&credentialRow{}); err != nil {
		return fmt.Errorf("migrate %s: %w", s.authTable, err)
	}
	if err := s.db.Table(s.planTable).AutoMigrate(&planRow{}); err != nil {
		return fmt.Errorf("migrate %s: %w", s.planTable, err)
	}
	return nil
}

func (s *Store) GetCredential(ctx context.Context, email string) (models.Credential, error) {
	var row credentialRow
	err := s.db.WithContext(ctx).Table(s.authTable).Where("email = ?", email).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Credential{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Credential{}, fmt.Errorf("failed to fetch credential: %w", err)
	}
	return row.toModel(), nil
}

func (s *Store) CreateCredential(ctx context.Context, cred models.Credential) error {
	row := toCredentialRow(cred)
	err := s.db.WithContext(ctx).Table(s.authTable).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

func (s *Store) GetPlanRecord(ctx context.Context, email string) (models.PlanRecord, error) {
	var row planRow
	err := s.db.WithContext(ctx).Table(s.planTable).Where("email = ?", email).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PlanRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return models.PlanRecord{}, fmt.Errorf("failed to fetch plan record: %w", err)
	}
	return row.toModel()
}

// PutPlanRecord upserts the row in a single statement, so readers see either
// the previous record or the new one.
func (s *Store) PutPlanRecord(ctx context.Context, rec models.PlanRecord) error {
	row, err := toPlanRow(rec)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Table(s.planTable).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			UpdateAll: true,
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save plan record: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

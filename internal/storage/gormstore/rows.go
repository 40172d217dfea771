package gormstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// credentialRow maps models.Credential onto the auth table.
type credentialRow struct {
	Email        string    `gorm:"primaryKey;size:255"`
	Name         string    `gorm:"size:100;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	IsActive     bool      `gorm:"not null"`
}

// planRow maps models.PlanRecord onto the profile table. Weight and height
// are exact numerics so values survive write/read cycles unchanged.
//
// numeric(8,3) holds at most 3 fractional digits and Postgres rounds
// anything finer on insert. services.NewProfile rejects such values, so
// every stored measurement fits the column as submitted.
type planRow struct {
	Email              string          `gorm:"primaryKey;size:255"`
	Age                int             `gorm:"not null"`
	WeightKg           decimal.Decimal `gorm:"type:numeric(8,3);not null"`
	HeightCm           decimal.Decimal `gorm:"type:numeric(8,3);not null"`
	FitnessGoal        string          `gorm:"size:100;not null"`
	DietaryPreferences datatypes.JSON  `gorm:"type:jsonb"`
	Feedback           datatypes.JSON  `gorm:"type:jsonb"`
	Plan               datatypes.JSON  `gorm:"type:jsonb"`
	UpdatedAt          time.Time
}

func toCredentialRow(c models.Credential) credentialRow {
	return credentialRow(c)
}

func (r credentialRow) toModel() models.Credential {
	return models.Credential(r)
}

func toPlanRow(rec models.PlanRecord) (planRow, error) {
	row := planRow{
		Email:       rec.Email,
		Age:         rec.Profile.Age,
		WeightKg:    rec.Profile.WeightKg,
		HeightCm:    rec.Profile.HeightCm,
		FitnessGoal: rec.Profile.FitnessGoal,
		UpdatedAt:   rec.UpdatedAt,
	}

	prefs := rec.Profile.DietaryPreferences
	if prefs == nil {
		prefs = []string{}
	}
	b, err := json.Marshal(prefs)
	if err != nil {
		return planRow{}, fmt.Errorf("encode dietary preferences: %w", err)
	}
	row.DietaryPreferences = datatypes.JSON(b)

	if rec.Profile.Feedback != nil {
		if b, err = json.Marshal(rec.Profile.Feedback); err != nil {
			return planRow{}, fmt.Errorf("encode feedback: %w", err)
		}
		row.Feedback = datatypes.JSON(b)
	}

	if rec.Plan != nil {
		if b, err = json.Marshal(rec.Plan); err != nil {
			return planRow{}, fmt.Errorf("encode plan: %w", err)
		}
		row.Plan = datatypes.JSON(b)
	}
	return row, nil
}

func (r planRow) toModel() (models.PlanRecord, error) {
	rec := models.PlanRecord{
		Email: r.Email,
		Profile: models.Profile{
			Email:       r.Email,
			Age:         r.Age,
			WeightKg:    r.WeightKg,
			HeightCm:    r.HeightCm,
			FitnessGoal: r.FitnessGoal,
		},
		UpdatedAt: r.UpdatedAt,
	}

	if len(r.DietaryPreferences) > 0 {
		if err := json.Unmarshal(r.DietaryPreferences, &rec.Profile.DietaryPreferences); err != nil {
			return models.PlanRecord{}, fmt.Errorf("decode dietary preferences: %w", err)
		}
	}
	if isJSONValue(r.Feedback) {
		var fb models.Feedback
		if err := json.Unmarshal(r.Feedback, &fb); err != nil {
			return models.PlanRecord{}, fmt.Errorf("decode feedback: %w", err)
		}
		rec.Profile.Feedback = &fb
	}
	if isJSONValue(r.Plan) {
		var plan models.Plan
		if err := json.Unmarshal(r.Plan, &plan); err != nil {
			return models.PlanRecord{}, fmt.Errorf("decode plan: %w", err)
		}
		rec.Plan = &plan
	}
	return rec, nil
}

func isJSONValue(b datatypes.JSON) bool {
	return len(b) > 0 && string(b) != "null"
}

package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Profile is the validated fitness profile a plan is generated from.
type Profile struct {
	Email              string          `json:"email"`
	Age                int             `json:"age"`
	WeightKg           decimal.Decimal `json:"weight_kg"`
	HeightCm           decimal.Decimal `json:"height_cm"`
	FitnessGoal        string          `json:"fitness_goal"`
	DietaryPreferences []string        `json:"dietary_preferences"`
	Feedback           *Feedback       `json:"feedback,omitempty"`
}

// Feedback is the user's review of the previous week's plan.
type Feedback struct {
	WorkoutDifficulty string           `json:"workout_difficulty"`
	EnjoymentRating   int              `json:"enjoyment_rating"`
	CurrentWeight     *decimal.Decimal `json:"current_weight,omitempty"`
	ProgressNotes     string           `json:"progress_notes,omitempty"`
}

// Workout difficulty values accepted in Feedback.
const (
	DifficultyTooEasy   = "too_easy"
	DifficultyJustRight = "just_right"
	DifficultyTooHard   = "too_hard"
)

// Plan is the composed nutrition + workout artifact. Both halves are opaque
// JSON produced by the plan generator.
type Plan struct {
	Nutrition json.RawMessage `json:"nutrition"`
	Workout   json.RawMessage `json:"workout"`
}

// PlanRecord is what the profile/plan store keeps per email: the profile as
// last submitted and the most recent successfully generated plan.
type PlanRecord struct {
	Email     string
	Profile   Profile
	Plan      *Plan
	UpdatedAt time.Time
}

// Credential is a registered user's authentication record.
type Credential struct {
	Email        string    `dynamodbav:"email"`
	Name         string    `dynamodbav:"name"`
	PasswordHash string    `dynamodbav:"password_hash"`
	CreatedAt    time.Time `dynamodbav:"created_at"`
	IsActive     bool      `dynamodbav:"is_active"`
}

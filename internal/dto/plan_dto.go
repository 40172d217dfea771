package dto

import "github.com/shopspring/decimal"

// PlanRequest is the profile submitted to POST /plan. Weight and height are
// decoded straight into decimals so no float rounding happens on the way in.
type PlanRequest struct {
	Email              string           `json:"email" validate:"required,email"`
	Age                int              `json:"age" validate:"min=1,max=120"`
	WeightKg           decimal.Decimal  `json:"weight_kg"`
	HeightCm           decimal.Decimal  `json:"height_cm"`
	FitnessGoal        string           `json:"fitness_goal" validate:"required,max=100"`
	DietaryPreferences []string         `json:"dietary_preferences"`
	Feedback           *FeedbackRequest `json:"feedback,omitempty"`
}

type FeedbackRequest struct {
	WorkoutDifficulty string           `json:"workout_difficulty" validate:"oneof=too_easy just_right too_hard"`
	EnjoymentRating   int              `json:"enjoyment_rating" validate:"min=1,max=5"`
	CurrentWeight     *decimal.Decimal `json:"current_weight,omitempty"`
	ProgressNotes     string           `json:"progress_notes" validate:"max=2000"`
}

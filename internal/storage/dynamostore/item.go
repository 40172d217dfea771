package dynamostore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
)

// number stores a decimal as a DynamoDB N attribute using its exact string
// form, never passing through float64.
type number decimal.Decimal

func (n number) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: decimal.Decimal(n).String()}, nil
}

func (n *number) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	v, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return fmt.Errorf("expected N attribute, got %T", av)
	}
	d, err := decimal.NewFromString(v.Value)
	if err != nil {
		return err
	}
	*n = number(d)
	return nil
}

type feedbackItem struct {
	WorkoutDifficulty string  `dynamodbav:"workout_difficulty"`
	EnjoymentRating   int     `dynamodbav:"enjoyment_rating"`
	CurrentWeight     *number `dynamodbav:"current_weight,omitempty"`
	ProgressNotes     string  `dynamodbav:"progress_notes,omitempty"`
}

// planArtifacts keeps each artifact as its raw JSON text so numbers and key
// order come back exactly as the generator produced them.
type planArtifacts struct {
	Nutrition string `dynamodbav:"nutrition"`
	Workout   string `dynamodbav:"workout"`
}

// planItem mirrors the item layout of the profile table: the submitted
// profile at the top level plus a nested plan map.
type planItem struct {
	Email              string         `dynamodbav:"email"`
	Age                int            `dynamodbav:"age"`
	WeightKg           number         `dynamodbav:"weight_kg"`
	HeightCm           number         `dynamodbav:"height_cm"`
	FitnessGoal        string         `dynamodbav:"fitness_goal"`
	DietaryPreferences []string       `dynamodbav:"dietary_preferences"`
	Feedback           *feedbackItem  `dynamodbav:"feedback,omitempty"`
	Plan               *planArtifacts `dynamodbav:"plan,omitempty"`
	UpdatedAt          time.Time      `dynamodbav:"updated_at"`
}

func toPlanItem(rec models.PlanRecord) (planItem, error) {
	item := planItem{
		Email:              rec.Email,
		Age:                rec.Profile.Age,
		WeightKg:           number(rec.Profile.WeightKg),
		HeightCm:           number(rec.Profile.HeightCm),
		FitnessGoal:        rec.Profile.FitnessGoal,
		DietaryPreferences: rec.Profile.DietaryPreferences,
		UpdatedAt:          rec.UpdatedAt,
	}
	if item.DietaryPreferences == nil {
		item.DietaryPreferences = []string{}
	}

	if fb := rec.Profile.Feedback; fb != nil {
		item.Feedback = &feedbackItem{
			WorkoutDifficulty: fb.WorkoutDifficulty,
			EnjoymentRating:   fb.EnjoymentRating,
			ProgressNotes:     fb.ProgressNotes,
		}
		if fb.CurrentWeight != nil {
			w := number(*fb.CurrentWeight)
			item.Feedback.CurrentWeight = &w
		}
	}

	if rec.Plan != nil {
		if err := checkArtifact(rec.Plan.Nutrition); err != nil {
			return planItem{}, fmt.Errorf("encode nutrition: %w", err)
		}
		if err := checkArtifact(rec.Plan.Workout); err != nil {
			return planItem{}, fmt.Errorf("encode workout: %w", err)
		}
		item.Plan = &planArtifacts{
			Nutrition: string(rec.Plan.Nutrition),
			Workout:   string(rec.Plan.Workout),
		}
	}
	return item, nil
}

func (it planItem) toModel() (models.PlanRecord, error) {
	rec := models.PlanRecord{
		Email: it.Email,
		Profile: models.Profile{
			Email:              it.Email,
			Age:                it.Age,
			WeightKg:           decimal.Decimal(it.WeightKg),
			HeightCm:           decimal.Decimal(it.HeightCm),
			FitnessGoal:        it.FitnessGoal,
			DietaryPreferences: it.DietaryPreferences,
		},
		UpdatedAt: it.UpdatedAt,
	}

	if fb := it.Feedback; fb != nil {
		rec.Profile.Feedback = &models.Feedback{
			WorkoutDifficulty: fb.WorkoutDifficulty,
			EnjoymentRating:   fb.EnjoymentRating,
			ProgressNotes:     fb.ProgressNotes,
		}
		if fb.CurrentWeight != nil {
			w := decimal.Decimal(*fb.CurrentWeight)
			rec.Profile.Feedback.CurrentWeight = &w
		}
	}

	if it.Plan != nil {
		nutrition := json.RawMessage(it.Plan.Nutrition)
		if err := checkArtifact(nutrition); err != nil {
			return models.PlanRecord{}, fmt.Errorf("decode nutrition: %w", err)
		}
		workout := json.RawMessage(it.Plan.Workout)
		if err := checkArtifact(workout); err != nil {
			return models.PlanRecord{}, fmt.Errorf("decode workout: %w", err)
		}
		rec.Plan = &models.Plan{Nutrition: nutrition, Workout: workout}
	}
	return rec, nil
}

func checkArtifact(raw json.RawMessage) error {
	if !json.Valid(raw) {
		return errors.New("artifact is not valid JSON")
	}
	return nil
}

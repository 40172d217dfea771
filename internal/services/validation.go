package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
)

var (
	maxWeightKg = decimal.NewFromInt(500)
	maxHeightCm = decimal.NewFromInt(300)
)

// Measurements are stored as numeric(8,3).
const (
	maxScale = 3
	// Exponents below this are rejected before any arithmetic, which would
	// otherwise expand the coefficient by 10^-exp.
	minExponent = -18
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NormalizeEmail trims and lower-cases an email so it can be used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fieldPath(fe), Message: describe(fe)}
}

// fieldPath drops the struct name from "PlanRequest.feedback.enjoyment_rating".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

func checkRange(field string, v, max decimal.Decimal) error {
	if !v.IsPositive() {
		return &ValidationError{Field: field, Message: "must be greater than 0"}
	}
	// A positive value with exponent above maxScale is at least 10^4.
	if v.Exponent() > maxScale {
		return &ValidationError{Field: field, Message: "must be at most " + max.String()}
	}
	if exp := v.Exponent(); exp < -maxScale {
		if exp < minExponent || !v.Equal(v.Truncate(maxScale)) {
			return &ValidationError{Field: field, Message: "must have at most 3 decimal places"}
		}
	}
	if v.GreaterThan(max) {
		return &ValidationError{Field: field, Message: "must be at most " + max.String()}
	}
	return nil
}

// NewProfile normalizes and validates a plan request into a Profile. Nothing
// is read or written; a rejected request fails with *ValidationError.
func NewProfile(req *dto.PlanRequest) (models.Profile, error) {
	in := *req
	in.Email = NormalizeEmail(in.Email)
	in.FitnessGoal = strings.TrimSpace(in.FitnessGoal)
	if in.Feedback != nil {
		fb := *in.Feedback
		fb.WorkoutDifficulty = strings.TrimSpace(fb.WorkoutDifficulty)
		fb.ProgressNotes = strings.TrimSpace(fb.ProgressNotes)
		in.Feedback = &fb
	}

	if err := validateStruct(&in); err != nil {
		return models.Profile{}, err
	}
	if err := checkRange("weight_kg", in.WeightKg, maxWeightKg); err != nil {
		return models.Profile{}, err
	}
	if err := checkRange("height_cm", in.HeightCm, maxHeightCm); err != nil {
		return models.Profile{}, err
	}

	profile := models.Profile{
		Email:              in.Email,
		Age:                in.Age,
		WeightKg:           in.WeightKg,
		HeightCm:           in.HeightCm,
		FitnessGoal:        in.FitnessGoal,
		DietaryPreferences: normalizeTags(in.DietaryPreferences),
	}

	if fb := in.Feedback; fb != nil {
		feedback := &models.Feedback{
			WorkoutDifficulty: fb.WorkoutDifficulty,
			EnjoymentRating:   fb.EnjoymentRating,
			ProgressNotes:     fb.ProgressNotes,
		}
		if fb.CurrentWeight != nil {
			if err := checkRange("feedback.current_weight", *fb.CurrentWeight, maxWeightKg); err != nil {
				return models.Profile{}, err
			}
			w := *fb.CurrentWeight
			feedback.CurrentWeight = &w
		}
		profile.Feedback = feedback
	}

	return profile, nil
}

// normalizeTags trims tags, drops blanks and keeps the first of any duplicate.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

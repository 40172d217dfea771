package generator

import (
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
)

const (
	nutritionSystemPrompt = "You are a nutrition expert."
	workoutSystemPrompt   = "You are a workout expert."
)

func nutritionPrompt(p models.Profile) string {
	prefs := "none"
	if len(p.DietaryPreferences) > 0 {
		prefs = strings.Join(p.DietaryPreferences, ", ")
	}

	var b strings.Builder
	b.WriteString("You are a professional fitness assistant. Create a 7-day nutritional plan for a user with this profile:\n")
	writeProfile(&b, p)
	fmt.Fprintf(&b, "- Dietary Preferences: %s\n", prefs)
	writeFeedback(&b, p.Feedback)
	b.WriteString("\nGive an estimated daily calorie target and a structured meal plan, day by day.")
	return b.String()
}

func workoutPrompt(p models.Profile) string {
	var b strings.Builder
	b.WriteString("You are a certified personal trainer. Create a 7-day workout routine for a user with this profile:\n")
	writeProfile(&b, p)
	writeFeedback(&b, p.Feedback)
	b.WriteString("\nInclude rest or active recovery days and output a structured routine, day by day.")
	return b.String()
}

func writeProfile(b *strings.Builder, p models.Profile) {
	fmt.Fprintf(b, "- Age: %d years\n", p.Age)
	fmt.Fprintf(b, "- Weight: %s kg\n", p.WeightKg.String())
	fmt.Fprintf(b, "- Height: %s cm\n", p.HeightCm.String())
	fmt.Fprintf(b, "- Fitness Goal: %s\n", strings.ReplaceAll(p.FitnessGoal, "_", " "))
}

func writeFeedback(b *strings.Builder, fb *models.Feedback) {
	if fb == nil {
		b.WriteString("\nThis is the user's first plan; keep it welcoming and achievable.\n")
		return
	}
	b.WriteString("\nFeedback on the previous week (adjust the plan accordingly):\n")
	fmt.Fprintf(b, "- Workout Difficulty: %s\n", strings.ReplaceAll(fb.WorkoutDifficulty, "_", " "))
	fmt.Fprintf(b, "- Enjoyment Rating: %d/5\n", fb.EnjoymentRating)
	if fb.CurrentWeight != nil {
		fmt.Fprintf(b, "- Current Weight: %s kg\n", fb.CurrentWeight.String())
	}
	notes := fb.ProgressNotes
	if notes == "" {
		notes = "None"
	}
	fmt.Fprintf(b, "- Notes: %s\n", notes)
}

package dynamostore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/storage"
)

// fakeAPI keeps items per table and honours attribute_not_exists(email).
type fakeAPI struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
	getErr error
	putErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func keyOf(item map[string]types.AttributeValue) string {
	if s, ok := item["email"].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	item := f.tables[aws.ToString(in.TableName)][keyOf(in.Key)]
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	table := aws.ToString(in.TableName)
	if f.tables[table] == nil {
		f.tables[table] = map[string]map[string]types.AttributeValue{}
	}
	key := keyOf(in.Item)
	if aws.ToString(in.ConditionExpression) == "attribute_not_exists(email)" {
		if _, exists := f.tables[table][key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
		}
	}
	f.tables[table][key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableName: in.TableName}}, nil
}

func TestCredentialRoundTrip(t *testing.T) {
	api := newFakeAPI()
	store := New(api, "users-auth", "users-data")
	ctx := context.Background()

	_, err := store.GetCredential(ctx, "a@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	cred := models.Credential{
		Email:        "a@example.com",
		Name:         "Ann",
		PasswordHash: "$2a$hash",
		CreatedAt:    time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
		IsActive:     true,
	}
	require.NoError(t, store.CreateCredential(ctx, cred))

	got, err := store.GetCredential(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, cred.Email, got.Email)
	assert.Equal(t, cred.Name, got.Name)
	assert.Equal(t, cred.PasswordHash, got.PasswordHash)
	assert.True(t, cred.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, got.IsActive)
}

func TestCreateCredential_Conflict(t *testing.T) {
	api := newFakeAPI()
	store := New(api, "users-auth", "users-data")
	ctx := context.Background()

	first := models.Credential{Email: "a@example.com", Name: "Ann", PasswordHash: "h1", IsActive: true}
	require.NoError(t, store.CreateCredential(ctx, first))

	err := store.CreateCredential(ctx, models.Credential{Email: "a@example.com", Name: "Other", PasswordHash: "h2"})
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	got, err := store.GetCredential(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, "h1", got.PasswordHash)
}

func TestPlanRecordRoundTrip_ExactDecimals(t *testing.T) {
	api := newFakeAPI()
	store := New(api, "users-auth", "users-data")
	ctx := context.Background()

	current := decimal.RequireFromString("69.8")
	rec := models.PlanRecord{
		Email: "a@example.com",
		Profile: models.Profile{
			Email:              "a@example.com",
			Age:                30,
			WeightKg:           decimal.RequireFromString("70.5"),
			HeightCm:           decimal.RequireFromString("175.25"),
			FitnessGoal:        "lose_weight",
			DietaryPreferences: []string{"vegan"},
			Feedback: &models.Feedback{
				WorkoutDifficulty: models.DifficultyJustRight,
				EnjoymentRating:   4,
				CurrentWeight:     &current,
				ProgressNotes:     "knees ok",
			},
		},
		Plan: &models.Plan{
			Nutrition: json.RawMessage(`{"plan_text":"eat","days":7}`),
			Workout:   json.RawMessage(`{"plan_text":"lift"}`),
		},
		UpdatedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.PutPlanRecord(ctx, rec))

	raw := api.tables["users-data"]["a@example.com"]
	weight, ok := raw["weight_kg"].(*types.AttributeValueMemberN)
	require.True(t, ok, "weight_kg must be stored as a number attribute")
	assert.Equal(t, "70.5", weight.Value)
	height, ok := raw["height_cm"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.Equal(t, "175.25", height.Value)
	plan, ok := raw["plan"].(*types.AttributeValueMemberM)
	require.True(t, ok, "plan must be stored as a nested map")
	nutrition, ok := plan.Value["nutrition"].(*types.AttributeValueMemberS)
	require.True(t, ok, "artifacts are stored as JSON text")
	assert.Equal(t, `{"plan_text":"eat","days":7}`, nutrition.Value)

	got, err := store.GetPlanRecord(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "70.5", got.Profile.WeightKg.String())
	assert.Equal(t, "175.25", got.Profile.HeightCm.String())
	assert.Equal(t, []string{"vegan"}, got.Profile.DietaryPreferences)
	require.NotNil(t, got.Profile.Feedback)
	require.NotNil(t, got.Profile.Feedback.CurrentWeight)
	assert.Equal(t, "69.8", got.Profile.Feedback.CurrentWeight.String())
	require.NotNil(t, got.Plan)
	assert.JSONEq(t, `{"plan_text":"eat","days":7}`, string(got.Plan.Nutrition))
	assert.JSONEq(t, `{"plan_text":"lift"}`, string(got.Plan.Workout))
}

func TestPlanRecordRoundTrip_ArtifactVerbatim(t *testing.T) {
	api := newFakeAPI()
	store := New(api, "users-auth", "users-data")
	ctx := context.Background()

	nutrition := `{"kcal":12345678901234567891,"protein_g":0.1000000000000000055511151231257827}`
	workout := `{"z_last":1,"a_first":2.50}`
	rec := models.PlanRecord{
		Email:   "a@example.com",
		Profile: models.Profile{Email: "a@example.com", Age: 30, WeightKg: decimal.NewFromInt(70), HeightCm: decimal.NewFromInt(175)},
		Plan:    &models.Plan{Nutrition: json.RawMessage(nutrition), Workout: json.RawMessage(workout)},
	}
	require.NoError(t, store.PutPlanRecord(ctx, rec))

	got, err := store.GetPlanRecord(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, got.Plan)
	assert.Equal(t, nutrition, string(got.Plan.Nutrition))
	assert.Equal(t, workout, string(got.Plan.Workout))
}

func TestPutPlanRecord_RejectsInvalidArtifact(t *testing.T) {
	api := newFakeAPI()
	store := New(api, "users-auth", "users-data")

	rec := models.PlanRecord{
		Email:   "a@example.com",
		Profile: models.Profile{Email: "a@example.com", Age: 30, WeightKg: decimal.NewFromInt(70), HeightCm: decimal.NewFromInt(175)},
		Plan:    &models.Plan{Nutrition: json.RawMessage(`{"kcal":`), Workout: json.RawMessage(`"ok"`)},
	}
	require.Error(t, store.PutPlanRecord(context.Background(), rec))
	assert.Empty(t, api.tables["users-data"])
}

func TestPutPlanRecord_Overwrites(t *testing.T) {
	api := newFakeAPI()
	store := New(api, "users-auth", "users-data")
	ctx := context.Background()

	rec := models.PlanRecord{
		Email:   "a@example.com",
		Profile: models.Profile{Email: "a@example.com", Age: 30, WeightKg: decimal.NewFromInt(70), HeightCm: decimal.NewFromInt(175)},
		Plan:    &models.Plan{Nutrition: json.RawMessage(`"v1"`), Workout: json.RawMessage(`"v1"`)},
	}
	require.NoError(t, store.PutPlanRecord(ctx, rec))

	rec.Plan = &models.Plan{Nutrition: json.RawMessage(`"v2"`), Workout: json.RawMessage(`"v2"`)}
	require.NoError(t, store.PutPlanRecord(ctx, rec))

	got, err := store.GetPlanRecord(ctx, "a@example.com")
	require.NoError(t, err)
	assert.JSONEq(t, `"v2"`, string(got.Plan.Nutrition))
}

func TestGetPlanRecord_Errors(t *testing.T) {
	api := newFakeAPI()
	store := New(api, "users-auth", "users-data")

	_, err := store.GetPlanRecord(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	api.getErr = errors.New("throttled")
	_, err = store.GetPlanRecord(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
	assert.Contains(t, err.Error(), "throttled")
}

func TestPing(t *testing.T) {
	store := New(newFakeAPI(), "users-auth", "users-data")
	require.NoError(t, store.Ping(context.Background()))
}

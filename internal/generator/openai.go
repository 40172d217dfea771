package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/models"
)

const (
	maxTokens   = 400
	temperature = 0.2
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("language model API key not configured")

// OpenAIGenerator calls an OpenAI-compatible chat completions endpoint once
// for nutrition and once for the workout. It never retries; the first error
// cancels the sibling call and is returned.
type OpenAIGenerator struct {
	apiURL string
	apiKey string
	model  string
	client *http.Client
}

// NewOpenAIGenerator creates a generator from config. Deadlines come from the
// caller's context, so the HTTP client carries no timeout of its own.
func NewOpenAIGenerator(cfg *config.Config) *OpenAIGenerator {
	return &OpenAIGenerator{
		apiURL: cfg.OpenAIAPIURL,
		apiKey: cfg.OpenAIAPIKey,
		model:  cfg.OpenAIModel,
		client: &http.Client{},
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, profile models.Profile) (models.Plan, error) {
	if g.apiKey == "" {
		return models.Plan{}, ErrNotConfigured
	}

	var plan models.Plan
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		artifact, err := g.artifact(egCtx, nutritionSystemPrompt, nutritionPrompt(profile))
		if err != nil {
			return fmt.Errorf("nutrition: %w", err)
		}
		plan.Nutrition = artifact
		return nil
	})
	eg.Go(func() error {
		artifact, err := g.artifact(egCtx, workoutSystemPrompt, workoutPrompt(profile))
		if err != nil {
			return fmt.Errorf("workout: %w", err)
		}
		plan.Workout = artifact
		return nil
	})
	if err := eg.Wait(); err != nil {
		return models.Plan{}, err
	}
	return plan, nil
}

// artifact wraps the model text as {"plan_text": "..."}.
func (g *OpenAIGenerator) artifact(ctx context.Context, systemPrompt, userPrompt string) (json.RawMessage, error) {
	text, err := g.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		PlanText string `json:"plan_text"`
	}{PlanText: text})
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *OpenAIGenerator) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned %d: %s", resp.StatusCode, truncate(string(body), 512))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("empty response from API")
	}

	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```markdown")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errors.New("empty completion from API")
	}
	return content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

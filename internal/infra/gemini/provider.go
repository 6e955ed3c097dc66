package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"quiz-battle-service/internal/domain"
)

const defaultModel = "gemini-2.5-flash"

// Provider generates question sets with Gemini. Any failure (transport,
// malformed output, wrong count) surfaces as an error so the caller can
// fall back to the curated bank.
type Provider struct {
	client *genai.Client
	model  string
}

func NewProvider(ctx context.Context, apiKey string) (*Provider, error) {
	cfg := &genai.ClientConfig{}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return &Provider{client: client, model: defaultModel}, nil
}

type generatedQuestion struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
}

func (p *Provider) Generate(ctx context.Context, topic string, difficulty domain.Difficulty, count int) ([]domain.Question, error) {
	prompt := buildPrompt(topic, difficulty, count)
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	var generated []generatedQuestion
	cleaned := cleanModelOutput(resp.Text())
	if err := json.Unmarshal([]byte(cleaned), &generated); err != nil {
		return nil, fmt.Errorf("parse gemini output: %w", err)
	}
	if len(generated) != count {
		return nil, fmt.Errorf("gemini returned %d questions, want %d", len(generated), count)
	}

	questions := make([]domain.Question, 0, count)
	for i, g := range generated {
		if len(g.Options) != 4 || g.CorrectIndex < 0 || g.CorrectIndex > 3 || g.Text == "" {
			return nil, fmt.Errorf("gemini question %d is malformed", i)
		}
		questions = append(questions, domain.Question{
			Text:         g.Text,
			Options:      g.Options,
			CorrectIndex: g.CorrectIndex,
			Explanation:  g.Explanation,
		})
	}
	return questions, nil
}

func buildPrompt(topic string, difficulty domain.Difficulty, count int) string {
	return fmt.Sprintf(`Generate exactly %d multiple-choice trivia questions about %q at %s difficulty.
Respond with ONLY a JSON array, no prose, where each element has this shape:
{"text": "...", "options": ["...", "...", "...", "..."], "correctIndex": 0, "explanation": "..."}
Each question must have exactly 4 options and correctIndex must point at the right one.`,
		count, topic, difficulty)
}

func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"google.golang.org/genai"
)

// Defaults for the Gemini developer API.
const (
	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultTemperature       = 0.2
	DefaultMaxTokens   int32 = 10000
)

// DefaultVertexModel is the Vertex AI model used when none is configured.
const DefaultVertexModel = "gemini-1.0-pro-001"

// GenAI is a ChatModel over google.golang.org/genai. It works with both the
// Gemini developer API and Vertex AI.
type GenAI struct {
	client *genai.Client
	model  string
	config genai.GenerateContentConfig
}

// Model returns the model name sent with every request.
func (g *GenAI) Model() string {
	return g.model
}

// Generate sends the conversation and returns the reply text. System
// messages become the system instruction.
func (g *GenAI) Generate(ctx context.Context, messages []Message) (string, error) {
	var (
		system   []string
		contents []*genai.Content
	)
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return "", ErrEmptyConversation
	}

	cfg := g.config
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &cfg)
	if err != nil {
		return "", fmt.Errorf("generate content with %s: %w", g.model, err)
	}

	return resp.Text(), nil
}

// GeminiFactory builds models on the Gemini developer API.
type GeminiFactory struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int32
	HTTPClient  *http.Client
}

// Build fails fast when no API key is available.
func (f *GeminiFactory) Build(ctx context.Context) (ChatModel, error) {
	if f.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     f.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: f.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newGenAI(client, orDefault(f.Model, DefaultGeminiModel), f.Temperature, f.MaxTokens), nil
}

// VertexAIFactory builds models on Vertex AI with application default credentials.
type VertexAIFactory struct {
	Project    string
	Location   string
	Model      string
	HTTPClient *http.Client
}

func (f *VertexAIFactory) Build(ctx context.Context) (ChatModel, error) {
	project := orDefault(f.Project, os.Getenv("GOOGLE_CLOUD_PROJECT"))
	if project == "" {
		return nil, errors.New("vertexai project is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:    genai.BackendVertexAI,
		Project:    project,
		Location:   orDefault(f.Location, "us-central1"),
		HTTPClient: f.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	return newGenAI(client, orDefault(f.Model, DefaultVertexModel), 0, 0), nil
}

func newGenAI(client *genai.Client, model string, temperature float32, maxTokens int32) *GenAI {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &GenAI{
		client: client,
		model:  model,
		config: genai.GenerateContentConfig{
			Temperature:     genai.Ptr(temperature),
			MaxOutputTokens: maxTokens,
		},
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Package llm builds chat models backed by Gemini, Vertex AI or a local stub.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shandysiswandi/goweave/internal/pkg/pkgconfig"
)

// Role of a message author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

func System(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message      { return Message{Role: RoleUser, Content: content} }
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// ChatModel generates the next assistant reply for a conversation.
type ChatModel interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Factory builds a ChatModel.
type Factory interface {
	Build(ctx context.Context) (ChatModel, error)
}

// ErrEmptyConversation is returned by models asked to reply to nothing.
var ErrEmptyConversation = errors.New("no messages to send")

// Supported values of llm.provider.
const (
	ProviderGemini   = "gemini"
	ProviderVertexAI = "vertexai"
	ProviderStub     = "stub"
)

// FactoryFromConfig picks a factory by llm.provider (gemini when unset).
// gemini.api_key must already hold the resolved key.
func FactoryFromConfig(cfg pkgconfig.Config, httpClient *http.Client) (Factory, error) {
	switch p := strings.ToLower(cfg.GetString("llm.provider")); p {
	case "", ProviderGemini:
		return &GeminiFactory{
			APIKey:      cfg.GetString("gemini.api_key"),
			Model:       cfg.GetString("gemini.model"),
			Temperature: float32(cfg.GetFloat("gemini.temperature")),
			MaxTokens:   int32(cfg.GetInt("gemini.max_tokens")),
			HTTPClient:  httpClient,
		}, nil
	case ProviderVertexAI:
		return &VertexAIFactory{
			Project:    cfg.GetString("vertexai.project"),
			Location:   cfg.GetString("vertexai.location"),
			Model:      cfg.GetString("vertexai.model"),
			HTTPClient: httpClient,
		}, nil
	case ProviderStub:
		return StubFactory{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", p)
	}
}

package llm

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/goweave/internal/pkg/pkgconfig"
)

func TestStub(t *testing.T) {
	s := &Stub{}

	got, err := s.Generate(context.Background(), []Message{System("be nice"), User("hello"), Assistant("hi")})
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Len(t, s.Calls(), 1)

	_, err = s.Generate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyConversation)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Generate(ctx, []Message{User("x")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScripted(t *testing.T) {
	s := &Stub{Reply: Scripted("fallback", map[string]string{"weather": "sunny"})}

	got, err := s.Generate(context.Background(), []Message{User("how is the weather")})
	require.NoError(t, err)
	assert.Equal(t, "sunny", got)

	got, err = s.Generate(context.Background(), []Message{User("anything else")})
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)
}

func TestFactoryFromConfig(t *testing.T) {
	tests := []struct {
		provider string
		want     any
		wantErr  bool
	}{
		{provider: "", want: &GeminiFactory{}},
		{provider: "gemini", want: &GeminiFactory{}},
		{provider: "VertexAI", want: &VertexAIFactory{}},
		{provider: "stub", want: StubFactory{}},
		{provider: "openai", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := pkgconfig.NewFromMap(map[string]any{"llm": map[string]any{"provider": tt.provider}})
			f, err := FactoryFromConfig(cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}
}

func TestGeminiFactoryRequiresKey(t *testing.T) {
	_, err := (&GeminiFactory{}).Build(context.Background())
	assert.Error(t, err)
}

func TestGeminiSmoke(t *testing.T) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	model, err := (&GeminiFactory{APIKey: key}).Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, model)

	reply, err := model.Generate(context.Background(), []Message{User("why is the sky blue?")})
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
}

func TestVertexAISmoke(t *testing.T) {
	project := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if project == "" || os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("vertex ai credentials not set")
	}

	model, err := (&VertexAIFactory{Project: project}).Build(context.Background())
	require.NoError(t, err)

	reply, err := model.Generate(context.Background(), []Message{User("why is the sky blue?")})
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
}

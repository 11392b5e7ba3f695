package llm

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Stub is an offline ChatModel. Reply, when set, computes the answer;
// otherwise the last user message is echoed back.
type Stub struct {
	Reply func(messages []Message) (string, error)

	mu    sync.Mutex
	calls [][]Message
}

func (s *Stub) Generate(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", ErrEmptyConversation
	}

	s.mu.Lock()
	s.calls = append(s.calls, append([]Message(nil), messages...))
	s.mu.Unlock()

	if s.Reply != nil {
		return s.Reply(messages)
	}

	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content, nil
		}
	}
	return "", nil
}

// Calls returns every conversation the stub received.
func (s *Stub) Calls() [][]Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([][]Message(nil), s.calls...)
}

// Scripted answers with the reply whose key appears in the last message.
// Keys are tried in lexical order; def is returned when none matches.
func Scripted(def string, replies map[string]string) func([]Message) (string, error) {
	keys := slices.Sorted(maps.Keys(replies))
	return func(messages []Message) (string, error) {
		last := messages[len(messages)-1].Content
		for _, k := range keys {
			if strings.Contains(last, k) {
				return replies[k], nil
			}
		}
		return def, nil
	}
}

// StubFactory builds echoing stubs.
type StubFactory struct{}

func (StubFactory) Build(context.Context) (ChatModel, error) {
	return &Stub{}, nil
}

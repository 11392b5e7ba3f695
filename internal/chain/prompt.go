package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shandysiswandi/goweave/internal/llm"
)

// ErrMissingVariable is returned when a template references a variable the
// input does not have.
var ErrMissingVariable = errors.New("missing template variable")

// Template is a parsed message template. "{name}" is replaced by the variable
// name; "{{" and "}}" render literal braces.
type Template struct {
	parts []part
	vars  []string
}

type part struct {
	text     string
	variable bool
}

// ParseTemplate parses s.
func ParseTemplate(s string) (Template, error) {
	var (
		t   Template
		buf strings.Builder
	)

	flush := func() {
		if buf.Len() > 0 {
			t.parts = append(t.parts, part{text: buf.String()})
			buf.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				buf.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return Template{}, fmt.Errorf("unclosed '{' at offset %d", i)
			}
			name := strings.TrimSpace(s[i+1 : i+1+end])
			if name == "" || strings.ContainsAny(name, "{ ") {
				return Template{}, fmt.Errorf("invalid variable %q at offset %d", s[i+1:i+1+end], i)
			}
			flush()
			t.parts = append(t.parts, part{text: name, variable: true})
			t.vars = append(t.vars, name)
			i += end + 1
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				buf.WriteByte('}')
				i++
				continue
			}
			return Template{}, fmt.Errorf("single '}' at offset %d", i)
		default:
			buf.WriteByte(c)
		}
	}
	flush()

	return t, nil
}

// Variables lists referenced variable names in order of appearance.
func (t Template) Variables() []string {
	return t.vars
}

// Format renders the template with vars.
func (t Template) Format(vars Vars) (string, error) {
	var b strings.Builder
	for _, p := range t.parts {
		if !p.variable {
			b.WriteString(p.text)
			continue
		}
		v, ok := vars[p.text]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrMissingVariable, p.text)
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// Escape makes s safe to embed literally in a template.
func Escape(s string) string {
	return strings.NewReplacer("{", "{{", "}", "}}").Replace(s)
}

// MessageTemplate is a templated message with a fixed role.
type MessageTemplate struct {
	Role     llm.Role
	Template Template
}

// Prompt renders a list of message templates into a conversation.
type Prompt struct {
	messages []MessageTemplate
}

// NewPrompt parses (role, template) pairs.
func NewPrompt(pairs ...[2]string) (*Prompt, error) {
	p := &Prompt{}
	for _, pair := range pairs {
		t, err := ParseTemplate(pair[1])
		if err != nil {
			return nil, fmt.Errorf("%s message: %w", pair[0], err)
		}
		p.messages = append(p.messages, MessageTemplate{Role: llm.Role(pair[0]), Template: t})
	}
	return p, nil
}

// MustPrompt is NewPrompt for templates known at compile time.
func MustPrompt(pairs ...[2]string) *Prompt {
	p, err := NewPrompt(pairs...)
	if err != nil {
		panic(err)
	}
	return p
}

// FromTemplate is a prompt with a single user message.
func FromTemplate(s string) (*Prompt, error) {
	return NewPrompt([2]string{string(llm.RoleUser), s})
}

func (p *Prompt) Invoke(_ context.Context, vars Vars) ([]llm.Message, error) {
	out := make([]llm.Message, 0, len(p.messages))
	for _, m := range p.messages {
		text, err := m.Template.Format(vars)
		if err != nil {
			return nil, err
		}
		out = append(out, llm.Message{Role: m.Role, Content: text})
	}
	return out, nil
}

// Model turns a chat model into a stage.
func Model(m llm.ChatModel) Runnable[[]llm.Message, string] {
	return Func[[]llm.Message, string](m.Generate)
}

// PromptModel is the common prompt | model | parser sequence.
func PromptModel(p *Prompt, m llm.ChatModel) Runnable[Vars, string] {
	return Pipe3(Runnable[Vars, []llm.Message](p), Model(m), StrOutputParser())
}

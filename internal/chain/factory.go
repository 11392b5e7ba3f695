package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/shandysiswandi/goweave/internal/llm"
)

// Translation defaults.
const (
	DefaultFromLanguage = "English"
	DefaultToLanguage   = "Chinese"
)

// NewTranslateChain translates the "text" variable between two languages.
func NewTranslateChain(model llm.ChatModel, from, to string) (Runnable[Vars, string], error) {
	if from == "" {
		from = DefaultFromLanguage
	}
	if to == "" {
		to = DefaultToLanguage
	}
	from, to = Escape(from), Escape(to)

	prompt, err := NewPrompt(
		[2]string{string(llm.RoleSystem), fmt.Sprintf("You are a helpful assistant that translates %s to %s.", from, to)},
		[2]string{string(llm.RoleUser), fmt.Sprintf("Translate this sentence from %s to %s. {text}", from, to)},
	)
	if err != nil {
		return nil, err
	}

	return PromptModel(prompt, model), nil
}

var (
	definitionPrompt    = MustPrompt([2]string{"user", "Define '{topic}' concisely in one sentence."})
	advantagesPrompt    = MustPrompt([2]string{"user", "List the 3 main advantages of '{topic}'."})
	disadvantagesPrompt = MustPrompt([2]string{"user", "List the 3 main disadvantages of '{topic}'."})
	reportPrompt        = MustPrompt([2]string{"user", `Write a short report on '{topic}' based on the following.

Definition:
{definition}

Advantages:
{advantages}

Disadvantages:
{disadvantages}

---
Report:`})
)

// NewReportChain generates a definition, advantages and disadvantages of a
// topic in parallel, then joins them into one report.
func NewReportChain(model llm.ChatModel) Runnable[string, string] {
	gather := Assign(map[string]Runnable[Vars, string]{
		"definition":    PromptModel(definitionPrompt, model),
		"advantages":    PromptModel(advantagesPrompt, model),
		"disadvantages": PromptModel(disadvantagesPrompt, model),
	})

	return Pipe3(
		Map(func(topic string) Vars { return Vars{"topic": topic} }),
		gather,
		PromptModel(reportPrompt, model),
	)
}

// Sentiment labels returned by the classifier stage.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

var (
	sentimentPrompt = MustPrompt([2]string{"user",
		"Analyze the sentiment of the following text (positive/negative/neutral): '{text}'. Answer only 'positive', 'negative' or 'neutral'."})
	positivePrompt = MustPrompt([2]string{"user", "Great! It's always good to hear positive news about '{text}'."})
	negativePrompt = MustPrompt([2]string{"user", "I'm sorry to hear the negative news about '{text}'. Is there anything I can do to help?"})
	neutralPrompt  = MustPrompt([2]string{"user", "Thanks for sharing the information about '{text}'."})
)

func sentimentIs(label string) func(Vars) bool {
	return func(v Vars) bool {
		return strings.Contains(strings.ToLower(v["sentiment"]), label)
	}
}

// NewSentimentChain classifies the text and answers with a response that
// matches its sentiment. Unclassifiable text gets the neutral response.
func NewSentimentChain(model llm.ChatModel) Runnable[string, string] {
	classify := Assign(map[string]Runnable[Vars, string]{
		"sentiment": PromptModel(sentimentPrompt, model),
	})

	respond := Branch(
		PromptModel(neutralPrompt, model),
		Case[Vars, string]{When: sentimentIs(SentimentPositive), Then: PromptModel(positivePrompt, model)},
		Case[Vars, string]{When: sentimentIs(SentimentNegative), Then: PromptModel(negativePrompt, model)},
	)

	return Pipe3(
		Map(func(text string) Vars { return Vars{"text": text} }),
		classify,
		respond,
	)
}

// TextExtractor reads the text out of an image file.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// NewOCRTranslateChain extracts the text of an image and translates it.
func NewOCRTranslateChain(ocr TextExtractor, model llm.ChatModel, from, to string) (Runnable[string, string], error) {
	translate, err := NewTranslateChain(model, from, to)
	if err != nil {
		return nil, err
	}

	extract := Func[string, Vars](func(ctx context.Context, path string) (Vars, error) {
		text, err := ocr.ExtractText(ctx, path)
		if err != nil {
			return nil, err
		}
		return Vars{"text": text}, nil
	})

	return Pipe(extract, translate), nil
}

package chain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shandysiswandi/goweave/internal/llm"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgerror"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgrouter"
)

func RegisterHTTPEndpoint(r *pkgrouter.Router, model llm.ChatModel) {
	end := &HTTPEndpoint{
		model:     model,
		report:    NewReportChain(model),
		sentiment: NewSentimentChain(model),
	}

	r.POST("/translate", end.Translate)
	r.POST("/report", end.Report)
	r.POST("/respond", end.Respond)
}

type HTTPEndpoint struct {
	model     llm.ChatModel
	report    Runnable[string, string]
	sentiment Runnable[string, string]
}

type TranslateRequest struct {
	Text string `json:"text"`
	From string `json:"from"`
	To   string `json:"to"`
}

type ReportRequest struct {
	Topic string `json:"topic"`
}

type RespondRequest struct {
	Text string `json:"text"`
}

type OutputResponse struct {
	Output string `json:"output"`
}

func (OutputResponse) Message() string {
	return "chain completed"
}

func (h *HTTPEndpoint) Translate(ctx context.Context, r *http.Request) (any, error) {
	var req TranslateRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, pkgerror.NewInvalidInput(errors.New("text is required"))
	}

	c, err := NewTranslateChain(h.model, req.From, req.To)
	if err != nil {
		return nil, pkgerror.NewInvalidInput(err)
	}

	return invoke(ctx, c, Vars{"text": req.Text})
}

func (h *HTTPEndpoint) Report(ctx context.Context, r *http.Request) (any, error) {
	var req ReportRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Topic) == "" {
		return nil, pkgerror.NewInvalidInput(errors.New("topic is required"))
	}

	return invoke(ctx, h.report, req.Topic)
}

func (h *HTTPEndpoint) Respond(ctx context.Context, r *http.Request) (any, error) {
	var req RespondRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, pkgerror.NewInvalidInput(errors.New("text is required"))
	}

	return invoke(ctx, h.sentiment, req.Text)
}

func decode(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return pkgerror.NewInvalidFormat()
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return pkgerror.NewInvalidFormat()
	}
	return nil
}

func invoke[I any](ctx context.Context, c Runnable[I, string], in I) (any, error) {
	out, err := c.Invoke(ctx, in)
	if err != nil {
		return nil, mapError(err)
	}
	return OutputResponse{Output: out}, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrMissingVariable), errors.Is(err, llm.ErrEmptyConversation):
		return pkgerror.NewInvalidInput(err)
	case errors.Is(err, context.DeadlineExceeded):
		return pkgerror.NewBusiness("model timed out", pkgerror.CodeTimeout)
	default:
		return pkgerror.NewUnavailable(err, "model unavailable")
	}
}

package llm

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"storyloom/internal/pipeline"
)

// Client abstracts the chat-completion backend so stage execution can be
// mocked without network access.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Settings configures the OpenAI-backed client.
type Settings struct {
	Model   string
	APIKey  string
	BaseURL string
}

// OpenAIClient implements Client with the official openai-go SDK.
type OpenAIClient struct {
	Model string
	Opts  []option.RequestOption
}

func NewOpenAIClient(cfg Settings) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIClient{Model: cfg.Model, Opts: opts}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	client := openai.NewClient(c.Opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// stageErrorFromClientError maps a backend failure onto the pipeline's typed
// stage errors so the controller can branch on error kind.
func stageErrorFromClientError(stage pipeline.StageName, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return pipeline.NewRequestTimeoutError(stage, err.Error())
	}

	var apierr *openai.Error
	if errors.As(err, &apierr) {
		status := apierr.StatusCode
		msg := apierr.Message
		if msg == "" {
			msg = err.Error()
		}
		var retryAfter *time.Duration
		if apierr.Response != nil {
			retryAfter = parseRetryAfter(apierr.Response.Header.Get("Retry-After"), time.Now())
		}
		return pipeline.StageErrorFromHTTPStatus(stage, status, msg, retryAfter)
	}

	return pipeline.NewUnknownStageError(stage, err.Error())
}

// parseRetryAfter handles both integer-seconds and HTTP-date forms.
func parseRetryAfter(v string, now time.Time) *time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		d := time.Duration(secs) * time.Second
		return &d
	}
	if t, err := time.Parse(time.RFC1123, v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return &d
	}
	return nil
}

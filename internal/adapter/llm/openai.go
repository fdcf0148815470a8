// Package llm translates questions into SQL through an OpenAI-compatible
// chat model.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/guillermoBallester/askdb/internal/core/port"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.1
	DefaultTopP        = 0.9
	DefaultTimeout     = 30 * time.Second

	provider = "openai-compatible"
)

// DefaultSystemPrompt is used unless a prompt file is configured.
const DefaultSystemPrompt = "You are an expert SQL generator. Given a natural-language request and a database schema, " +
	"output a single best SQL statement. Do not include explanations or markdown. Do not wrap in backticks. " +
	"Prefer safe SELECTs unless the user explicitly requests data modification."

type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	Temperature  float64
	TopP         float64
	Timeout      time.Duration
	SystemPrompt string
	// Dialect names the SQL flavour in the prompt, e.g. "PostgreSQL".
	Dialect string
}

type Translator struct {
	chat         model.BaseChatModel
	model        string
	systemPrompt string
	dialect      string
}

func NewTranslator(ctx context.Context, cfg Config) (*Translator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	modelName := strings.TrimSpace(cfg.Model)
	if modelName == "" {
		modelName = DefaultModel
	}
	topP := cfg.TopP
	if topP <= 0 {
		topP = DefaultTopP
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	systemPrompt := strings.TrimSpace(cfg.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	dialect := cfg.Dialect
	if dialect == "" {
		dialect = "PostgreSQL"
	}

	temperature := float32(cfg.Temperature)
	topP32 := float32(topP)
	chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       modelName,
		Temperature: &temperature,
		TopP:        &topP32,
		Timeout:     timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat model: %w", err)
	}
	return &Translator{
		chat:         chat,
		model:        modelName,
		systemPrompt: systemPrompt,
		dialect:      dialect,
	}, nil
}

// LoadSystemPrompt reads a prompt file. An empty path yields the default.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return DefaultSystemPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading system prompt: %w", err)
	}
	return string(data), nil
}

// Translate returns the model's raw answer; fence stripping is left to the
// caller.
func (t *Translator) Translate(ctx context.Context, req port.TranslateRequest) (port.TranslateResult, error) {
	msg, err := t.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(t.systemPrompt),
		schema.UserMessage(buildUserPrompt(t.dialect, req)),
	})
	if err != nil {
		return port.TranslateResult{}, fmt.Errorf("chat completion: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return port.TranslateResult{}, fmt.Errorf("empty chat completion")
	}

	return port.TranslateResult{
		SQL:      msg.Content,
		Provider: provider,
		Model:    t.model,
	}, nil
}

func buildUserPrompt(dialect string, req port.TranslateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s schema summary:\n%s\n\n", dialect, strings.TrimSpace(req.Schema))
	fmt.Fprintf(&b, "User request: %s\n\n", strings.TrimSpace(req.Question))
	if req.Feedback != "" {
		fmt.Fprintf(&b, "The previous SQL caused a %s error: %s.\n", dialect, req.Feedback)
		b.WriteString("Regenerate a valid SQL that matches the schema. Return only the SQL.")
	} else {
		b.WriteString("Return only the SQL query with no commentary.")
	}
	return b.String()
}

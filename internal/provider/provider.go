// Package provider adapts Eino chat models to the single-shot completion
// interface AI participants consume. Each provider wraps one configured
// model; the registry picks between them at spawn time.
package provider

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Default generation parameters applied when a request leaves them unset.
const (
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.7
)

// ErrEmptySpeech reports a completion whose speech channel came back blank
// after parsing. Callers treat it as retryable.
var ErrEmptySpeech = errors.New("model response contained no speech")

// Provider is a single LLM backend capable of producing chat completions.
type Provider interface {
	// ID returns the provider identifier used in configuration.
	ID() string

	// Name returns the human-readable provider name.
	Name() string

	// Model returns the model identifier completions are generated with.
	Model() string

	// Generate produces one completion for the request.
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Request carries the system prompt and conversation history for one
// completion. Zero MaxTokens and Temperature take the package defaults.
type Request struct {
	System      string
	Messages    []*schema.Message
	MaxTokens   int
	Temperature float64
}

// einoMessages prepends the system prompt to the history in the shape the
// chat models expect.
func (r *Request) einoMessages() []*schema.Message {
	messages := make([]*schema.Message, 0, len(r.Messages)+1)
	if r.System != "" {
		messages = append(messages, &schema.Message{Role: schema.System, Content: r.System})
	}
	return append(messages, r.Messages...)
}

func (r *Request) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return DefaultMaxTokens
}

func (r *Request) temperature() float64 {
	if r.Temperature > 0 {
		return r.Temperature
	}
	return DefaultTemperature
}

// Response is a parsed completion. Content holds the raw model output;
// Think and Speech hold the two channels extracted from it.
type Response struct {
	Content      string `json:"content"`
	Think        string `json:"think"`
	Speech       string `json:"speech"`
	Model        string `json:"model"`
	FinishReason string `json:"finishReason,omitempty"`
	TokensUsed   int    `json:"tokensUsed,omitempty"`
}

var (
	thinkTagRe  = regexp.MustCompile(`(?s)<think>(.*?)</think>`)
	speechTagRe = regexp.MustCompile(`(?s)<speech>(.*?)</speech>`)
)

// ParseResponse splits raw model output into its think and speech channels.
// When the model ignored the tag format entirely, the whole output is
// treated as speech so the partner still gets a message.
func ParseResponse(content string) (think, speech string) {
	thinkMatch := thinkTagRe.FindStringSubmatch(content)
	speechMatch := speechTagRe.FindStringSubmatch(content)

	if thinkMatch != nil {
		think = strings.TrimSpace(thinkMatch[1])
	}
	if speechMatch != nil {
		speech = strings.TrimSpace(speechMatch[1])
	}
	if thinkMatch == nil && speechMatch == nil {
		speech = strings.TrimSpace(content)
	}
	return think, speech
}

// newResponse builds a Response from a completed Eino message.
func newResponse(msg *schema.Message, modelID string) *Response {
	think, speech := ParseResponse(msg.Content)

	resp := &Response{
		Content: msg.Content,
		Think:   think,
		Speech:  speech,
		Model:   modelID,
	}

	if msg.ResponseMeta != nil {
		resp.FinishReason = msg.ResponseMeta.FinishReason
		if usage := msg.ResponseMeta.Usage; usage != nil {
			resp.TokensUsed = usage.PromptTokens + usage.CompletionTokens
		}
	}

	return resp
}

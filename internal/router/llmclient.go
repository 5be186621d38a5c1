package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"
)

// MessagesClient captures the subset of the Anthropic SDK used by the
// disambiguation adapter, so tests can substitute a fake without touching
// the network (mirrors goa-ai's features/model/anthropic.MessagesClient seam).
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// AnthropicDisambiguator is the concrete Disambiguator backend for spec
// §4.3 step 3: a temperature-0 classification call against Claude. The
// user message ends with an instruction to answer with the chosen triad id
// on its own first line, per the expected response grammar.
type AnthropicDisambiguator struct {
	client MessagesClient
	model  string
}

// NewAnthropicDisambiguator builds a disambiguator from a Messages client
// and a model identifier (e.g. a Claude model constant from anthropic-sdk-go).
func NewAnthropicDisambiguator(client MessagesClient, model string) *AnthropicDisambiguator {
	return &AnthropicDisambiguator{client: client, model: model}
}

// NewAnthropicDisambiguatorFromAPIKey constructs a disambiguator using the
// default Anthropic HTTP client and the given API key; the caller supplies
// the key (it is not read from the environment here).
func NewAnthropicDisambiguatorFromAPIKey(apiKey, model string) *AnthropicDisambiguator {
	c := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropicDisambiguator(&c.Messages, model)
}

func (a *AnthropicDisambiguator) Disambiguate(ctx context.Context, req DisambiguationRequest) (DisambiguationResponse, error) {
	prompt := buildDisambiguationPrompt(req)

	msg, err := a.client.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(a.model),
		MaxTokens:   256,
		Temperature: sdk.Float(0),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return DisambiguationResponse{}, classifyAnthropicError(err)
	}

	text := extractText(msg)
	lines := strings.SplitN(strings.TrimSpace(text), "\n", 2)
	resp := DisambiguationResponse{}
	if len(lines) > 0 {
		resp.TriadID = strings.TrimSpace(lines[0])
	}
	if len(lines) > 1 {
		resp.Reasoning = strings.TrimSpace(lines[1])
	}
	return resp, nil
}

func buildDisambiguationPrompt(req DisambiguationRequest) string {
	var b strings.Builder
	b.WriteString("You are routing a user message to one of these triads:\n")
	b.WriteString(FormatCandidatesForPrompt(req.Candidates))
	if len(req.RecentConversation) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, line := range req.RecentConversation {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nUser message:\n")
	b.WriteString(req.Prompt)
	b.WriteString("\n\nAnswer with the triad id alone on the first line, then a one-sentence reason on the next line.")
	return b.String()
}

func extractText(msg *sdk.Message) string {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// classifyAnthropicError maps an SDK error onto the router's retry taxonomy
// (spec §4.3 step 3). A best-effort string classification stands in for SDK
// status-code inspection, since the concrete error types vary by transport.
func classifyAnthropicError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid x-api-key") || strings.Contains(msg, "authentication"):
		return fmt.Errorf("%w: %v", ErrAuth, err)
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
}

// breakerState names the gobreaker open/closed/half-open state for logging.
type breakerState = gobreaker.State

// CircuitBreakingDisambiguator wraps a Disambiguator with a gobreaker
// circuit breaker (SPEC_FULL §2 domain stack): repeated external failures
// trip the breaker so the Router falls back to manual selection fast
// instead of retrying into the caller's ~400ms-adjacent budget, grounded on
// jordigilh-kubernaut's pkg/ai resilience pattern.
type CircuitBreakingDisambiguator struct {
	inner   Disambiguator
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreakingDisambiguator wraps inner with a breaker that opens
// after 3 consecutive failures and probes again after 30s.
func NewCircuitBreakingDisambiguator(inner Disambiguator) *CircuitBreakingDisambiguator {
	settings := gobreaker.Settings{
		Name:        "router-llm-disambiguation",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &CircuitBreakingDisambiguator{inner: inner, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (c *CircuitBreakingDisambiguator) Disambiguate(ctx context.Context, req DisambiguationRequest) (DisambiguationResponse, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.inner.Disambiguate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return DisambiguationResponse{}, fmt.Errorf("%w: circuit open: %v", ErrTransient, err)
		}
		return DisambiguationResponse{}, err
	}
	return result.(DisambiguationResponse), nil
}

// State reports the breaker's current state, for health/telemetry surfaces.
func (c *CircuitBreakingDisambiguator) State() breakerState {
	return c.breaker.State()
}

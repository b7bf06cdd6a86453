package phrasing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bentacars/qualifier/internal/observability/metrics"
	"github.com/bentacars/qualifier/internal/qualify"
	"github.com/bentacars/qualifier/pkg/logging"
)

const (
	DefaultTemperature float32 = 0.3
	DefaultMaxTokens   int32   = 160
)

var tracer = otel.Tracer("bentacars.internal.phrasing")

// styleSystemPrompt sets the consultant persona. Content decisions are made
// before the model is called, so the prompt only governs wording.
const styleSystemPrompt = `You are BentaCars' trusted car consultant. Speak like a real Filipino sales pro:
- Natural Taglish, casual and friendly, short sentences.
- Be warm and helpful; sound human (not robotic).
- Match the tone hint you are given.
- Never use the words "segment" or "target monthly".
- Ask at most ONE question, and only about the topic you are told to ask about.
- Never suggest, list, or name cars, prices, or amounts the buyer did not already give.
- Reply with the message text only. No JSON, no quotes, no labels.`

var slotTopics = map[qualify.Slot]string{
	qualify.SlotVehicle:     "what unit or body type they want (sedan, SUV, MPV, pickup, etc.)",
	qualify.SlotPaymentMode: "whether they will pay cash or get financing",
	qualify.SlotBudget:      "their budget range (cash) or the downpayment they have (financing)",
	qualify.SlotLocation:    "which city they are located in",
	qualify.SlotTimeline:    "when they plan to get the unit",
}

// Phraser rewords scripted replies through an LLM. It satisfies
// qualify.Phraser; callers still validate what it returns.
type Phraser struct {
	client      LLMClient
	model       string
	temperature float32
	maxTokens   int32
	metrics     *metrics.TurnMetrics
	logger      *logging.Logger
}

type Option func(*Phraser)

func WithTemperature(t float32) Option { return func(p *Phraser) { p.temperature = t } }

func WithMaxTokens(n int32) Option { return func(p *Phraser) { p.maxTokens = n } }

func WithMetrics(m *metrics.TurnMetrics) Option { return func(p *Phraser) { p.metrics = m } }

func WithLogger(l *logging.Logger) Option { return func(p *Phraser) { p.logger = l } }

func NewPhraser(client LLMClient, model string, opts ...Option) *Phraser {
	if client == nil {
		panic("phrasing: llm client cannot be nil")
	}
	p := &Phraser{
		client:      client,
		model:       model,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.Default()
	}
	return p
}

// Phrase asks the model for a restyled version of req.Script.
func (p *Phraser) Phrase(ctx context.Context, req qualify.PhraseRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "phrasing.phrase")
	defer span.End()

	llmReq := LLMRequest{
		Model:       p.model,
		System:      []string{styleSystemPrompt},
		Messages:    BuildMessages(req),
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	}

	start := time.Now()
	resp, err := p.client.Complete(ctx, llmReq)
	latency := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			status = "timeout"
		}
	}
	p.metrics.ObservePhrase(p.model, status, latency.Seconds())
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("bentacars.phrasing.model", p.model),
			attribute.String("bentacars.phrasing.next_slot", string(req.Decision.Next)),
			attribute.Bool("bentacars.phrasing.complete", req.Decision.Complete),
			attribute.Int64("bentacars.phrasing.latency_ms", latency.Milliseconds()),
			attribute.Int("bentacars.phrasing.total_tokens", int(resp.Usage.TotalTokens)),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		p.logger.Warn("phrasing completion failed", "model", p.model, "latency_ms", latency.Milliseconds(), "error", err)
		return "", fmt.Errorf("phrasing: completion failed: %w", err)
	}
	p.metrics.ObservePhraseTokens(p.model, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", errors.New("phrasing: empty completion")
	}
	p.logger.Debug("phrasing completed", "model", p.model, "latency_ms", latency.Milliseconds(), "stop_reason", resp.StopReason)
	return text, nil
}

// BuildMessages renders the per-turn prompt: known context, the buyer's
// message, and the fixed content decision with its scripted draft.
func BuildMessages(req qualify.PhraseRequest) []ChatMessage {
	known, _ := json.Marshal(KnownInfo(req.State))

	said := req.Message
	if req.Name != "" {
		said = req.Name + ": " + said
	}

	var task strings.Builder
	fmt.Fprintf(&task, "Tone hint: %s.\n", req.Tone)
	switch {
	case req.Decision.Complete && req.Decision.SoftAsk != "":
		fmt.Fprintf(&task, "All required details are in. Confirm briefly, say you'll check the best options next (no listings), and optionally ask %s.\n", slotTopics[req.Decision.SoftAsk])
	case req.Decision.Complete:
		task.WriteString("All required details are in. Confirm briefly and say you'll check the best options next. Do not ask any question and do not list cars.\n")
	default:
		fmt.Fprintf(&task, "Ask exactly one question about %s. Do not ask about anything else.\n", slotTopics[req.Decision.Next])
	}
	if req.Reset {
		task.WriteString("The buyer just asked to start over; acknowledge the fresh start.\n")
	}
	fmt.Fprintf(&task, "Draft reply to restyle: %s", req.Script)

	return []ChatMessage{
		{Role: ChatRoleUser, Content: "Known info right now: " + string(known)},
		{Role: ChatRoleUser, Content: fmt.Sprintf("User says: %q", strings.TrimSpace(said))},
		{Role: ChatRoleUser, Content: task.String()},
	}
}

// KnownInfo is the JSON context block shown to the model. Unknown slots are
// null so the model can see what is still missing.
func KnownInfo(state qualify.SlotState) map[string]any {
	info := map[string]any{
		"model":        nullable(state.Get(qualify.SlotVehicle)),
		"budget":       nil,
		"payment_mode": nullable(state.Get(qualify.SlotPaymentMode)),
		"timeline":     nullable(state.Get(qualify.SlotTimeline)),
		"location":     nullable(state.Get(qualify.SlotLocation)),
	}
	if budget, ok := state.Budget(); ok {
		info["budget"] = budget
	} else if raw := state.Get(qualify.SlotBudget); raw != "" {
		info["budget"] = raw
	}
	if t := state.Get(qualify.SlotTransmission); t != "" {
		info["transmission"] = t
	}
	return info
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

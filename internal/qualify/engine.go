package qualify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrMalformedTurn is returned when a turn lacks its message or user identity.
var ErrMalformedTurn = errors.New("qualify: turn is missing message or user")

// Config holds the engine tunables. The zero value is not useful; start from
// DefaultConfig.
type Config struct {
	Order            []Slot
	LocationOptional bool
	InferLocation    bool
	// ExtraModels and ExtraCities extend the built-in lexicons (alias -> value).
	ExtraModels    map[string]string
	ExtraCities    map[string]string
	ForbiddenTerms []string
	PhraseTimeout  time.Duration
}

// DefaultConfig returns the canonical qualification behavior: every slot
// gates completion and location is never inferred from free text.
func DefaultConfig() Config {
	return Config{
		Order:          append([]Slot(nil), DefaultOrder...),
		ForbiddenTerms: append([]string(nil), DefaultForbiddenTerms...),
		PhraseTimeout:  DefaultPhraseTimeout,
	}
}

// Turn is one inbound message plus the caller's memory snapshot.
type Turn struct {
	Message string
	User    string
	Name    string
	Memory  map[Slot]any
}

// Result is the engine's answer for a turn.
type Result struct {
	Reply    string
	State    SlotState
	Next     Slot
	Complete bool
	SoftAsk  Slot
	Mood     Mood
	Reset    bool
	Source   Source
	// FallbackReason explains why a phrased reply was discarded, if it was.
	FallbackReason string
}

// Engine runs the qualification pipeline. It holds no per-conversation state
// and is safe for concurrent use.
type Engine struct {
	policy    Policy
	extractor *Extractor
	composer  *Composer
	logger    *slog.Logger
}

// Option customizes an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	phraser Phraser
	logger  *slog.Logger
}

// WithPhraser delegates reply wording to p.
func WithPhraser(p Phraser) Option {
	return func(o *engineOptions) { o.phraser = p }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// NewEngine builds an engine from cfg.
func NewEngine(cfg Config, opts ...Option) *Engine {
	o := engineOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	terms := cfg.ForbiddenTerms
	if terms == nil {
		terms = DefaultForbiddenTerms
	}
	extractor := NewExtractor(cfg.ExtraModels, cfg.ExtraCities, cfg.InferLocation)
	return &Engine{
		policy:    Policy{Order: cfg.Order, LocationOptional: cfg.LocationOptional},
		extractor: extractor,
		composer:  NewComposer(o.phraser, cfg.PhraseTimeout, NewDenylist(terms), extractor, o.logger),
		logger:    o.logger,
	}
}

// Handle runs a single turn. The only error is ErrMalformedTurn; every other
// condition resolves to a reply.
func (e *Engine) Handle(ctx context.Context, turn Turn) (Result, error) {
	message := Clean(turn.Message)
	if message == "" || Clean(turn.User) == "" {
		return Result{}, ErrMalformedTurn
	}

	memory := SanitizeMemory(turn.Memory)
	text := Normalize(message)
	reset := DetectReset(text)

	var (
		extracted map[Slot]ExtractionResult
		hint      string
	)
	if !reset {
		extracted = e.extractor.Extract(text, memory)
		hint = PaymentHint(text)
	}
	state := Merge(memory, extracted, reset)
	decision := NextMissing(state, e.policy)
	mood := ClassifyMood(message)

	style := Style{
		Name:         turn.Name,
		Message:      message,
		Mood:         mood,
		PaymentHint:  hint,
		Reset:        reset,
		VehicleLabel: e.vehicleLabel(memory, extracted),
	}
	reply := e.composer.Compose(ctx, decision, state, style)

	e.logger.Debug("turn qualified",
		"user_id", turn.User,
		"next_slot", string(decision.Next),
		"complete", decision.Complete,
		"reset", reset,
		"mood", string(mood),
		"source", string(reply.Source),
	)

	return Result{
		Reply:          reply.Text,
		State:          state,
		Next:           decision.Next,
		Complete:       decision.Complete,
		SoftAsk:        decision.SoftAsk,
		Mood:           mood,
		Reset:          reset,
		Source:         reply.Source,
		FallbackReason: reply.FallbackReason,
	}, nil
}

// vehicleLabel echoes the model the buyer named this turn when the vehicle
// slot was filled from a lexicon hit.
func (e *Engine) vehicleLabel(memory SlotState, extracted map[Slot]ExtractionResult) string {
	if memory.Known(SlotVehicle) {
		return memory.Get(SlotVehicle)
	}
	res, ok := extracted[SlotVehicle]
	if !ok || res.Tier != TierInferred {
		return ""
	}
	return TitleModel(res.Evidence)
}

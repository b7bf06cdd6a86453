package qualify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Source tells where the outgoing reply text came from.
type Source string

const (
	SourceScript  Source = "script"
	SourcePhraser Source = "phraser"
)

// DefaultPhraseTimeout bounds a single phrasing call.
const DefaultPhraseTimeout = 4 * time.Second

// Phraser rewords an already-decided reply. It controls style only; the
// slot being asked and the known context are fixed before it is called.
type Phraser interface {
	Phrase(ctx context.Context, req PhraseRequest) (string, error)
}

// PhraseRequest is everything a phrasing generator may use.
type PhraseRequest struct {
	Decision    Decision
	State       SlotState
	Name        string
	Message     string
	Mood        Mood
	Tone        string
	PaymentHint string
	Reset       bool
	// Script is the deterministic reply the phrasing must stay faithful to.
	Script string
}

// Style carries the per-turn context that shapes wording but not content.
type Style struct {
	Name        string
	Message     string
	Mood        Mood
	PaymentHint string
	Reset       bool
	// VehicleLabel is how to echo the vehicle back, e.g. "Vios".
	VehicleLabel string
}

// Reply is the composed outgoing message.
type Reply struct {
	Text           string
	Source         Source
	FallbackReason string
}

// Composer maps a policy decision to exactly one outgoing message.
type Composer struct {
	phraser   Phraser
	timeout   time.Duration
	denylist  *Denylist
	extractor *Extractor
	logger    *slog.Logger
}

// NewComposer builds a composer. A nil phraser means scripted replies only.
func NewComposer(phraser Phraser, timeout time.Duration, denylist *Denylist, extractor *Extractor, logger *slog.Logger) *Composer {
	if timeout <= 0 {
		timeout = DefaultPhraseTimeout
	}
	if denylist == nil {
		denylist = NewDenylist(DefaultForbiddenTerms)
	}
	if extractor == nil {
		extractor = NewExtractor(nil, nil, false)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		phraser:   phraser,
		timeout:   timeout,
		denylist:  denylist,
		extractor: extractor,
		logger:    logger,
	}
}

// Compose returns the reply for a decision. When a phraser is configured its
// output is used only if it arrives in time and passes validation; every
// other path ends at the scripted template.
func (c *Composer) Compose(ctx context.Context, d Decision, state SlotState, style Style) Reply {
	script := c.denylist.Scrub(c.Script(d, state, style))
	if c.phraser == nil {
		return Reply{Text: script, Source: SourceScript}
	}

	req := PhraseRequest{
		Decision:    d,
		State:       state.Clone(),
		Name:        Clean(style.Name),
		Message:     Clean(style.Message),
		Mood:        style.Mood,
		Tone:        style.Mood.Tone(),
		PaymentHint: style.PaymentHint,
		Reset:       style.Reset,
		Script:      script,
	}
	text, err := c.phrase(ctx, req)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		c.logger.Warn("phrasing failed, using scripted reply", "reason", reason, "error", err)
		return Reply{Text: script, Source: SourceScript, FallbackReason: reason}
	}
	phrased, reason := c.ValidatePhrased(text, req)
	if reason != "" {
		c.logger.Warn("phrased reply rejected, using scripted reply", "reason", reason)
		return Reply{Text: script, Source: SourceScript, FallbackReason: reason}
	}
	return Reply{Text: phrased, Source: SourcePhraser}
}

// phrase runs the generator under the timeout and abandons it when the
// deadline passes, even if the generator ignores its context.
func (c *Composer) phrase(ctx context.Context, req PhraseRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("qualify: phraser panicked: %v", r)}
			}
		}()
		text, err := c.phraser.Phrase(ctx, req)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Script renders the deterministic reply for a decision.
func (c *Composer) Script(d Decision, state SlotState, style Style) string {
	var b strings.Builder
	b.WriteString(opener(style))
	if d.Complete {
		b.WriteString(acknowledgment(style.Name))
		if d.SoftAsk != "" {
			b.WriteString(" ")
			b.WriteString(softAsk(d.SoftAsk))
		}
		return b.String()
	}
	b.WriteString(question(d.Next, state, style))
	return b.String()
}

func opener(style Style) string {
	if style.Reset {
		return "Sige, simula ulit tayo! "
	}
	switch style.Mood {
	case MoodFrustrated:
		return "Pasensya na po sa abala. "
	case MoodConfused:
		return "No worries, step by step lang tayo. "
	case MoodPositive:
		return "Ayos! "
	default:
		return ""
	}
}

func acknowledgment(name string) string {
	greeting := "Salamat!"
	if name = Clean(name); name != "" {
		greeting = "Salamat, " + name + "!"
	}
	return greeting + " Kumpleto na ang details mo. I-check ko na ang best options para sa'yo, saglit lang."
}

func softAsk(slot Slot) string {
	if slot == SlotLocation {
		return "Para mas malapit ang ma-offer ko, saang city ka located?"
	}
	return ""
}

// question returns the single scripted question for a slot.
func question(slot Slot, state SlotState, style Style) string {
	switch slot {
	case SlotVehicle:
		return "Anong unit o body type ang hanap mo, sedan, SUV, MPV, o pickup?"
	case SlotPaymentMode:
		prefix := ""
		if label := vehicleLabel(state, style); label != "" {
			prefix = "Noted sa " + label + ". "
		}
		if style.PaymentHint == PaymentFinancing {
			return prefix + "Financing ba ang plano natin, or cash?"
		}
		return prefix + "Cash or financing ang plano mo?"
	case SlotBudget:
		switch state.Get(SlotPaymentMode) {
		case PaymentCash:
			return "Magkano ang cash budget mo para sa unit?"
		case PaymentFinancing:
			return "Magkano ang downpayment na hawak mo ngayon?"
		default:
			return "Magkano ang budget range mo para sa unit?"
		}
	case SlotLocation:
		return "Saang city ka located para ma-check natin ang pinakamalapit na branch?"
	case SlotTimeline:
		return "Kailan mo balak kumuha ng unit, this week or this month?"
	default:
		return "Paano kita matutulungan sa paghahanap ng sasakyan?"
	}
}

func vehicleLabel(state SlotState, style Style) string {
	label := Clean(style.VehicleLabel)
	if label == "" {
		label = state.Get(SlotVehicle)
	}
	if label == "" {
		return ""
	}
	if t := state.Get(SlotTransmission); t != "" {
		label += " (" + t + ")"
	}
	return label
}

// TitleModel formats a lexicon model key for display ("vios" -> "Vios").
func TitleModel(model string) string {
	model = Clean(model)
	if model == "" {
		return ""
	}
	return cases.Title(language.Und).String(model)
}

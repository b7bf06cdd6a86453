package qualify

import (
	"regexp"
	"strconv"
)

var (
	cashRE      = regexp.MustCompile(`\b(?:cash|full[\s-]?payment|spot[\s-]?cash|lump[\s-]?sum)\b`)
	financingRE = regexp.MustCompile(`\b(?:financing|finance|financed|loan|installment|instalment|hulugan|hulog|monthly|monthlies|terms|bank)\b`)

	// downpaymentHintRE is a weak financing signal: it biases the payment
	// question but never fills the slot.
	downpaymentHintRE = regexp.MustCompile(`\b(?:dp|down[\s-]?payment|downpayment|pa-?hulog)\b`)

	resetRE = regexp.MustCompile(`\b(?:reset|restart|start again|start over|change unit|palit unit|bagong simula)\b`)

	automaticRE = regexp.MustCompile(`\b(?:automatic|matic|a/t)\b`)
	manualRE    = regexp.MustCompile(`\b(?:manual|m/t|stick shift)\b`)

	// Bare "at" and "mt" are ordinary words too, so they only count when
	// they stand alone or sit next to a transmission cue.
	automaticCodeRE = transmissionCodeRE("at")
	manualCodeRE    = transmissionCodeRE("mt")
)

func transmissionCodeRE(code string) *regexp.Regexp {
	return regexp.MustCompile(`^` + code + `(?:\s+(?:po|lang|sana|pls|please))?[\s.!?]*$` +
		`|\b(?:transmission|trans|gusto ko|prefer ko|yung|ung)[\s:]+` + code + `\b` +
		`|\b` + code + `\s+(?:transmission|trans|variant|type)\b`)
}

// timelineBuckets are checked in order; the first match wins.
var timelineBuckets = []struct {
	re     *regexp.Regexp
	bucket string
}{
	{regexp.MustCompile(`\b(?:today|ngayon|ngayong araw|mamaya)\b`), "today"},
	{regexp.MustCompile(`\b(?:this week|within the week|this weekend|ngayong linggo|ngayong week)\b`), "this week"},
	{regexp.MustCompile(`\b(?:next week|next weekend|sa susunod na linggo|susunod na linggo)\b`), "next week"},
	{regexp.MustCompile(`\b(?:this month|within the month|end of the month|ngayong buwan|katapusan)\b`), "this month"},
	{regexp.MustCompile(`\b(?:next month|sa susunod na buwan|susunod na buwan)\b`), "next month"},
	{regexp.MustCompile(`\b(?:soon|asap|agad|agad-agad|as soon as possible|urgent)\b`), "soon"},
}

// DetectReset reports whether the normalized text asks to start over.
func DetectReset(text string) bool {
	return text != "" && resetRE.MatchString(text)
}

// ExtractPaymentMode maps cash and financing synonyms. Text carrying both
// is ambiguous and yields no match.
func ExtractPaymentMode(text string) ExtractionResult {
	if text == "" {
		return ExtractionResult{}
	}
	cash := cashRE.FindString(text)
	financing := financingRE.FindString(text)
	switch {
	case cash != "" && financing != "":
		return ExtractionResult{}
	case cash != "":
		return ExtractionResult{Value: PaymentCash, Tier: TierExplicit, Evidence: cash}
	case financing != "":
		return ExtractionResult{Value: PaymentFinancing, Tier: TierExplicit, Evidence: financing}
	default:
		return ExtractionResult{}
	}
}

// PaymentHint returns "financing" when the text only hints at it (e.g. a
// downpayment mention). The hint is advisory and never marks a slot known.
func PaymentHint(text string) string {
	if text != "" && downpaymentHintRE.MatchString(text) {
		return PaymentFinancing
	}
	return ""
}

// ExtractBudget returns the first plausible peso amount. The same pattern
// serves cash budgets and downpayments; payment mode carries the meaning.
func ExtractBudget(text string) ExtractionResult {
	for _, amount := range FindAmounts(text) {
		if amount.Value < minBudgetAmount {
			continue
		}
		return ExtractionResult{
			Value:    strconv.FormatInt(amount.Value, 10),
			Tier:     TierExplicit,
			Evidence: amount.Raw,
		}
	}
	return ExtractionResult{}
}

// ExtractTimeline returns the first matching purchase-timeline bucket.
func ExtractTimeline(text string) ExtractionResult {
	if text == "" {
		return ExtractionResult{}
	}
	for _, b := range timelineBuckets {
		if m := b.re.FindString(text); m != "" {
			return ExtractionResult{Value: b.bucket, Tier: TierExplicit, Evidence: m}
		}
	}
	return ExtractionResult{}
}

// ExtractTransmission captures the optional, non-gating transmission slot.
func ExtractTransmission(text string) ExtractionResult {
	if text == "" {
		return ExtractionResult{}
	}
	auto := automaticRE.FindString(text)
	if auto == "" {
		auto = automaticCodeRE.FindString(text)
	}
	manual := manualRE.FindString(text)
	if manual == "" {
		manual = manualCodeRE.FindString(text)
	}
	switch {
	case auto != "" && manual != "":
		return ExtractionResult{}
	case auto != "":
		return ExtractionResult{Value: "automatic", Tier: TierExplicit, Evidence: auto}
	case manual != "":
		return ExtractionResult{Value: "manual", Tier: TierExplicit, Evidence: manual}
	default:
		return ExtractionResult{}
	}
}

// Extractor holds the configurable lexicons. It is immutable after
// construction and safe for concurrent use.
type Extractor struct {
	models        []phrase
	cities        []phrase
	inferLocation bool
}

// NewExtractor builds an extractor from the default lexicons plus overrides.
func NewExtractor(extraModels, extraCities map[string]string, inferLocation bool) *Extractor {
	return &Extractor{
		models:        compilePhrases(mergeAliases(defaultModels, extraModels)),
		cities:        compilePhrases(mergeAliases(defaultCities, extraCities)),
		inferLocation: inferLocation,
	}
}

// Vehicle resolves a body class. Explicit body keywords win over a model
// lexicon hit; the lexicon is checked against the message first and then
// against any previously supplied model field.
func (e *Extractor) Vehicle(text string, priorModel string) ExtractionResult {
	for _, kw := range bodyKeywords {
		if m := kw.re.FindString(text); m != "" {
			return ExtractionResult{Value: kw.body, Tier: TierExplicit, Evidence: m}
		}
	}
	for _, source := range []string{text, Normalize(priorModel)} {
		if p, ok := matchPhrase(e.models, source); ok {
			return ExtractionResult{Value: p.value, Tier: TierInferred, Evidence: p.key}
		}
	}
	return ExtractionResult{}
}

// BodyClass resolves a known vehicle value (model or body word) to its body
// class, or "" when it is unrecognized.
func (e *Extractor) BodyClass(vehicle string) string {
	res := e.Vehicle(Normalize(vehicle), "")
	return res.Value
}

// ModelMentioned returns the first lexicon model found in text.
func (e *Extractor) ModelMentioned(text string) string {
	if p, ok := matchPhrase(e.models, text); ok {
		return p.key
	}
	return ""
}

// Location only infers from free text when enabled; by default location is
// taken from caller memory alone.
func (e *Extractor) Location(text string) ExtractionResult {
	if !e.inferLocation {
		return ExtractionResult{}
	}
	if p, ok := matchPhrase(e.cities, text); ok {
		return ExtractionResult{Value: p.value, Tier: TierInferred, Evidence: p.key}
	}
	return ExtractionResult{}
}

// Extract runs every slot extractor over the same normalized text.
func (e *Extractor) Extract(text string, memory SlotState) map[Slot]ExtractionResult {
	results := map[Slot]ExtractionResult{
		SlotVehicle:      e.Vehicle(text, memory.Get(SlotVehicle)),
		SlotPaymentMode:  ExtractPaymentMode(text),
		SlotBudget:       ExtractBudget(text),
		SlotLocation:     e.Location(text),
		SlotTimeline:     ExtractTimeline(text),
		SlotTransmission: ExtractTransmission(text),
	}
	for slot, res := range results {
		if !res.Found() {
			delete(results, slot)
		}
	}
	return results
}

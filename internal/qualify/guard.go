package qualify

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultForbiddenTerms are internal jargon that must never reach buyers.
var DefaultForbiddenTerms = []string{"segment", "target monthly"}

const maxPhrasedRunes = 320

var spaceBeforePunctRE = regexp.MustCompile(`\s+([?!.,])`)

// Denylist matches forbidden vocabulary case-insensitively on word boundaries.
type Denylist struct {
	terms []string
	res   []*regexp.Regexp
}

// NewDenylist compiles the given terms; blank terms are ignored.
func NewDenylist(terms []string) *Denylist {
	d := &Denylist{}
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		d.terms = append(d.terms, term)
		d.res = append(d.res, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(term)+`s?\b`))
	}
	return d
}

// Contains returns the first forbidden term present in text.
func (d *Denylist) Contains(text string) (string, bool) {
	if d == nil {
		return "", false
	}
	for i, re := range d.res {
		if re.MatchString(text) {
			return d.terms[i], true
		}
	}
	return "", false
}

// Scrub removes forbidden terms and tidies the leftover spacing.
func (d *Denylist) Scrub(text string) string {
	if d == nil {
		return text
	}
	for _, re := range d.res {
		text = re.ReplaceAllString(text, "")
	}
	text = strings.Join(strings.Fields(text), " ")
	return spaceBeforePunctRE.ReplaceAllString(text, "$1")
}

// outputLeakPatterns flag generator replies that break character.
var outputLeakPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:as an ai|i(?:'m| am) an ai|language model|chatgpt|openai|gemini|bedrock)\b`),
	regexp.MustCompile(`(?i)\b(?:system prompt|my instructions|known info right now)\b`),
	regexp.MustCompile(`(?i)\{\{|\}\}|"ai_reply"|ai_[a-z_]+\s*:`),
}

// listingRE catches enumerations that look like an inventory list.
var listingRE = regexp.MustCompile(`(?m)^\s*(?:[-•*]|\d+[.)])\s+\S`)

// slotCues are phrases that reveal a reply is asking about a slot.
var slotCues = map[Slot]*regexp.Regexp{
	SlotVehicle:     regexp.MustCompile(`(?i)\b(?:body type|anong unit|what unit|which model|anong model|what model|sedan|suv|mpv|pickup)\b`),
	SlotPaymentMode: regexp.MustCompile(`(?i)\b(?:cash or financing|financing or cash|cash ba|financing ba|paano ang payment|payment mode)\b`),
	SlotBudget:      regexp.MustCompile(`(?i)\b(?:budget|downpayment|down payment|dp|magkano)\b`),
	SlotLocation:    regexp.MustCompile(`(?i)\b(?:located|location|saang city|saan ka|where are you)\b`),
	SlotTimeline:    regexp.MustCompile(`(?i)\b(?:kailan|when do you|when are you|timeline|gaano kabilis)\b`),
}

// ValidatePhrased decides whether generator output is safe to send for the
// given decision. It returns the tidied text, or a reason for rejecting it.
func (c *Composer) ValidatePhrased(text string, req PhraseRequest) (string, string) {
	d, state := req.Decision, req.State
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "\"'`")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "empty"
	}
	if utf8.RuneCountInString(text) > maxPhrasedRunes {
		return "", "too_long"
	}
	if term, ok := c.denylist.Contains(text); ok {
		return "", "forbidden_term:" + term
	}
	for _, re := range outputLeakPatterns {
		if re.MatchString(text) {
			return "", "leak"
		}
	}
	if listingRE.MatchString(text) {
		return "", "listing"
	}

	questions := strings.Count(text, "?")
	switch {
	case !d.Complete && questions != 1:
		return "", "question_count"
	case d.Complete && d.SoftAsk == "" && questions > 0:
		return "", "question_on_complete"
	case d.Complete && questions > 1:
		return "", "question_count"
	}

	asked := d.Next
	if d.Complete {
		asked = d.SoftAsk
	}
	for _, slot := range DefaultOrder {
		if slot == asked || state.Known(slot) {
			continue
		}
		if slotCues[slot].MatchString(text) {
			return "", "asks_other_slot:" + string(slot)
		}
	}

	normalized := Normalize(text)
	if model := c.extractor.ModelMentioned(normalized); model != "" && !mentions(model, state.Get(SlotVehicle), req.Message) {
		return "", "invented_model"
	}
	budget, hasBudget := state.Budget()
	for _, amount := range FindAmounts(normalized) {
		if amount.Value < minBudgetAmount {
			continue
		}
		if !hasBudget || amount.Value != budget {
			return "", "invented_amount"
		}
	}
	return text, ""
}

func mentions(token string, sources ...string) bool {
	for _, src := range sources {
		if strings.Contains(Normalize(src), token) {
			return true
		}
	}
	return false
}

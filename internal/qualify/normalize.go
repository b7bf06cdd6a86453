package qualify

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var templateTokenRE = regexp.MustCompile(`\{\{[^{}]*\}\}`)

// placeholderTokens are literal values that callers send for "not set".
var placeholderTokens = map[string]struct{}{
	"n/a":       {},
	"none":      {},
	"null":      {},
	"undefined": {},
	"-":         {},
}

// Clean canonicalizes text for echoing back: NFKC, template tokens removed,
// whitespace trimmed and collapsed. Placeholder-only values become "".
// Case is preserved.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFKC.String(text)
	text = templateTokenRE.ReplaceAllString(text, " ")
	text = strings.Join(strings.Fields(text), " ")
	if isPlaceholder(text) {
		return ""
	}
	return text
}

// Normalize returns the case-folded form of Clean used for pattern matching.
func Normalize(text string) string {
	cleaned := Clean(text)
	if cleaned == "" {
		return ""
	}
	// Casers are stateful, so one is built per call.
	return cases.Fold().String(cleaned)
}

func isPlaceholder(text string) bool {
	_, ok := placeholderTokens[strings.ToLower(text)]
	return ok
}

// Sanitize stringifies a loosely typed slot value and cleans it.
// Unsupported types are treated as empty.
func Sanitize(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return Clean(val)
	case *string:
		if val == nil {
			return ""
		}
		return Clean(*val)
	case json.Number:
		return Clean(val.String())
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return formatFloat(float64(val))
	case float64:
		return formatFloat(val)
	case fmt.Stringer:
		return Clean(val.String())
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SanitizeMemory builds a SlotState from caller-supplied memory. Known values
// are canonicalized where a canonical form exists (payment mode, budget);
// anything else is kept as cleaned text.
func SanitizeMemory(raw map[Slot]any) SlotState {
	state := make(SlotState, len(raw))
	for slot, v := range raw {
		value := Sanitize(v)
		if value == "" {
			continue
		}
		switch slot {
		case SlotPaymentMode:
			if mode := ExtractPaymentMode(Normalize(value)); mode.Found() {
				value = mode.Value
			}
		case SlotBudget:
			if amount, ok := ParseAmount(Normalize(value)); ok {
				value = strconv.FormatInt(amount, 10)
			}
		}
		state[slot] = value
	}
	return state
}

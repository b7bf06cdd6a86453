package qualify

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// amountRE finds candidate amounts: optional currency marker, a digit run
// with optional ,/. separators, and an optional magnitude suffix. Boundaries
// are checked by hand because RE2 has no lookbehind.
var amountRE = regexp.MustCompile(`(?i)(₱\s?|php\s?|p\s?)?(\d[\d.,]*\d|\d)(\s?(?:thousand|thou|million|mil|k|m))?`)

var (
	centsRE        = regexp.MustCompile(`[.,]\d{1,2}$`)
	decimalCommaRE = regexp.MustCompile(`^\d+,\d{1,2}$`)
)

const (
	maxAmountDigits = 9
	// minBudgetAmount drops bare numbers like "2 weeks" or "30 days" that
	// cannot be a peso budget or downpayment.
	minBudgetAmount = 1000

	// Bare four-digit numbers in this range are model years ("vios 2020").
	minModelYear = 1950
	maxModelYear = 2099
)

// Amount is one parsed money mention.
type Amount struct {
	Value int64
	Raw   string
}

// ParseAmount returns the first standalone amount in normalized text.
// "₱600,000" -> 600000, "600k" -> 600000, "1.2m" -> 1200000.
func ParseAmount(text string) (int64, bool) {
	amounts := FindAmounts(text)
	if len(amounts) == 0 {
		return 0, false
	}
	return amounts[0].Value, true
}

// FindAmounts returns every standalone amount in text, in order.
func FindAmounts(text string) []Amount {
	if text == "" {
		return nil
	}
	var out []Amount
	for _, m := range amountRE.FindAllStringSubmatchIndex(text, -1) {
		if amount, ok := amountFromMatch(text, m); ok {
			out = append(out, amount)
		}
	}
	return out
}

func amountFromMatch(text string, m []int) (Amount, bool) {
	digitsStart, digitsEnd := m[4], m[5]
	start := digitsStart
	// A marker glued to a word ("top 600k") is not a marker.
	hasMarker := m[2] >= 0 && !wordRuneBefore(text, m[2])
	if hasMarker {
		start = m[2]
	}
	if wordRuneBefore(text, start) {
		return Amount{}, false
	}

	token := text[digitsStart:digitsEnd]
	suffix := ""
	end := digitsEnd
	if m[6] >= 0 && !wordRuneAt(text, m[7]) {
		suffix = strings.ToLower(strings.TrimSpace(text[m[6]:m[7]]))
		end = m[7]
	}
	if suffix == "" && wordRuneAt(text, digitsEnd) {
		return Amount{}, false
	}

	digits := countDigits(token)
	if digits > maxAmountDigits {
		return Amount{}, false
	}
	if suffix == "" && digits < 2 {
		return Amount{}, false
	}
	if !hasMarker && suffix == "" && isModelYear(token) {
		return Amount{}, false
	}

	value, ok := parseNumber(token, suffix != "")
	if !ok {
		return Amount{}, false
	}
	value *= multiplier(suffix)
	if value <= 0 || value > math.MaxInt64/2 {
		return Amount{}, false
	}
	return Amount{Value: int64(math.Round(value)), Raw: text[start:end]}, true
}

// parseNumber strips thousands separators. With a magnitude suffix a single
// separator is read as a decimal point ("1.2m", "1,5m"); without one,
// trailing one- or two-digit cents are dropped ("12.50" -> 12).
func parseNumber(token string, hasSuffix bool) (float64, bool) {
	if hasSuffix {
		if decimalCommaRE.MatchString(token) {
			token = strings.Replace(token, ",", ".", 1)
		}
		cleaned := strings.ReplaceAll(token, ",", "")
		if strings.Count(cleaned, ".") > 1 {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		return f, err == nil
	}
	if loc := centsRE.FindStringIndex(token); loc != nil {
		token = token[:loc[0]]
	}
	cleaned := strings.NewReplacer(",", "", ".", "").Replace(token)
	n, err := strconv.ParseInt(cleaned, 10, 64)
	return float64(n), err == nil
}

// isModelYear reports whether token is a plain four-digit year.
func isModelYear(token string) bool {
	if len(token) != 4 || countDigits(token) != 4 {
		return false
	}
	year, err := strconv.Atoi(token)
	return err == nil && year >= minModelYear && year <= maxModelYear
}

func multiplier(suffix string) float64 {
	switch suffix {
	case "k", "thousand", "thou":
		return 1_000
	case "m", "mil", "million":
		return 1_000_000
	default:
		return 1
	}
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func wordRuneBefore(text string, idx int) bool {
	if idx <= 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:idx])
	return isWordRune(r)
}

func wordRuneAt(text string, idx int) bool {
	if idx >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[idx:])
	return isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

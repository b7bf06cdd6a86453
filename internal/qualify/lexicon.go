package qualify

import (
	"regexp"
	"sort"
	"strings"
)

// Body classes the vehicle slot resolves to.
const (
	BodySedan     = "sedan"
	BodyHatchback = "hatchback"
	BodyCrossover = "crossover"
	BodyMPV       = "mpv"
	BodySUV       = "suv"
	BodyVan       = "van"
	BodyPickup    = "pickup"
	Body5Seater   = "5-seater"
	Body7Seater   = "7-seater"
)

// defaultModels maps model names sold locally to their body class.
// Keys are matched case-folded on word boundaries, longest first.
var defaultModels = map[string]string{
	"vios":          BodySedan,
	"honda city":    BodySedan,
	"almera":        BodySedan,
	"mirage g4":     BodySedan,
	"civic":         BodySedan,
	"accent":        BodySedan,
	"corolla altis": BodySedan,
	"wigo":          BodyHatchback,
	"brio":          BodyHatchback,
	"mirage":        BodyHatchback,
	"swift":         BodyHatchback,
	"jazz":          BodyHatchback,
	"picanto":       BodyHatchback,
	"raize":         BodyCrossover,
	"yaris cross":   BodyCrossover,
	"corolla cross": BodyCrossover,
	"hr-v":          BodyCrossover,
	"hrv":           BodyCrossover,
	"territory":     BodyCrossover,
	"coolray":       BodyCrossover,
	"kona":          BodyCrossover,
	"innova":        BodyMPV,
	"avanza":        BodyMPV,
	"xpander":       BodyMPV,
	"ertiga":        BodyMPV,
	"veloz":         BodyMPV,
	"stargazer":     BodyMPV,
	"br-v":          BodyMPV,
	"fortuner":      BodySUV,
	"montero":       BodySUV,
	"everest":       BodySUV,
	"terra":         BodySUV,
	"mu-x":          BodySUV,
	"cr-v":          BodySUV,
	"crv":           BodySUV,
	"hiace":         BodyVan,
	"urvan":         BodyVan,
	"l300":          BodyVan,
	"starex":        BodyVan,
	"hilux":         BodyPickup,
	"navara":        BodyPickup,
	"ranger":        BodyPickup,
	"strada":        BodyPickup,
	"d-max":         BodyPickup,
}

// bodyKeywords are tried in order; seat-count phrasing beats a bare body word.
var bodyKeywords = []struct {
	re   *regexp.Regexp
	body string
}{
	{regexp.MustCompile(`\b(?:7|seven)[\s-]?seat(?:er|s)?\+?`), Body7Seater},
	{regexp.MustCompile(`\b(?:5|five)[\s-]?seat(?:er|s)?\b`), Body5Seater},
	{regexp.MustCompile(`\bpick[\s-]?ups?\b`), BodyPickup},
	{regexp.MustCompile(`\bvans?\b`), BodyVan},
	{regexp.MustCompile(`\bsuvs?\b`), BodySUV},
	{regexp.MustCompile(`\bmpvs?\b`), BodyMPV},
	{regexp.MustCompile(`\bcrossovers?\b`), BodyCrossover},
	{regexp.MustCompile(`\bhatch(?:back)?s?\b`), BodyHatchback},
	{regexp.MustCompile(`\bsedans?\b`), BodySedan},
}

// defaultCities maps location mentions to a canonical city. Only consulted
// when location inference is enabled.
var defaultCities = map[string]string{
	"quezon city":    "Quezon City",
	"qc":             "Quezon City",
	"manila":         "Manila",
	"makati":         "Makati",
	"pasig":          "Pasig",
	"taguig":         "Taguig",
	"bgc":            "Taguig",
	"mandaluyong":    "Mandaluyong",
	"marikina":       "Marikina",
	"paranaque":      "Parañaque",
	"parañaque":      "Parañaque",
	"las pinas":      "Las Piñas",
	"las piñas":      "Las Piñas",
	"muntinlupa":     "Muntinlupa",
	"alabang":        "Muntinlupa",
	"caloocan":       "Caloocan",
	"valenzuela":     "Valenzuela",
	"pasay":          "Pasay",
	"san juan":       "San Juan",
	"cavite":         "Cavite",
	"laguna":         "Laguna",
	"bulacan":        "Bulacan",
	"rizal":          "Rizal",
	"pampanga":       "Pampanga",
	"batangas":       "Batangas",
	"cebu":           "Cebu",
	"davao":          "Davao",
	"iloilo":         "Iloilo",
	"bacolod":        "Bacolod",
	"cagayan de oro": "Cagayan de Oro",
}

type phrase struct {
	re    *regexp.Regexp
	key   string
	value string
}

// compilePhrases builds word-boundary matchers from an alias map, longest
// alias first so "yaris cross" beats "yaris" and "quezon city" beats "qc".
func compilePhrases(aliases map[string]string) []phrase {
	out := make([]phrase, 0, len(aliases))
	for alias, value := range aliases {
		key := Normalize(alias)
		if key == "" || strings.TrimSpace(value) == "" {
			continue
		}
		out = append(out, phrase{
			re:    regexp.MustCompile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(key) + `(?:$|[^\p{L}\p{N}])`),
			key:   key,
			value: value,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].key) != len(out[j].key) {
			return len(out[i].key) > len(out[j].key)
		}
		return out[i].key < out[j].key
	})
	return out
}

func matchPhrase(phrases []phrase, text string) (phrase, bool) {
	if text == "" {
		return phrase{}, false
	}
	for _, p := range phrases {
		if p.re.MatchString(text) {
			return p, true
		}
	}
	return phrase{}, false
}

func mergeAliases(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

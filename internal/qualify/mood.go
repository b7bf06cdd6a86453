package qualify

import (
	"regexp"
	"strings"
)

// Mood is an advisory tone bucket. It only shapes phrasing.
type Mood string

const (
	MoodNeutral    Mood = "neutral"
	MoodPositive   Mood = "positive"
	MoodConfused   Mood = "confused"
	MoodFrustrated Mood = "frustrated"
)

type moodBucket struct {
	mood   Mood
	words  *regexp.Regexp
	emojis []string
}

// moodBuckets are checked in priority order.
var moodBuckets = []moodBucket{
	{
		mood:   MoodFrustrated,
		words:  regexp.MustCompile(`\b(?:ang tagal|tagal naman|antagal|nakakainis|kainis|inis|bwisit|badtrip|galit|annoying|annoyed|frustrated|frustrating|ugh|walang kwenta|scam|ayoko na)\b`),
		emojis: []string{"😡", "😠", "🤬", "😤", "💢"},
	},
	{
		mood:   MoodConfused,
		words:  regexp.MustCompile(`\b(?:confused|nalilito|lito|di ko gets|hindi ko gets|d ko gets|ano daw|huh|what do you mean|paano|pano|di ko alam|hindi ko alam|not sure)\b|\?\?`),
		emojis: []string{"🤔", "😕", "😵", "🤷"},
	},
	{
		mood:   MoodPositive,
		words:  regexp.MustCompile(`\b(?:salamat|thanks|thank you|ty|nice|great|galing|ayos|ang ganda|excited|wow|yay|sige|perfect|astig)\b|!{2,}`),
		emojis: []string{"😊", "😍", "👍", "🙂", "😁", "🥰", "🙏", "❤"},
	},
}

// ClassifyMood buckets the tone of a message: frustrated beats confused
// beats positive, and anything else is neutral.
func ClassifyMood(text string) Mood {
	normalized := Normalize(text)
	if normalized == "" {
		return MoodNeutral
	}
	for _, b := range moodBuckets {
		if b.words.MatchString(normalized) {
			return b.mood
		}
		for _, e := range b.emojis {
			if strings.Contains(normalized, e) {
				return b.mood
			}
		}
	}
	return MoodNeutral
}

// Tone is the phrasing hint passed to the generator for a mood.
func (m Mood) Tone() string {
	switch m {
	case MoodFrustrated:
		return "calm and reassuring, apologize briefly"
	case MoodConfused:
		return "patient and clear, explain simply"
	case MoodPositive:
		return "upbeat and warm"
	default:
		return "friendly and casual"
	}
}

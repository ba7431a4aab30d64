package mood

import "strings"

// captionKeywords maps caption words to moods, checked in order.
var captionKeywords = []struct {
	label Label
	words []string
}{
	{Happy, []string{"happy", "joy", "celebration", "party", "fun", "smiling", "sunny"}},
	{Romantic, []string{"romantic", "couple", "wedding", "kiss", "candle", "sunset"}},
	{Calm, []string{"calm", "quiet", "serene", "relaxing", "still"}},
	{Sad, []string{"sad", "lonely", "crying", "gray", "grey", "rain"}},
	{Melancholic, []string{"dark", "moody", "melancholy", "fog", "night"}},
	{Energetic, []string{"energy", "action", "sports", "running", "dancing", "concert", "crowd", "gym"}},
	{Nature, []string{"nature", "outdoor", "forest", "mountain", "tree", "field", "garden"}},
	{Peaceful, []string{"peaceful", "lake", "ocean", "beach", "meditation", "yoga"}},
}

// FromCaption guesses a mood from words in an image caption.
func FromCaption(caption string) (Label, bool) {
	words := strings.FieldsFunc(strings.ToLower(caption), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	present := make(map[string]bool, len(words))
	for _, w := range words {
		present[w] = true
	}

	for _, entry := range captionKeywords {
		for _, w := range entry.words {
			if present[w] {
				return entry.label, true
			}
		}
	}
	return Neutral, false
}

package preferences

import "fmt"

// personalityKey indexes the personality table.
type personalityKey struct {
	genre  string
	energy string // "high_energy" or "medium_energy"
	mood   string // "positive" or "neutral"
}

var personalities = map[personalityKey]string{
	{"pop", "high_energy", "positive"}:          "Pop Enthusiast - You love catchy, upbeat hits that get you moving!",
	{"rock", "high_energy", "positive"}:         "Rock Warrior - You're drawn to powerful guitars and driving beats!",
	{"hip hop", "high_energy", "positive"}:      "Hip-Hop Head - You appreciate rhythm, flow, and lyrical creativity!",
	{"electronic", "high_energy", "positive"}:   "Electronic Explorer - You love synthesized sounds and danceable beats!",
	{"indie", "medium_energy", "positive"}:      "Indie Soul - You appreciate unique, artistic, and authentic music!",
	{"r&b", "medium_energy", "positive"}:        "R&B Lover - You're drawn to smooth vocals and soulful melodies!",
	{"country", "medium_energy", "positive"}:    "Country Heart - You connect with storytelling and authentic emotions!",
	{"alternative", "medium_energy", "neutral"}: "Alternative Spirit - You enjoy music that breaks conventional boundaries!",
}

// Personality picks a label from the dominant genre and the energy/valence preferences.
//
// Energy above 0.6 counts as high energy, valence above 0.6 as positive.
// Missing preferences default to neutral (0.5).
func Personality(p *Profile) string {
	top := "eclectic"
	if genres := p.TopGenres(1); len(genres) > 0 {
		top = genres[0]
	}

	energy, ok := p.Feature(Energy)
	if !ok {
		energy = 0.5
	}
	valence, ok := p.Feature(Valence)
	if !ok {
		valence = 0.5
	}

	key := personalityKey{genre: top, energy: "medium_energy", mood: "neutral"}
	if energy > 0.6 {
		key.energy = "high_energy"
	}
	if valence > 0.6 {
		key.mood = "positive"
	}

	if label, ok := personalities[key]; ok {
		return label
	}
	return fmt.Sprintf("Eclectic Listener - You have diverse taste in %s and beyond!", top)
}

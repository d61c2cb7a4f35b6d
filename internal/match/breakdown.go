package match

import (
	"fmt"
	"math"

	"medmatch/matching-service/internal/model"
)

// Factor is one scored dimension of a match, with a human-readable
// rationale. Transient: breakdowns are recomputed on demand, never stored.
type Factor struct {
	Score     float64 `json:"score"`
	Weight    int     `json:"weight"`
	Rationale string  `json:"rationale"`
}

// Breakdown decomposes a match score into its factors and bonuses.
type Breakdown struct {
	Specialty     Factor   `json:"specialty"`
	Experience    Factor   `json:"experience"`
	Skills        Factor   `json:"skills"`
	RequiredYears Factor   `json:"requiredYears"`
	Location      Factor   `json:"location"`
	Bonus         int      `json:"bonus"`
	BonusNotes    []string `json:"bonusNotes"`
	Base          float64  `json:"base"`
	Total         int      `json:"total"`
}

// Explain returns the per-factor decomposition for one (candidate, posting)
// pair. It uses the same sub-computations as Score, so
// Explain(c, p).Total == Score(c, p) always holds.
func Explain(c model.CandidateProfile, p model.PostingSnapshot) Breakdown {
	b := Breakdown{
		Specialty:     Factor{Score: specialtyScore(c, p), Weight: WeightSpecialty},
		Experience:    Factor{Score: experienceScore(c, p), Weight: WeightExperience},
		Skills:        Factor{Score: skillsScore(c, p), Weight: WeightSkills},
		RequiredYears: Factor{Score: minYearsScore(c, p), Weight: WeightMinYears},
		Location:      Factor{Score: locationScore(c, p), Weight: WeightLocation},
	}
	b.Specialty.Rationale = specialtyRationale(c, p, b.Specialty.Score)
	b.Experience.Rationale = experienceRationale(c, p, b.Experience.Score)
	b.Skills.Rationale = skillsRationale(c, p, b.Skills.Score)
	b.RequiredYears.Rationale = minYearsRationale(c, p, b.RequiredYears.Score)
	b.Location.Rationale = locationRationale(c, p)

	b.Bonus, b.BonusNotes = bonuses(c, p)
	b.Base = b.Specialty.Score + b.Experience.Score + b.Skills.Score +
		b.RequiredYears.Score + b.Location.Score
	b.Total = clamp(int(math.Round(b.Base+float64(b.Bonus))), 0, 100)
	return b
}

func specialtyRationale(c model.CandidateProfile, p model.PostingSnapshot, score float64) string {
	switch score {
	case WeightSpecialty:
		return fmt.Sprintf("primary specialty %q matches the posting exactly", c.PrimarySpecialty)
	case 25:
		return fmt.Sprintf("a subspecialty of the candidate overlaps the posting specialty %q", p.Specialty)
	case 20:
		return fmt.Sprintf("a posting subspecialty overlaps the candidate specialty %q", c.PrimarySpecialty)
	default:
		return "no specialty overlap"
	}
}

func experienceRationale(c model.CandidateProfile, p model.PostingSnapshot, score float64) string {
	have := tierForYears(c.YearsExperience)
	want := requiredTier(p)
	if score == WeightExperience {
		return fmt.Sprintf("candidate tier %s meets required tier %s", tierName(have), tierName(want))
	}
	return fmt.Sprintf("candidate tier %s is below required tier %s", tierName(have), tierName(want))
}

func skillsRationale(c model.CandidateProfile, p model.PostingSnapshot, score float64) string {
	required := normalizeAll(p.RequiredSkills)
	if len(required) == 0 {
		return "posting lists no required skills; partial credit"
	}
	have := normalizeAll(c.Skills)
	matched := 0
	for _, req := range required {
		if matchesAnySkill(req, have) {
			matched++
		}
	}
	return fmt.Sprintf("%d of %d required skills covered", matched, len(required))
}

func minYearsRationale(c model.CandidateProfile, p model.PostingSnapshot, score float64) string {
	if p.MinYears <= 0 {
		return "posting sets no minimum years"
	}
	if c.YearsExperience >= p.MinYears {
		return fmt.Sprintf("%d years meets the %d-year minimum", c.YearsExperience, p.MinYears)
	}
	return fmt.Sprintf("%d of %d required years", c.YearsExperience, p.MinYears)
}

func locationRationale(c model.CandidateProfile, p model.PostingSnapshot) string {
	switch p.Location {
	case model.LocationRemote, model.LocationHybrid:
		return fmt.Sprintf("%s posting vs %s preference", p.Location, c.RemotePreference)
	case model.LocationOnsite:
		return "onsite posting; approximate geographic fit"
	default:
		return "posting location unknown"
	}
}

var tierLabels = [...]string{"resident", "junior", "mid-level", "senior", "attending"}

func tierName(t int) string {
	if t < 0 || t >= len(tierLabels) {
		return "unknown"
	}
	return tierLabels[t]
}

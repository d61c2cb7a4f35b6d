// Package match computes the 0–100 compatibility score between a candidate
// and a posting, plus a per-factor breakdown used for transparency.
//
// Scoring is pure and deterministic: no I/O, no clock, no randomness. The
// same snapshots always produce the same score, so a score persisted at
// submission time can be reproduced later from the same inputs.
package match

import (
	"fmt"
	"math"
	"strings"

	"github.com/agnivade/levenshtein"

	"medmatch/matching-service/internal/model"
)

// Base factor weights. They sum to 100 before bonuses.
const (
	WeightSpecialty  = 40
	WeightExperience = 25
	WeightSkills     = 20
	WeightMinYears   = 10
	WeightLocation   = 5
)

// Bonus points applied after the base sum.
const (
	BonusVerified       = 5
	BonusRatingHigh     = 3 // rating >= 4.5
	BonusRatingGood     = 2 // rating >= 4.0
	BonusCategory       = 5
	BonusBudgetInRange  = 3
	ratingHighThreshold = 4.5
	ratingGoodThreshold = 4.0
)

// maxSkillEditDistance is the Levenshtein threshold under which two skill
// strings are considered the same skill ("Echocardiography" vs
// "Echocardiograph").
const maxSkillEditDistance = 2

// Score returns the final match score for one (candidate, posting) pair,
// rounded and clamped to [0,100].
func Score(c model.CandidateProfile, p model.PostingSnapshot) int {
	base := specialtyScore(c, p) +
		experienceScore(c, p) +
		skillsScore(c, p) +
		minYearsScore(c, p) +
		locationScore(c, p)
	bonus, _ := bonuses(c, p)
	return clamp(int(math.Round(base+float64(bonus))), 0, 100)
}

// ── Specialty alignment (weight 40) ───────────────────────────────────────

// specialtyScore rewards exact primary-specialty matches first, then
// subspecialty overlap in either direction. Missing specialties score 0.
func specialtyScore(c model.CandidateProfile, p model.PostingSnapshot) float64 {
	cs := normalize(c.PrimarySpecialty)
	ps := normalize(p.Specialty)
	if cs == "" || ps == "" {
		return 0
	}
	if cs == ps {
		return WeightSpecialty
	}
	if anyContains(c.Subspecialties, ps) {
		return 25
	}
	if anyContains(p.Subspecialties, cs) {
		return 20
	}
	return 0
}

// anyContains reports whether any normalized entry of set matches s by
// substring in either direction.
func anyContains(set []string, s string) bool {
	for _, raw := range set {
		sub := normalize(raw)
		if sub == "" {
			continue
		}
		if strings.Contains(sub, s) || strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ── Experience level (weight 25) ──────────────────────────────────────────

// Experience tiers, ordinal. Candidate years map onto the same scale as the
// posting's required level.
const (
	tierResident = iota
	tierJunior
	tierMidLevel
	tierSenior
	tierAttending
)

// tierForYears maps years of experience to an ordinal tier.
func tierForYears(years int) int {
	switch {
	case years < 2:
		return tierResident
	case years < 5:
		return tierJunior
	case years < 10:
		return tierMidLevel
	case years < 20:
		return tierSenior
	default:
		return tierAttending
	}
}

var tierNames = map[string]int{
	"resident":  tierResident,
	"junior":    tierJunior,
	"mid-level": tierMidLevel,
	"mid_level": tierMidLevel,
	"mid":       tierMidLevel,
	"senior":    tierSenior,
	"attending": tierAttending,
}

// requiredTier resolves the posting's required tier. When the posting names
// no (or an unknown) level, the tier implied by its minimum-years
// requirement is used instead, so a posting that only says "3+ years" still
// gets a meaningful experience comparison.
func requiredTier(p model.PostingSnapshot) int {
	if t, ok := tierNames[normalize(p.RequiredLevel)]; ok {
		return t
	}
	return tierForYears(p.MinYears)
}

// experienceScore compares the candidate's tier against the required tier:
// meeting or exceeding it earns full weight, each missing tier cuts deep.
func experienceScore(c model.CandidateProfile, p model.PostingSnapshot) float64 {
	gap := requiredTier(p) - tierForYears(c.YearsExperience)
	switch {
	case gap <= 0:
		return WeightExperience
	case gap == 1:
		return 15
	case gap == 2:
		return 5
	default:
		return 0
	}
}

// ── Skills overlap (weight 20) ────────────────────────────────────────────

// skillsScore awards weight proportionally to how many required skills the
// candidate covers. A posting with no required skills gets flat partial
// credit rather than a free full factor.
func skillsScore(c model.CandidateProfile, p model.PostingSnapshot) float64 {
	required := normalizeAll(p.RequiredSkills)
	if len(required) == 0 {
		return 10
	}
	have := normalizeAll(c.Skills)
	if len(have) == 0 {
		return 0
	}
	matched := 0
	for _, req := range required {
		if matchesAnySkill(req, have) {
			matched++
		}
	}
	return math.Round(WeightSkills * float64(matched) / float64(len(required)))
}

// matchesAnySkill reports whether a required skill is covered by any
// candidate skill, by substring in either direction or by a small edit
// distance (catches spelling variants and morphological endings).
func matchesAnySkill(required string, have []string) bool {
	for _, skill := range have {
		if strings.Contains(skill, required) || strings.Contains(required, skill) {
			return true
		}
		if levenshtein.ComputeDistance(required, skill) <= maxSkillEditDistance {
			return true
		}
	}
	return false
}

// ── Minimum-years requirement (weight 10) ─────────────────────────────────

// minYearsScore gives full weight when the candidate meets the posting's
// minimum, otherwise a proportional fraction. Never negative, never above
// the weight.
func minYearsScore(c model.CandidateProfile, p model.PostingSnapshot) float64 {
	if p.MinYears <= 0 || c.YearsExperience >= p.MinYears {
		return WeightMinYears
	}
	if c.YearsExperience <= 0 {
		return 0
	}
	return WeightMinYears * float64(c.YearsExperience) / float64(p.MinYears)
}

// ── Location fit (weight 5) ───────────────────────────────────────────────

// locationScore approximates geographic fit from the posting's location
// type and the candidate's remote preference. Full geographic matching is
// out of scope, so onsite postings get a fixed partial score.
func locationScore(c model.CandidateProfile, p model.PostingSnapshot) float64 {
	switch p.Location {
	case model.LocationRemote:
		if c.RemotePreference == model.RemoteOnly || c.RemotePreference == model.Flexible {
			return WeightLocation
		}
		return 2
	case model.LocationHybrid:
		if c.RemotePreference != model.OnsiteOnly {
			return 4
		}
		return 2
	case model.LocationOnsite:
		return 3
	default:
		return 0
	}
}

// ── Bonuses ───────────────────────────────────────────────────────────────

// bonuses returns the additive bonus total and one note per bonus earned.
func bonuses(c model.CandidateProfile, p model.PostingSnapshot) (int, []string) {
	total := 0
	var notes []string

	if c.Verification == model.VerificationVerified {
		total += BonusVerified
		notes = append(notes, fmt.Sprintf("verified candidate (+%d)", BonusVerified))
	}

	switch {
	case c.Rating >= ratingHighThreshold:
		total += BonusRatingHigh
		notes = append(notes, fmt.Sprintf("rating %.1f (+%d)", c.Rating, BonusRatingHigh))
	case c.Rating >= ratingGoodThreshold:
		total += BonusRatingGood
		notes = append(notes, fmt.Sprintf("rating %.1f (+%d)", c.Rating, BonusRatingGood))
	}

	if containsNormalized(c.PreferredCategories, p.Category) {
		total += BonusCategory
		notes = append(notes, fmt.Sprintf("preferred category %q (+%d)", p.Category, BonusCategory))
	}

	if budgetInRange(p.BudgetAmount, c.PreferredBudgetMin, c.PreferredBudgetMax) {
		total += BonusBudgetInRange
		notes = append(notes, fmt.Sprintf("budget %.0f within preferred range (+%d)", p.BudgetAmount, BonusBudgetInRange))
	}

	return total, notes
}

// budgetInRange checks amount against the candidate's preferred range.
// A missing bound is unconstrained on that side. A posting without a budget
// amount never earns the bonus.
func budgetInRange(amount float64, min, max *float64) bool {
	if amount <= 0 {
		return false
	}
	if min != nil && amount < *min {
		return false
	}
	if max != nil && amount > *max {
		return false
	}
	return true
}

// ── Helpers ───────────────────────────────────────────────────────────────

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func containsNormalized(set []string, s string) bool {
	n := normalize(s)
	if n == "" {
		return false
	}
	for _, raw := range set {
		if normalize(raw) == n {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package intake converts free-text health intake into a structured
// record. Matching is plain case-insensitive substring search against
// the catalog phrase table; there is no semantic parsing.
package intake

import (
	"strings"

	"github.com/arbilina/lumi-agent-engine/internal/catalog"
	"github.com/arbilina/lumi-agent-engine/internal/domain"
)

// Normalizer derives structured intake records from raw text
type Normalizer struct {
	cat *catalog.Catalog
}

// New creates a Normalizer backed by the given catalog tables
func New(cat *catalog.Catalog) *Normalizer {
	return &Normalizer{cat: cat}
}

// Normalize parses a free-text intake blob plus a comma-separated goals
// string. It is pure: identical input always yields an identical record,
// and every field resolves to a stated default when no signal matches.
// Empty text is not an error here; callers validate before invoking.
func (n *Normalizer) Normalize(text, goalsText string) domain.IntakeRecord {
	lower := strings.ToLower(text)

	rec := domain.IntakeRecord{
		Symptoms:       []string{},
		Medications:    []string{},
		Conditions:     []string{},
		MenopauseStage: domain.StagePeri,
		Lifestyle: domain.Lifestyle{
			SleepQuality: domain.SleepFair,
			StressLevel:  5,
		},
		Goals: splitGoals(goalsText),
	}

	// Symptom matching: each rule fires at most once.
	for _, rule := range n.cat.SymptomRules {
		for _, phrase := range rule.Phrases {
			if strings.Contains(lower, phrase) {
				rec.Symptoms = append(rec.Symptoms, rule.Symptom)
				break
			}
		}
	}

	// Stage inference: post wins when both phrases co-occur.
	if containsAny(lower, "post-menopause", "post menopause") {
		rec.MenopauseStage = domain.StagePost
	} else if containsAny(lower, "pre-menopause", "pre menopause") {
		rec.MenopauseStage = domain.StagePre
	}

	if containsAny(lower, "poor sleep", "bad sleep") {
		rec.Lifestyle.SleepQuality = domain.SleepPoor
	} else if containsAny(lower, "good sleep", "sleep ok") {
		rec.Lifestyle.SleepQuality = domain.SleepGood
	}

	if containsAny(lower, "high stress", "very stressed") {
		rec.Lifestyle.StressLevel = 9
	} else if containsAny(lower, "medium stress", "bit stressed") {
		rec.Lifestyle.StressLevel = 6
	}

	return rec
}

func containsAny(s string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// splitGoals splits a comma-separated goals string, trimming whitespace
// and dropping empty segments while preserving order
func splitGoals(goalsText string) []string {
	goals := []string{}
	for _, g := range strings.Split(goalsText, ",") {
		if g = strings.TrimSpace(g); g != "" {
			goals = append(goals, g)
		}
	}
	return goals
}

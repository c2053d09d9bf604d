package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbilina/lumi-agent-engine/internal/catalog"
	"github.com/arbilina/lumi-agent-engine/internal/domain"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	return New(cat)
}

func TestNormalizeDefaults(t *testing.T) {
	n := newTestNormalizer(t)

	rec := n.Normalize("nothing recognizable in here at all", "")

	assert.Empty(t, rec.Symptoms)
	assert.Equal(t, domain.StagePeri, rec.MenopauseStage)
	assert.Equal(t, domain.SleepFair, rec.Lifestyle.SleepQuality)
	assert.Equal(t, 5, rec.Lifestyle.StressLevel)
	assert.Empty(t, rec.Goals)
}

func TestNormalizeIdempotent(t *testing.T) {
	n := newTestNormalizer(t)

	text := "I have bad sleep and hot flashes, medium stress"
	first := n.Normalize(text, "sleep,energy")
	second := n.Normalize(text, "sleep,energy")

	require.Equal(t, first, second)
}

func TestNormalizeSymptoms(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name     string
		text     string
		symptoms []string
	}{
		{
			name:     "single phrase",
			text:     "lots of brain fog lately",
			symptoms: []string{"Brain Fog"},
		},
		{
			name:     "alternate phrase same label",
			text:     "terrible night sweats",
			symptoms: []string{"Hot Flashes"},
		},
		{
			name:     "no duplicate when both phrases match",
			text:     "so much stress and anxiety",
			symptoms: []string{"Anxiety"},
		},
		{
			name:     "multiple clusters accumulate",
			text:     "bloating, fatigue and dry skin",
			symptoms: []string{"Bloating", "Fatigue", "Dry Skin"},
		},
		{
			name:     "case insensitive",
			text:     "HAIR LOSS is getting worse",
			symptoms: []string{"Hair Loss"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := n.Normalize(tt.text, "")
			assert.ElementsMatch(t, tt.symptoms, rec.Symptoms)
		})
	}
}

func TestNormalizeStage(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		text  string
		stage domain.MenopauseStage
	}{
		{"I am post-menopause", domain.StagePost},
		{"I am post menopause", domain.StagePost},
		{"I am pre-menopause", domain.StagePre},
		{"I am pre menopause", domain.StagePre},
		{"no stage mentioned", domain.StagePeri},
		// Post wins when both phrases co-occur.
		{"was pre-menopause, now post-menopause", domain.StagePost},
	}

	for _, tt := range tests {
		rec := n.Normalize(tt.text, "")
		assert.Equal(t, tt.stage, rec.MenopauseStage, "text: %q", tt.text)
	}
}

func TestNormalizeLifestyle(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		text   string
		sleep  domain.SleepQuality
		stress int
	}{
		{"poor sleep every night", domain.SleepPoor, 5},
		{"I get bad sleep", domain.SleepPoor, 5},
		{"good sleep mostly", domain.SleepGood, 5},
		{"my sleep ok I guess", domain.SleepGood, 5},
		{"high stress at work", domain.SleepFair, 9},
		{"feeling very stressed", domain.SleepFair, 9},
		{"medium stress overall", domain.SleepFair, 6},
		{"a bit stressed sometimes", domain.SleepFair, 6},
		{"nothing to report", domain.SleepFair, 5},
	}

	for _, tt := range tests {
		rec := n.Normalize(tt.text, "")
		assert.Equal(t, tt.sleep, rec.Lifestyle.SleepQuality, "text: %q", tt.text)
		assert.Equal(t, tt.stress, rec.Lifestyle.StressLevel, "text: %q", tt.text)
	}
}

func TestNormalizeGoals(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		goalsText string
		goals     []string
	}{
		{"sleep,energy", []string{"sleep", "energy"}},
		{"  sleep , energy  ,", []string{"sleep", "energy"}},
		{",,,", []string{}},
		{"", []string{}},
		{"energy, sleep", []string{"energy", "sleep"}}, // order preserved
	}

	for _, tt := range tests {
		rec := n.Normalize("some text", tt.goalsText)
		assert.Equal(t, tt.goals, rec.Goals, "goals: %q", tt.goalsText)
	}
}

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cat.SymptomRules)
	assert.NotEmpty(t, cat.Products)

	// Every rule maps at least one phrase to a label.
	for _, r := range cat.SymptomRules {
		assert.NotEmpty(t, r.Phrases)
		assert.NotEmpty(t, r.Symptom)
	}
}

func TestLookup(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	p, ok := cat.Lookup("Omega-3")
	require.True(t, ok)
	assert.NotEmpty(t, p.Product)
	assert.NotEmpty(t, p.Link)

	_, ok = cat.Lookup("Unicorn Dust")
	assert.False(t, ok)
}

func TestParseRejectsIncompleteTables(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty document", ""},
		{"rule without symptom", "symptom_rules:\n  - phrases: [\"x\"]\n"},
		{"rule without phrases", "symptom_rules:\n  - symptom: X\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

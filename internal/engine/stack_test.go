package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arbilina/lumi-agent-engine/internal/domain"
)

func TestStackAddDedup(t *testing.T) {
	s := NewStack()

	assert.True(t, s.Add("L-Theanine", Item{Dose: "200mg", Cluster: domain.ClusterStress}))
	assert.False(t, s.Add("L-Theanine", Item{Dose: "400mg", Cluster: domain.ClusterSleep}))
	assert.Equal(t, 1, s.Len())

	// The first insert wins entirely.
	var got Item
	s.Each(func(name string, item Item) { got = item })
	assert.Equal(t, "200mg", got.Dose)
	assert.Equal(t, domain.ClusterStress, got.Cluster)
}

func TestStackInsertionOrder(t *testing.T) {
	s := NewStack()
	s.Add("Omega-3", Item{})
	s.Add("Magnesium Glycinate", Item{})
	s.Add("B-Complex", Item{})

	var order []string
	s.Each(func(name string, item Item) {
		order = append(order, name)
	})

	assert.Equal(t, []string{"Omega-3", "Magnesium Glycinate", "B-Complex"}, order)
}

func TestStackMutate(t *testing.T) {
	s := NewStack()
	s.Add("Magnesium Glycinate", Item{Rationale: "base.", Dose: "300mg"})

	ok := s.Mutate("Magnesium Glycinate", func(it *Item) {
		it.Dose = "400mg"
		it.Rationale += " escalated."
	})
	assert.True(t, ok)

	var got Item
	s.Each(func(name string, item Item) { got = item })
	assert.Equal(t, "400mg", got.Dose)
	assert.Equal(t, "base. escalated.", got.Rationale)

	assert.False(t, s.Mutate("Creatine", func(it *Item) { t.Fatal("must not be called") }))
}

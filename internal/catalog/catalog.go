// Package catalog holds the fixed lookup tables the intake normalizer
// and recommendation engine are driven by: the phrase-to-symptom table
// and the brand/product mapping. Tables are embedded at build time and
// parsed once; a loaded Catalog is immutable.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var raw []byte

// SymptomRule maps a set of trigger phrases to a display symptom label
type SymptomRule struct {
	Phrases []string `yaml:"phrases"`
	Symptom string   `yaml:"symptom"`
}

// Product is a concrete purchasable suggestion for a supplement
type Product struct {
	Product string `yaml:"product"`
	Link    string `yaml:"link"`
}

// Catalog is the full set of rule tables
type Catalog struct {
	SymptomRules []SymptomRule      `yaml:"symptom_rules"`
	Products     map[string]Product `yaml:"products"`
}

// Load parses the embedded catalog tables
func Load() (*Catalog, error) {
	return parse(raw)
}

func parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if len(c.SymptomRules) == 0 {
		return nil, fmt.Errorf("catalog has no symptom rules")
	}
	for i, r := range c.SymptomRules {
		if r.Symptom == "" || len(r.Phrases) == 0 {
			return nil, fmt.Errorf("catalog symptom rule %d is incomplete", i)
		}
	}

	return &c, nil
}

// Lookup returns the product suggestion for a supplement name
func (c *Catalog) Lookup(supplement string) (Product, bool) {
	p, ok := c.Products[supplement]
	return p, ok
}

package chart

import (
	"embed"
	"encoding/json"
	"fmt"
)

// Dignity classifies a planet's strength by the sign it occupies.
type Dignity string

const (
	Exalted     Dignity = "exalted"
	Debilitated Dignity = "debilitated"
	OwnSign     Dignity = "own_sign"
	Neutral     Dignity = "neutral"
)

type dignityRule struct {
	Planet    string `json:"planet"`
	ExaltSign int    `json:"exaltSign"`
	DebilSign int    `json:"debilSign"`
	OwnSigns  []int  `json:"ownSigns"`
}

//go:embed dignity_rules.json
var dignityRulesFS embed.FS

// DignityEngine evaluates planetary dignity against a fixed rule table,
// loaded once from the embedded default and reused for every chart.
type DignityEngine struct {
	rules map[string]dignityRule
}

func NewDignityEngine() (*DignityEngine, error) {
	data, err := dignityRulesFS.ReadFile("dignity_rules.json")
	if err != nil {
		return nil, fmt.Errorf("chart: read dignity rules: %w", err)
	}
	return newDignityEngineFromJSON(data)
}

func newDignityEngineFromJSON(data []byte) (*DignityEngine, error) {
	var raw []dignityRule
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("chart: parse dignity rules: %w", err)
	}
	rules := make(map[string]dignityRule, len(raw))
	for _, r := range raw {
		rules[r.Planet] = r
	}
	return &DignityEngine{rules: rules}, nil
}

// Evaluate returns the dignity of planet when placed in signIndex
// (0=Aries .. 11=Pisces). Unknown planets (e.g. the lunar nodes) are
// always Neutral; dignity is not defined for them.
func (e *DignityEngine) Evaluate(planet string, signIndex int) Dignity {
	rule, ok := e.rules[planet]
	if !ok {
		return Neutral
	}
	switch {
	case signIndex == rule.ExaltSign:
		return Exalted
	case signIndex == rule.DebilSign:
		return Debilitated
	}
	for _, s := range rule.OwnSigns {
		if s == signIndex {
			return OwnSign
		}
	}
	return Neutral
}

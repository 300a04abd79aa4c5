package dalgebra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Scenario — YAML description of a system
// ============================================================

// Scenario is the on-disk description of an elimination problem: the ring,
// the equations and the variables to remove. Polynomials are written in the
// ParsePoly syntax.
type Scenario struct {
	Name           string            `yaml:"name"`
	Operator       string            `yaml:"operator"`
	Parameters     []string          `yaml:"parameters"`
	Images         map[string]string `yaml:"images"`
	Indeterminates []string          `yaml:"indeterminates"`
	Equations      []string          `yaml:"equations"`
	Eliminate      []string          `yaml:"eliminate"`
}

// ParseScenario decodes a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	return &sc, nil
}

// LoadScenario reads and decodes a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	return ParseScenario(data)
}

// System builds the ring and the validated system the scenario describes.
func (sc *Scenario) System() (*System, error) {
	images := map[string]*Poly{}
	for p, src := range sc.Images {
		img, err := ParsePoly(src)
		if err != nil {
			return nil, fmt.Errorf("scenario: image of %q: %w", p, err)
		}
		images[p] = img
	}
	var ring *Ring
	var err error
	switch sc.Operator {
	case "differential", "derivation":
		ring, err = NewDifferentialRing(sc.Parameters, images, sc.Indeterminates)
	case "difference", "shift":
		ring, err = NewDifferenceRing(sc.Parameters, images, sc.Indeterminates)
	default:
		return nil, fmt.Errorf("scenario: operator must be \"differential\" or \"difference\", got %q", sc.Operator)
	}
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	if len(sc.Equations) == 0 {
		return nil, fmt.Errorf("scenario: no equations")
	}
	eqs := make([]*Poly, len(sc.Equations))
	for i, src := range sc.Equations {
		eqs[i], err = ParsePoly(src)
		if err != nil {
			return nil, fmt.Errorf("scenario: equation %d: %w", i, err)
		}
	}
	sys, err := NewSystem(ring, eqs, sc.Eliminate)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	return sys, nil
}

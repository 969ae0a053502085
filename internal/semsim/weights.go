package semsim

import (
	"goatk/internal/errors"
	"goatk/internal/graph"
)

// Weights are the semantic contribution factors of each edge type.
type Weights struct {
	IsA                 float64 `json:"is_a" yaml:"is_a" mapstructure:"is_a" toml:"is_a"`
	PartOf              float64 `json:"part_of" yaml:"part_of" mapstructure:"part_of" toml:"part_of"`
	Regulates           float64 `json:"regulates" yaml:"regulates" mapstructure:"regulates" toml:"regulates"`
	PositivelyRegulates float64 `json:"positively_regulates" yaml:"positively_regulates" mapstructure:"positively_regulates" toml:"positively_regulates"`
	NegativelyRegulates float64 `json:"negatively_regulates" yaml:"negatively_regulates" mapstructure:"negatively_regulates" toml:"negatively_regulates"`
}

// DefaultWeights returns is_a 0.8 and 0.6 for every other relation.
func DefaultWeights() Weights {
	return Weights{
		IsA:                 0.8,
		PartOf:              0.6,
		Regulates:           0.6,
		PositivelyRegulates: 0.6,
		NegativelyRegulates: 0.6,
	}
}

// Of returns the weight of relation r.
func (w Weights) Of(r graph.RelType) float64 {
	switch r {
	case graph.PartOf:
		return w.PartOf
	case graph.Regulates:
		return w.Regulates
	case graph.PositivelyRegulates:
		return w.PositivelyRegulates
	case graph.NegativelyRegulates:
		return w.NegativelyRegulates
	}
	return 0
}

// Validate checks every weight lies in (0, 1].
func (w Weights) Validate() error {
	check := func(name string, v float64) error {
		if !(v > 0 && v <= 1) {
			return errors.Newf(errors.InvalidConfig, "semsim weight %s = %g must be in (0, 1]", name, v)
		}
		return nil
	}
	if err := check("is_a", w.IsA); err != nil {
		return err
	}
	for _, r := range graph.RelTypes() {
		if err := check(r.String(), w.Of(r)); err != nil {
			return err
		}
	}
	return nil
}

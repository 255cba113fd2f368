package quest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SelectionConfig is the selector's policy table
type SelectionConfig struct {
	Priority []string       `yaml:"priority"` // special kinds, tried first to last
	Weights  map[string]int `yaml:"weights"`  // non-special kind -> draw weight
}

// selectionFile represents the selection.yaml structure
type selectionFile struct {
	Selection SelectionConfig `yaml:"selection"`
}

// DefaultSelectionConfig returns the built-in policy
func DefaultSelectionConfig() *SelectionConfig {
	return &SelectionConfig{
		Priority: []string{string(KindHunt), string(KindHometown)},
		Weights: map[string]int{
			string(KindDelivery):   3,
			string(KindCaravan):    2,
			string(KindSpying):     2,
			string(KindHelpFriend): 1,
		},
	}
}

// LoadSelectionFromYAML loads a selection table from a YAML file. Kinds the file does
// not mention keep their default weight.
func LoadSelectionFromYAML(filename string) (*SelectionConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read selection file: %w", err)
	}

	file := selectionFile{Selection: *DefaultSelectionConfig()}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse selection YAML: %w", err)
	}

	return &file.Selection, nil
}

// ParseKind converts a string to a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindHunt, KindHometown, KindDelivery, KindCaravan, KindSpying, KindHelpFriend:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

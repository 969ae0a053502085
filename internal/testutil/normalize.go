package testutil

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

// Normalizer defines the interface for normalizing golden test data.
type Normalizer interface {
	// Normalize processes the data for stable comparison.
	Normalize(t *testing.T, fixture *FixtureContext, data any) any
}

// DefaultNormalizer drops run-specific fields and rewrites fixture paths.
// Slice order is kept: command output order is part of what is tested.
type DefaultNormalizer struct{}

// Normalize applies all normalization rules for stable golden comparison.
// This is called before both compare AND update operations.
func (n *DefaultNormalizer) Normalize(t *testing.T, fixture *FixtureContext, data any) any {
	t.Helper()

	// Deep copy via JSON round-trip to avoid modifying original
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal data for normalization: %v", err)
	}

	var normalized any
	if err := json.Unmarshal(jsonBytes, &normalized); err != nil {
		t.Fatalf("Failed to unmarshal data for normalization: %v", err)
	}

	return n.normalizeValue(normalized, fixture.Root)
}

func (n *DefaultNormalizer) normalizeValue(v any, fixtureRoot string) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, child := range val {
			if n.isVolatileField(k) {
				continue
			}
			result[k] = n.normalizeValue(child, fixtureRoot)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, child := range val {
			result[i] = n.normalizeValue(child, fixtureRoot)
		}
		return result
	case string:
		if fixtureRoot != "" {
			val = strings.ReplaceAll(val, fixtureRoot, "<fixture>")
		}
		return strings.ReplaceAll(val, "\\", "/")
	default:
		return v
	}
}

func (n *DefaultNormalizer) isVolatileField(name string) bool {
	volatileFields := map[string]bool{
		"runId":     true,
		"createdAt": true,
		"elapsed":   true,
	}
	return volatileFields[name]
}

// MarshalNormalized normalizes data and marshals it to stable JSON bytes.
// Map keys are sorted, indentation is two spaces and a trailing newline is
// added.
func MarshalNormalized(t *testing.T, fixture *FixtureContext, data any) []byte {
	t.Helper()

	normalizer := &DefaultNormalizer{}
	normalized := normalizer.Normalize(t, fixture, data)

	bytes, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal normalized data: %v", err)
	}
	return append(bytes, '\n')
}

// DeepEqual compares two values for equality, ignoring volatile fields.
func DeepEqual(t *testing.T, fixture *FixtureContext, a, b any) bool {
	t.Helper()

	normalizer := &DefaultNormalizer{}
	return reflect.DeepEqual(normalizer.Normalize(t, fixture, a), normalizer.Normalize(t, fixture, b))
}

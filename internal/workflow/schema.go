// Package workflow implements the Workflow Engine (spec §4.4): a schema
// loader, an instance lifecycle manager, a sequential-progression/
// conditional-requirement validator, and an enforcement-mode-aware
// enforcer, adapted from the teacher's ordered-pipeline Registry pattern
// (internal/workflow/types.go in the teacher tree) onto triad instances
// instead of bead stages.
package workflow

import (
	"encoding/json"
	"fmt"
	"os"
)

// EnforcementMode controls how strictly the Enforcer treats a transition
// that skips required triads (spec §4.4).
type EnforcementMode string

const (
	ModeStrict      EnforcementMode = "strict"
	ModeRecommended EnforcementMode = "recommended"
	ModeOptional    EnforcementMode = "optional"
)

func (m EnforcementMode) valid() bool {
	switch m {
	case ModeStrict, ModeRecommended, ModeOptional:
		return true
	default:
		return false
	}
}

// TriadDef is one entry in the schema's ordered triad list. Position in
// Schema.Triads is the triad's index for sequential-progression purposes.
type TriadDef struct {
	ID       string `json:"id"`
	Label    string `json:"label,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// Complexity is the ordinal scale used by conditional requirement
// thresholds (spec §4.4 "complexity ordinal").
type Complexity string

const (
	ComplexityMinimal     Complexity = "minimal"
	ComplexityModerate    Complexity = "moderate"
	ComplexitySubstantial Complexity = "substantial"
)

var complexityRank = map[Complexity]int{
	ComplexityMinimal:     0,
	ComplexityModerate:    1,
	ComplexitySubstantial: 2,
}

// Condition gates a ConditionalRequirement. Exactly one of the threshold
// fields is expected to be set, matching the kind named by Kind.
type Condition struct {
	Kind       string     `json:"kind"` // "content_created", "components_modified", "complexity"
	Quantity   float64    `json:"quantity,omitempty"`
	Units      string     `json:"units,omitempty"`
	Complexity Complexity `json:"complexity,omitempty"`
}

// ConditionalRequirement requires GateTriad to be completed before
// BeforeTriad when the instance's metrics meet Condition (spec §4.4 step 5).
// Without metrics the rule does not fire.
type ConditionalRequirement struct {
	BeforeTriad string    `json:"before_triad"`
	GateTriad   string    `json:"gate_triad"`
	Condition   Condition `json:"condition"`
}

// Schema is the loaded, validated workflow.json contract (spec §6).
type Schema struct {
	Triads                   []TriadDef                `json:"triads"`
	DefaultEnforcementMode   EnforcementMode            `json:"default_enforcement_mode"`
	PerTriadOverrides        map[string]EnforcementMode `json:"per_triad_overrides,omitempty"`
	ConditionalRequirements  []ConditionalRequirement   `json:"conditional_requirements,omitempty"`

	index map[string]int // triad id -> position, built by validate
}

// LoadSchema reads and validates the schema at path (spec §4.4 "Schema
// loader"). It rejects schemas with duplicate triad ids, conditional rules
// referencing unknown triads, or invalid enforcement modes.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading schema %s: %v", ErrTransientIO, path, err)
	}
	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("%w: parsing schema %s: %v", ErrValidation, path, err)
	}
	if err := schema.validate(); err != nil {
		return nil, err
	}
	return &schema, nil
}

func (s *Schema) validate() error {
	if !s.DefaultEnforcementMode.valid() {
		return fmt.Errorf("%w: invalid default_enforcement_mode %q", ErrValidation, s.DefaultEnforcementMode)
	}

	s.index = make(map[string]int, len(s.Triads))
	for i, t := range s.Triads {
		if t.ID == "" {
			return fmt.Errorf("%w: triad at position %d has no id", ErrValidation, i)
		}
		if _, dup := s.index[t.ID]; dup {
			return fmt.Errorf("%w: duplicate triad id %q", ErrValidation, t.ID)
		}
		s.index[t.ID] = i
	}

	for mode := range s.PerTriadOverrides {
		if _, ok := s.index[mode]; !ok {
			return fmt.Errorf("%w: per_triad_overrides references unknown triad %q", ErrValidation, mode)
		}
	}
	for id, mode := range s.PerTriadOverrides {
		if !mode.valid() {
			return fmt.Errorf("%w: invalid enforcement mode %q for triad %q", ErrValidation, mode, id)
		}
	}

	for _, cr := range s.ConditionalRequirements {
		if _, ok := s.index[cr.BeforeTriad]; !ok {
			return fmt.Errorf("%w: conditional_requirements references unknown before_triad %q", ErrValidation, cr.BeforeTriad)
		}
		if _, ok := s.index[cr.GateTriad]; !ok {
			return fmt.Errorf("%w: conditional_requirements references unknown gate_triad %q", ErrValidation, cr.GateTriad)
		}
	}

	return nil
}

// IndexOf returns the triad's position in the schema, or -1 if unknown.
func (s *Schema) IndexOf(triad string) int {
	if idx, ok := s.index[triad]; ok {
		return idx
	}
	return -1
}

// IsOptional reports whether triad is marked optional in the schema.
func (s *Schema) IsOptional(triad string) bool {
	idx := s.IndexOf(triad)
	if idx < 0 {
		return false
	}
	return s.Triads[idx].Optional
}

// EnforcementModeFor returns the effective enforcement mode for triad:
// PerTriadOverrides if present, else DefaultEnforcementMode (spec §4.4 step 6).
func (s *Schema) EnforcementModeFor(triad string) EnforcementMode {
	if mode, ok := s.PerTriadOverrides[triad]; ok {
		return mode
	}
	return s.DefaultEnforcementMode
}

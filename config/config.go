// Copyright 2026 The stateforge Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads and validates the YAML configuration surfaces
// for the GSM and KV engines, per spec.md §6 and SPEC_FULL.md §4.8.
// Loosely-typed overrides (e.g. a CLI flag arriving as a string) are
// normalized with github.com/spf13/cast by the separate CoerceEpsilon and
// CoerceMaxLearningRounds helpers; the Load functions do not use them. This matches the
// teacher's own config layer's habit of accepting "whatever came off
// the wire" and coercing it rather than demanding a pre-typed value.
package config

import (
	"os"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"

	"github.com/go-automata/stateforge/aerrors"
	"github.com/go-automata/stateforge/gsm"
	"github.com/go-automata/stateforge/kv"
)

// GSMConfig mirrors gsm.Config's YAML-facing option surface, per
// SPEC_FULL.md §4.8. LocalScore/GlobalScore/NodeOrder are Go values a
// config file cannot express, so they're supplied by the caller after
// loading; GSMConfig only carries what YAML can hold.
type GSMConfig struct {
	OutputBehavior        gsm.OutputBehavior        `yaml:"output_behavior"`
	TransitionBehavior    gsm.TransitionBehavior    `yaml:"transition_behavior"`
	CompatibilityBehavior gsm.CompatibilityBehavior `yaml:"compatibility_behavior"`
	Epsilon               float64                   `yaml:"epsilon"`
	EvalCompatOnPTA       bool                      `yaml:"eval_compat_on_pta"`
	DebugLevel            int                       `yaml:"debug_lvl"`
}

// KVConfig mirrors kv.Config's YAML-facing option surface.
type KVConfig struct {
	CexProcessing     kv.CexProcessing `yaml:"cex_processing"`
	MaxLearningRounds *int             `yaml:"max_learning_rounds"`
	PrettyStateNames  bool             `yaml:"pretty_state_names"`
	PrintLevel        int              `yaml:"print_level"`
}

// LoadGSMConfig reads and validates a GSM option file.
func LoadGSMConfig(path string) (GSMConfig, error) {
	var c GSMConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, err
	}
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

// LoadKVConfig reads and validates a KV option file.
func LoadKVConfig(path string) (KVConfig, error) {
	var c KVConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, err
	}
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c GSMConfig) validate() error {
	switch c.OutputBehavior {
	case gsm.Moore, gsm.Mealy:
	default:
		return aerrors.ErrInvalidConfiguration.New("output_behavior", c.OutputBehavior)
	}
	switch c.TransitionBehavior {
	case gsm.Deterministic, gsm.NonDeterministic, gsm.Stochastic:
	default:
		return aerrors.ErrInvalidConfiguration.New("transition_behavior", c.TransitionBehavior)
	}
	switch c.CompatibilityBehavior {
	case gsm.Future, gsm.Partition, gsm.Merge:
	default:
		return aerrors.ErrInvalidConfiguration.New("compatibility_behavior", c.CompatibilityBehavior)
	}
	// SPEC_FULL.md §4.8 / spec.md §9 redesign flag: eval_compat_on_pta
	// with compatibility_behavior=merge is rejected at load time, before
	// a single SUL query is issued, rather than left to the engine to
	// discover at construction.
	if c.EvalCompatOnPTA && c.CompatibilityBehavior == gsm.Merge {
		return aerrors.ErrInvalidConfiguration.New("eval_compat_on_pta", true)
	}
	return nil
}

func (c KVConfig) validate() error {
	switch c.CexProcessing {
	case kv.Naive, kv.RS:
	default:
		return aerrors.ErrInvalidConfiguration.New("cex_processing", c.CexProcessing)
	}
	if c.MaxLearningRounds != nil && *c.MaxLearningRounds < 0 {
		return aerrors.ErrInvalidConfiguration.New("max_learning_rounds", *c.MaxLearningRounds)
	}
	return nil
}

// CoerceEpsilon normalizes a loosely-typed override (e.g. a CLI flag
// value arriving as a string) into the float64 GSMConfig.Epsilon
// expects, surfacing a coercion failure as ErrInvalidConfiguration.
func CoerceEpsilon(v interface{}) (float64, error) {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, aerrors.ErrInvalidConfiguration.New("epsilon", v)
	}
	return f, nil
}

// CoerceMaxLearningRounds normalizes a loosely-typed override into the
// *int kv.Config.MaxLearningRounds/KVConfig.MaxLearningRounds expects.
// A nil or empty-string v means "unbounded" and returns a nil pointer,
// matching spec.md §6's `int|none`.
func CoerceMaxLearningRounds(v interface{}) (*int, error) {
	if v == nil || v == "" {
		return nil, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return nil, aerrors.ErrInvalidConfiguration.New("max_learning_rounds", v)
	}
	return &n, nil
}

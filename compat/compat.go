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

// Package compat implements the pluggable local compatibility scorers
// the gsm engine consults while deciding whether a blue state may be
// merged into a red one: Moore output equality, deterministic-transition
// agreement, the Hoeffding-bound frequency check used by Alergia, and a
// non-deterministic output-support check.
package compat

import (
	"math"

	"github.com/go-automata/stateforge/pta"
)

// Score is a local compatibility predicate over a pair of nodes. The
// Hoeffding and NonDeterministicSupport builders below return the 4-ary
// form directly (Moore and DeterministicTransitions are plain two-node
// predicates the engine calls itself); callers that
// receive a 3-ary score from older configuration should wrap it with
// Adapt3 per the redesign flag in spec.md §9.
type Score[I, O comparable] func(a, b *pta.Node[I, O], info any, useOriginal bool) bool

// Score3 is the 3-ary shape observed in the source for scorers that
// never needed the use_original flag (deterministic-transition
// agreement, in particular, is the same check on original or current
// transitions since determinism forbids them from differing anywhere
// that matters).
type Score3[I, O comparable] func(a, b *pta.Node[I, O], info any) bool

// Adapt3 lifts a Score3 to the 4-ary Score shape by ignoring useOriginal.
func Adapt3[I, O comparable](fn Score3[I, O]) Score[I, O] {
	return func(a, b *pta.Node[I, O], info any, _ bool) bool {
		return fn(a, b, info)
	}
}

// Moore reports whether a and b carry the same output label. This is
// unconditionally required in Moore output_behavior, independent of
// whatever local_score the caller configured (spec.md §4.3 applies it
// before consulting the configured scorer).
func Moore[I, O comparable](a, b *pta.Node[I, O]) bool {
	return a.Output == b.Output
}

// DeterministicTransitions reports whether, for every input symbol a and
// b both have outgoing transitions on, the two agree on the single
// output reached. This is the check deterministic transition_behavior
// requires unconditionally before any configured local_score runs.
func DeterministicTransitions[I, O comparable](a, b *pta.Node[I, O]) bool {
	for input, aOutputs := range a.Transitions {
		bOutputs, ok := b.Transitions[input]
		if !ok {
			continue
		}
		if len(aOutputs) > 1 || len(bOutputs) > 1 {
			// Not actually deterministic; let the caller's own
			// invariant checks surface this, don't silently pass.
			return false
		}
		for aOut := range aOutputs {
			for bOut := range bOutputs {
				if aOut != bOut {
					return false
				}
			}
		}
	}
	return true
}

// countsByInput sums, per shared input symbol, the total transition
// count on each side and the per-output counts, honoring useOriginal.
func countsByInput[I, O comparable](a, b *pta.Node[I, O], input I, useOriginal bool) (aTotal, bTotal int, aByOut, bByOut map[O]int) {
	aByOut = make(map[O]int)
	bByOut = make(map[O]int)
	for out, info := range a.Transitions[input] {
		c := info.Count
		if useOriginal {
			c = info.OriginalCount
		}
		aByOut[out] = c
		aTotal += c
	}
	for out, info := range b.Transitions[input] {
		c := info.Count
		if useOriginal {
			c = info.OriginalCount
		}
		bByOut[out] = c
		bTotal += c
	}
	return
}

// Hoeffding builds the stochastic compatibility scorer described in
// spec.md §4.2: for every shared input symbol with nonzero support on
// both sides, every output's empirical frequency must agree within the
// Hoeffding-bound threshold at confidence 1-eps. This realizes the
// Alergia criterion (GSM(stochastic, future, Hoeffding)).
func Hoeffding[I, O comparable](eps float64) Score[I, O] {
	return func(a, b *pta.Node[I, O], _ any, useOriginal bool) bool {
		for input := range a.Transitions {
			if _, ok := b.Transitions[input]; !ok {
				continue
			}
			aTotal, bTotal, aByOut, bByOut := countsByInput(a, b, input, useOriginal)
			if aTotal == 0 || bTotal == 0 {
				continue
			}
			threshold := (1/math.Sqrt(float64(aTotal)) + 1/math.Sqrt(float64(bTotal))) *
				math.Sqrt(0.5*math.Log(2/eps))

			seen := make(map[O]bool, len(aByOut)+len(bByOut))
			for out := range aByOut {
				seen[out] = true
			}
			for out := range bByOut {
				seen[out] = true
			}
			for out := range seen {
				af := float64(aByOut[out]) / float64(aTotal)
				bf := float64(bByOut[out]) / float64(bTotal)
				if math.Abs(af-bf) > threshold {
					return false
				}
			}
		}
		return true
	}
}

// NonDeterministicSupport builds the non-deterministic compatibility
// scorer: for every shared input symbol where both sides have support
// at least eps, the two output-support sets must be equal.
func NonDeterministicSupport[I, O comparable](eps int) Score[I, O] {
	return func(a, b *pta.Node[I, O], _ any, useOriginal bool) bool {
		for input := range a.Transitions {
			if _, ok := b.Transitions[input]; !ok {
				continue
			}
			aTotal, bTotal, aByOut, bByOut := countsByInput(a, b, input, useOriginal)
			if aTotal < eps || bTotal < eps {
				continue
			}
			if len(aByOut) != len(bByOut) {
				return false
			}
			for out := range aByOut {
				if _, ok := bByOut[out]; !ok {
					return false
				}
			}
		}
		return true
	}
}

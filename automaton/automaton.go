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

// Package automaton holds the two named-state machine shapes the core
// produces, per spec.md's data model: a Hypothesis, rebuilt from scratch
// every KV round directly off the classification tree's leaves, and an
// ExportedAutomaton, built once from a merged PTA after a GSM run.
package automaton

import "fmt"

// State is one hypothesis state: a deterministic automaton reached by
// Access from the initial state, described in spec.md §4.4/§4.5.
type State[I, O comparable] struct {
	Access      []I
	Output      O
	Transitions map[I]*State[I, O]
}

// Hypothesis is the active learner's current guess: an initial state
// plus every state reachable from it. Ephemeral by design — discarded
// and rebuilt fresh every round.
type Hypothesis[I, O comparable] struct {
	Initial *State[I, O]
	States  []*State[I, O]
}

// Run simulates sequence from the initial state and returns the state
// reached. An input with no defined transition leaves the simulation in
// place, which only happens for an alphabet symbol the hypothesis was
// never asked to sift — gen_hypothesis defines every symbol for every
// state, so this is unreachable in ordinary use.
func (h *Hypothesis[I, O]) Run(sequence []I) *State[I, O] {
	cur := h.Initial
	for _, in := range sequence {
		next, ok := cur.Transitions[in]
		if !ok {
			continue
		}
		cur = next
	}
	return cur
}

// AccessOf returns the canonical input sequence identifying state's
// Myhill-Nerode class.
func (s *State[I, O]) AccessOf() []I { return s.Access }

// stateName renders access either as a stable generated s0..sN label
// (with the initial state forced to s0) or, when prettyNames is false,
// as the literal access string — useful for debugging a run without
// losing track of which state came from where.
func stateName[I, O comparable](s *State[I, O], index int, prettyNames bool) string {
	if prettyNames {
		return fmt.Sprintf("s%d", index)
	}
	return fmt.Sprintf("%v", s.Access)
}

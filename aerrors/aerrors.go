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

// Package aerrors defines the typed error kinds surfaced by the learning
// core. Every fatal condition named in the error-handling design is a
// distinct *errors.Kind: a package-level Kind built from a format
// string, instantiated with .New(args...) at the call site so %v/%q
// verbs carry the offending values without every caller hand-rolling
// fmt.Errorf.
package aerrors

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrNonDeterministicSUL is raised when CacheSUL observes two
	// different outputs for the same input prefix across repeated
	// queries against the same SUL.
	ErrNonDeterministicSUL = errors.NewKind("non-deterministic SUL: prefix %v produced %v, then %v")

	// ErrNonDeterministicInput is raised during deterministic-mode PTA
	// construction when two traces share an input prefix but disagree
	// on the output of the next step.
	ErrNonDeterministicInput = errors.NewKind("non-deterministic sample: input %v from prefix %v disagrees on output (%v vs %v)")

	// ErrInvalidConfiguration is raised at construction time when an
	// enum-valued option falls outside its closed set, or when two
	// options are set to a combination the core refuses to guess at.
	ErrInvalidConfiguration = errors.NewKind("invalid configuration: field %q = %v")

	// ErrOracleMismatch is raised when an Oracle returns a
	// counterexample on which the SUL and the hypothesis actually
	// agree, which can only mean the oracle implementation is wrong.
	ErrOracleMismatch = errors.NewKind("oracle returned a counterexample the SUL and hypothesis agree on: %v")

	// ErrBudgetExhausted is raised, non-fatally, when max_learning_rounds
	// is reached before an equivalence query returns nil. Callers that
	// want the partial hypothesis check errors.Is against this kind.
	ErrBudgetExhausted = errors.NewKind("learning budget exhausted after %d rounds")
)

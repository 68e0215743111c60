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

// Package oracle defines the equivalence-oracle capability the active
// KV learner queries each round, per spec.md §6. Concrete oracles
// (random-walk, W-method sampling) are explicitly out of scope per
// spec.md §1; this package owns only the interface and, in oracletest,
// minimal in-memory doubles used by this module's own tests.
package oracle

import (
	"context"

	"github.com/go-automata/stateforge/automaton"
)

// Oracle answers "does this hypothesis still agree with the SUL?".
// FindCex must not mutate hyp; if it returns a non-nil sequence, the SUL
// and hyp are required to disagree on the last output of that sequence
// (spec.md §6's contract) — a violation of that contract is the
// OracleMismatchViolation fatal condition the kv package surfaces.
type Oracle[I, O comparable] interface {
	FindCex(ctx context.Context, hyp *automaton.Hypothesis[I, O]) ([]I, error)
}

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

// Package oracletest provides in-memory oracle.Oracle test doubles,
// mirroring sultest's role for sul.Sul: exact stand-ins good enough to
// drive this module's own KV tests without a real random-walk or
// W-method implementation, both of which spec.md §1 places out of scope.
package oracletest

import (
	"context"

	"github.com/go-automata/stateforge/automaton"
	"github.com/go-automata/stateforge/sul"
)

// Exhaustive is a deterministic oracle that breadth-first enumerates
// every sequence over Alphabet up to MaxDepth (shortest counterexample
// first) and returns the first one on which hyp and the wrapped Sul
// disagree. Good enough to converge small target languages like the
// Tomita grammars in a test without any randomness, at the cost of
// scaling exponentially in MaxDepth — a production equivalence oracle
// would sample instead, which is exactly the out-of-scope concern
// spec.md §1 names.
type Exhaustive[I, O comparable] struct {
	Alphabet []I
	MaxDepth int
	Sul      sul.Sul[I, O]
}

func New[I, O comparable](alphabet []I, maxDepth int, s sul.Sul[I, O]) *Exhaustive[I, O] {
	return &Exhaustive[I, O]{Alphabet: alphabet, MaxDepth: maxDepth, Sul: s}
}

func (o *Exhaustive[I, O]) FindCex(ctx context.Context, hyp *automaton.Hypothesis[I, O]) ([]I, error) {
	queue := [][]I{{}}
	for len(queue) > 0 {
		seq := queue[0]
		queue = queue[1:]

		if len(seq) > 0 {
			outs, err := o.Sul.Query(ctx, seq)
			if err != nil {
				return nil, err
			}
			sulOut := outs[len(outs)-1]
			hypOut := hyp.Run(seq).Output
			if sulOut != hypOut {
				cex := make([]I, len(seq))
				copy(cex, seq)
				return cex, nil
			}
		}

		if len(seq) >= o.MaxDepth {
			continue
		}
		for _, a := range o.Alphabet {
			next := make([]I, len(seq)+1)
			copy(next, seq)
			next[len(seq)] = a
			queue = append(queue, next)
		}
	}
	return nil, nil
}

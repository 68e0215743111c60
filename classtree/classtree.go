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

// Package classtree implements the binary classification tree the
// active KV learner uses to separate hypothesis states by distinguishing
// sequences, per spec.md §4.4. Unlike pta.Node (one GSM run, thrown away
// after export), a Tree's nodes live across every round of an active
// run: leaves split, but a discriminator is never changed once set, and
// an existing leaf only ever moves under a newly created inner node in
// place — so a *node pointer kept by a caller across a split still
// resolves to the same logical leaf it always did (it just grew a
// sibling).
package classtree

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-automata/stateforge/automaton"
	"github.com/go-automata/stateforge/sul"
	"github.com/go-automata/stateforge/telemetry"
)

// node is either an inner node (discriminator + children keyed by
// output) or a leaf (access string). Both shapes share one struct,
// mirroring pta.Node's "one object, two roles before/after a
// structural change" style: a split mutates a leaf into an inner node
// in place rather than allocating a new object for the caller to have
// to go find.
type node[I, O comparable] struct {
	leaf   bool
	access []I // leaf only

	discriminator []I               // inner only
	children      map[O]*node[I, O] // inner only
}

// Tree is the classification tree for one active-learning run, owning
// the alphabet and the Sul it sifts sequences through.
type Tree[I, O comparable] struct {
	alphabet []I
	sul      sul.Sul[I, O]
	root     *node[I, O]
	logger   *telemetry.Logger
}

// New builds the two-leaf tree spec.md §4.5 step 4 describes: root
// discriminator is the empty sequence, and its two children are the
// empty-string access string and the first counterexample, separated by
// whichever of emptyOutput / the SUL's answer on cex differs.
func New[I, O comparable](ctx context.Context, alphabet []I, s sul.Sul[I, O], cex []I, emptyOutput O, debugLevel int) (*Tree[I, O], error) {
	t := &Tree[I, O]{
		alphabet: append([]I{}, alphabet...),
		sul:      s,
		logger:   telemetry.NewLogger("classtree", debugLevel),
	}

	cexOut, err := t.queryLast(ctx, cex)
	if err != nil {
		return nil, err
	}
	if cexOut == emptyOutput {
		return nil, fmt.Errorf("classtree: counterexample %v does not distinguish itself from the empty string", cex)
	}

	emptyLeaf := &node[I, O]{leaf: true, access: []I{}}
	cexLeaf := &node[I, O]{leaf: true, access: append([]I{}, cex...)}

	t.root = &node[I, O]{
		discriminator: []I{},
		children: map[O]*node[I, O]{
			emptyOutput: emptyLeaf,
			cexOut:      cexLeaf,
		},
	}
	return t, nil
}

// queryLast runs a full query and returns its last output, or the SUL's
// InitialOutput for the empty sequence — spec.md §6 notes Query(nil)
// legitimately returns zero outputs, so the empty case needs its own
// primitive rather than indexing an empty slice.
func (t *Tree[I, O]) queryLast(ctx context.Context, seq []I) (O, error) {
	if len(seq) == 0 {
		return t.sul.InitialOutput(ctx)
	}
	outs, err := t.sul.Query(ctx, seq)
	if err != nil {
		var zero O
		return zero, err
	}
	return outs[len(outs)-1], nil
}

// sift descends from root, querying w-concatenated-with-each-node's
// discriminator and following the branch matching the result, per
// spec.md §4.4. It returns the leaf reached; that leaf's access string
// is w's canonical representative in the current hypothesis.
func (t *Tree[I, O]) sift(ctx context.Context, w []I) (*node[I, O], error) {
	cur := t.root
	for !cur.leaf {
		query := make([]I, 0, len(w)+len(cur.discriminator))
		query = append(query, w...)
		query = append(query, cur.discriminator...)

		out, err := t.queryLast(ctx, query)
		if err != nil {
			return nil, err
		}
		child, ok := cur.children[out]
		if !ok {
			return nil, fmt.Errorf("classtree: sift(%v) produced output %v with no matching branch at discriminator %v", w, out, cur.discriminator)
		}
		cur = child
	}
	return cur, nil
}

// GenHypothesis builds a fresh Hypothesis directly off the tree's
// leaves, per spec.md §4.4: one state per leaf, transitions by sifting
// access·a for every input a, and a state's output label taken by
// querying the SUL on its own access string.
func (t *Tree[I, O]) GenHypothesis(ctx context.Context) (*automaton.Hypothesis[I, O], error) {
	leaves := t.leaves()

	states := make(map[*node[I, O]]*automaton.State[I, O], len(leaves))
	for _, l := range leaves {
		out, err := t.queryLast(ctx, l.access)
		if err != nil {
			return nil, err
		}
		states[l] = &automaton.State[I, O]{
			Access:      append([]I{}, l.access...),
			Output:      out,
			Transitions: make(map[I]*automaton.State[I, O], len(t.alphabet)),
		}
	}

	var initial *automaton.State[I, O]
	allStates := make([]*automaton.State[I, O], 0, len(leaves))
	for _, l := range leaves {
		s := states[l]
		allStates = append(allStates, s)
		if len(l.access) == 0 {
			initial = s
		}
		for _, a := range t.alphabet {
			succAccess := append(append([]I{}, l.access...), a)
			succLeaf, err := t.sift(ctx, succAccess)
			if err != nil {
				return nil, err
			}
			s.Transitions[a] = states[succLeaf]
		}
	}

	return &automaton.Hypothesis[I, O]{Initial: initial, States: allStates}, nil
}

// leaves collects every leaf currently in the tree, in a stable
// pre-order so repeated calls (e.g. across GenHypothesis invocations in
// the same round) see a consistent state ordering.
func (t *Tree[I, O]) leaves() []*node[I, O] {
	var out []*node[I, O]
	var walk func(n *node[I, O])
	walk = func(n *node[I, O]) {
		if n.leaf {
			out = append(out, n)
			return
		}
		for _, key := range outputOrder(n.children) {
			walk(n.children[key])
		}
	}
	walk(t.root)
	return out
}

// outputOrder returns children's output keys in a fixed textual order so
// leaves() is deterministic despite Go's randomized map iteration; O
// need not be an ordered type, so the tie-break is purely textual.
func outputOrder[O comparable, N any](children map[O]N) []O {
	keys := make([]O, 0, len(children))
	for k := range children {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprintf("%v", keys[i]) < fmt.Sprintf("%v", keys[j])
	})
	return keys
}

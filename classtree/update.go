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

package classtree

import (
	"context"
	"fmt"

	"github.com/go-automata/stateforge/automaton"
)

// runStates replays cex through hyp one symbol at a time and returns
// the len(cex)+1 states visited: runStates[0] is hyp.Initial, and
// runStates[i] is the state reached after consuming cex[:i].
func runStates[I, O comparable](hyp *automaton.Hypothesis[I, O], cex []I) []*automaton.State[I, O] {
	states := make([]*automaton.State[I, O], len(cex)+1)
	states[0] = hyp.Initial
	cur := hyp.Initial
	for i, a := range cex {
		next, ok := cur.Transitions[a]
		if ok {
			cur = next
		}
		states[i+1] = cur
	}
	return states
}

// split replaces oldLeaf in place with an inner node carrying
// discriminator, whose two children are the old leaf's own access
// string and newAccess — exactly spec.md §4.4's split step for both
// naive and RS processing. oldLeaf's object identity is preserved (it
// becomes the inner node), so any *node a caller is still holding
// resolves to the right place in the tree; a brand-new sibling leaf is
// allocated for the side that wasn't there before.
func (t *Tree[I, O]) split(ctx context.Context, oldLeaf *node[I, O], discriminator, newAccess []I) error {
	oldAccess := oldLeaf.access

	oldBranch, err := t.queryLast(ctx, concat(oldAccess, discriminator))
	if err != nil {
		return err
	}
	newBranch, err := t.queryLast(ctx, concat(newAccess, discriminator))
	if err != nil {
		return err
	}
	if oldBranch == newBranch {
		return fmt.Errorf("classtree: split discriminator %v does not distinguish %v from %v", discriminator, oldAccess, newAccess)
	}

	oldChild := &node[I, O]{leaf: true, access: oldAccess}
	newChild := &node[I, O]{leaf: true, access: append([]I{}, newAccess...)}

	oldLeaf.leaf = false
	oldLeaf.access = nil
	oldLeaf.discriminator = discriminator
	oldLeaf.children = map[O]*node[I, O]{
		oldBranch: oldChild,
		newBranch: newChild,
	}

	t.logger.Debugf("split leaf %v on discriminator %v into %v / %v", oldAccess, discriminator, oldAccess, newAccess)
	return nil
}

func concat[I any](a, b []I) []I {
	out := make([]I, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// value computes, for a state-sequence q_0..q_n visited while replaying
// cex through hyp, d_j = OUT(access(q_j) . cex[j:]) — the quantity both
// counterexample-processing strategies search over. d_0 always equals
// OUT(cex) (access(q_0) is empty) and d_n always equals the
// hypothesis's own prediction for cex (cex[n:] is empty, so it's just
// OUT(access(q_n))); since cex is a genuine counterexample the two
// differ, guaranteeing some adjacent j-1,j with d_{j-1}==d_0 and
// d_j!=d_0 for either search strategy to find.
func (t *Tree[I, O]) value(ctx context.Context, states []*automaton.State[I, O], cex []I, j int) (O, error) {
	return t.queryLast(ctx, concat(states[j].Access, cex[j:]))
}

// applyBreakpoint performs the split shared by naive and RS processing
// once the breakpoint i has been found (d_{i-1} == trueOut, d_i !=
// trueOut): the leaf actually split is the one the tree currently
// sifts access(q_{i-1})·cex[i-1] to — which, by hypothesis
// construction, is the same leaf gen_hypothesis's transition step
// already placed state q_i at — discriminated by the bare suffix
// cex[i:], with the counterexample's own prefix cex[:i] as the new
// sibling's access string.
func (t *Tree[I, O]) applyBreakpoint(ctx context.Context, cex []I, states []*automaton.State[I, O], breakpoint int) error {
	a := cex[breakpoint-1]
	v := cex[breakpoint:]
	succAccess := concat(states[breakpoint-1].Access, []I{a})

	oldSucc, err := t.sift(ctx, succAccess)
	if err != nil {
		return err
	}
	newAccess := cex[:breakpoint]
	return t.split(ctx, oldSucc, v, newAccess)
}

// Update absorbs a counterexample with the naive, O(|cex|) strategy of
// spec.md §4.4: scan j = 1..len(cex) in order for the first index where
// d_j departs from d_0 = OUT(cex), then split on that breakpoint.
func (t *Tree[I, O]) Update(ctx context.Context, cex []I, hyp *automaton.Hypothesis[I, O]) error {
	states := runStates(hyp, cex)
	trueOut, err := t.queryLast(ctx, cex)
	if err != nil {
		return err
	}

	breakpoint := -1
	for j := 1; j <= len(cex); j++ {
		out, err := t.value(ctx, states, cex, j)
		if err != nil {
			return err
		}
		if out != trueOut {
			breakpoint = j
			break
		}
	}
	if breakpoint < 0 {
		return fmt.Errorf("classtree: naive update found no divergence point for counterexample %v; oracle may have returned one the hypothesis already accepts", cex)
	}

	return t.applyBreakpoint(ctx, cex, states, breakpoint)
}

// UpdateRS absorbs a counterexample with the Rivest-Schapire strategy of
// spec.md §4.4: binary search for an adjacent breakpoint i with
// d_{i-1}==d_0 and d_i!=d_0, needing O(log|cex|) queries against
// naive's O(|cex|), then apply the identical split applyBreakpoint uses.
func (t *Tree[I, O]) UpdateRS(ctx context.Context, cex []I, hyp *automaton.Hypothesis[I, O]) error {
	states := runStates(hyp, cex)
	trueOut, err := t.queryLast(ctx, cex)
	if err != nil {
		return err
	}

	lo, hi := 0, len(cex)
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		v, err := t.value(ctx, states, cex, mid)
		if err != nil {
			return err
		}
		if v == trueOut {
			lo = mid
		} else {
			hi = mid
		}
	}

	return t.applyBreakpoint(ctx, cex, states, hi)
}

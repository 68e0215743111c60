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

// Package pta implements the prefix-tree acceptor: a mutable, shared-node
// graph over which the gsm package runs its red/blue state-merging
// search. A Node starts out tree-shaped (one object per observed
// prefix); after merges it becomes a general graph with several prefixes
// reaching the same object.
//
// Node is generic over the input alphabet type I and the output/label
// type O, both constrained to comparable so they can key the two-level
// transition table described by the data model. This mirrors the
// teacher's preference for small generic containers (see the pack's
// tree-shaker internal/tree.Node[T]) over an any-typed map with runtime
// type assertions.
package pta

// Step is one (input, output) edge along a path from the root.
type Step[I, O comparable] struct {
	Input  I
	Output O
}

// TransitionInfo is the write-once/mutable pair described by the data
// model: Target/Count are rewritten by merges, OriginalTarget/OriginalCount
// are fixed at construction time and never touched again.
type TransitionInfo[I, O comparable] struct {
	Target        *Node[I, O]
	Count         int
	OriginalTarget *Node[I, O]
	OriginalCount  int
}

// Node is one reachable prefix in the sample.
type Node[I, O comparable] struct {
	Output O
	Prefix []Step[I, O]

	// Transitions is input -> output -> info. At most one output entry
	// per input for deterministic mode; more than one is how
	// non-deterministic and stochastic samples are represented.
	Transitions map[I]map[O]*TransitionInfo[I, O]
}

// NewNode allocates a childless node with the given output and prefix.
// The prefix slice is retained, not copied; callers must not mutate it
// afterwards.
func NewNode[I, O comparable](output O, prefix []Step[I, O]) *Node[I, O] {
	return &Node[I, O]{
		Output:      output,
		Prefix:      prefix,
		Transitions: make(map[I]map[O]*TransitionInfo[I, O]),
	}
}

// TransitionsFor returns n.Transitions[input], or nil when n has no
// transition on input; ranging over the nil result is safe, so callers
// need no nil check. It never allocates or writes into Transitions.
func (n *Node[I, O]) TransitionsFor(input I) map[O]*TransitionInfo[I, O] {
	if t, ok := n.Transitions[input]; ok {
		return t
	}
	return nil
}

// AddTransition records (or overwrites) the edge for (input, output) with
// info. It returns nothing; the caller keeps info to bump its counts.
func (n *Node[I, O]) AddTransition(input I, output O, info *TransitionInfo[I, O]) {
	bucket, ok := n.Transitions[input]
	if !ok {
		bucket = make(map[O]*TransitionInfo[I, O])
		n.Transitions[input] = bucket
	}
	bucket[output] = info
}

// IsLeaf reports whether n has no outgoing transitions at all.
func (n *Node[I, O]) IsLeaf() bool {
	return len(n.Transitions) == 0
}

// IsDeterministic reports whether every input symbol leaving n has at
// most one output entry. Used to validate deterministic-mode samples
// and merge results.
func (n *Node[I, O]) IsDeterministic() bool {
	for _, outputs := range n.Transitions {
		if len(outputs) > 1 {
			return false
		}
	}
	return true
}

// ShallowCopy creates a new node sharing Output/Prefix with n, with its
// own copy of the outer Transitions map AND of every TransitionInfo
// reached through it — the partition-construction lazy-copy-on-first-touch
// step described in the GSM merge algorithm. TransitionInfo is copied by
// value (Target/OriginalTarget still point at the same child nodes; only
// the struct holding Count is duplicated) so that a trial partition's
// Count bumps never leak into the real, not-yet-committed graph if the
// trial is later rejected. Despite the name this is closer to a deep
// copy of the edge table than a shallow one; the name matches the
// algorithm's own terminology for this step.
func (n *Node[I, O]) ShallowCopy() *Node[I, O] {
	cp := &Node[I, O]{
		Output:      n.Output,
		Prefix:      n.Prefix,
		Transitions: make(map[I]map[O]*TransitionInfo[I, O], len(n.Transitions)),
	}
	for input, outputs := range n.Transitions {
		bucket := make(map[O]*TransitionInfo[I, O], len(outputs))
		for output, info := range outputs {
			infoCopy := *info
			bucket[output] = &infoCopy
		}
		cp.Transitions[input] = bucket
	}
	return cp
}

// ByPrefix walks from n following steps, returning the node currently
// reached or nil if some edge along the way doesn't exist. Used to find
// the current representative of a prefix after earlier merges may have
// changed which object a given path reaches.
func (n *Node[I, O]) ByPrefix(steps []Step[I, O]) *Node[I, O] {
	cur := n
	for _, s := range steps {
		bucket, ok := cur.Transitions[s.Input]
		if !ok {
			return nil
		}
		info, ok := bucket[s.Output]
		if !ok {
			return nil
		}
		cur = info.Target
	}
	return cur
}

// AllNodes performs a BFS over the (possibly cyclic, post-merge) graph
// reachable from n and returns every distinct node, n first. Child lists
// are snapshotted at enqueue time so a caller mutating Transitions of an
// already-visited node mid-walk cannot change the edge set this walk
// observes, matching the "mutation during iteration" design note.
func (n *Node[I, O]) AllNodes() []*Node[I, O] {
	visited := map[*Node[I, O]]bool{n: true}
	order := []*Node[I, O]{n}
	queue := []*Node[I, O]{n}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		children := make([]*Node[I, O], 0)
		for _, outputs := range cur.Transitions {
			for _, info := range outputs {
				children = append(children, info.Target)
			}
		}
		for _, child := range children {
			if child != nil && !visited[child] {
				visited[child] = true
				order = append(order, child)
				queue = append(queue, child)
			}
		}
	}
	return order
}

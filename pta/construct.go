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

package pta

import "github.com/go-automata/stateforge/aerrors"

// Trace is one observed behavior: InitialOutput is the shared Moore root
// label (ignored in Mealy mode, where the root carries the zero value of
// O) and Steps is the sequence of (input, output) pairs that follow it.
type Trace[I, O comparable] struct {
	InitialOutput O
	Steps         []Step[I, O]
}

// BuildOptions selects which of the two sample formats spec.md §4.1
// describes to parse, and whether to enforce the deterministic-mode
// invariant while doing it.
type BuildOptions struct {
	// Moore indicates traces share one initial output across the
	// sample (the root's Output is taken from the first trace).
	Moore bool
	// Deterministic enforces that no two traces sharing an input
	// prefix disagree on the next output; violations fail construction
	// with aerrors.ErrNonDeterministicInput rather than silently
	// branching.
	Deterministic bool
}

// Build constructs a prefix-tree acceptor from a multiset of traces,
// walking each one from the root and creating a child node the first
// time a branch is needed, exactly as spec.md §4.1 describes. Every
// traversed transition has its Count and OriginalCount both incremented;
// OriginalTarget is set once, when the node is created, and never
// touched again.
func Build[I, O comparable](traces []Trace[I, O], opts BuildOptions) (*Node[I, O], error) {
	var rootOutput O
	if opts.Moore && len(traces) > 0 {
		rootOutput = traces[0].InitialOutput
	}
	root := NewNode[I, O](rootOutput, nil)

	for _, tr := range traces {
		cur := root
		for _, step := range tr.Steps {
			info, err := stepInto(cur, step, opts.Deterministic)
			if err != nil {
				return nil, err
			}
			info.Count++
			info.OriginalCount++
			cur = info.Target
		}
	}

	return root, nil
}

// stepInto returns the TransitionInfo for (step.Input, step.Output) out
// of cur, creating the child node on first touch. In deterministic mode
// a bucket that already holds a different output for step.Input is the
// NonDeterministicInput condition from spec.md §4.1.
func stepInto[I, O comparable](cur *Node[I, O], step Step[I, O], deterministic bool) (*TransitionInfo[I, O], error) {
	bucket, ok := cur.Transitions[step.Input]
	if !ok {
		bucket = make(map[O]*TransitionInfo[I, O])
		cur.Transitions[step.Input] = bucket
	}

	if deterministic {
		for existingOutput, info := range bucket {
			if existingOutput != step.Output {
				return nil, aerrors.ErrNonDeterministicInput.New(step.Input, cur.Prefix, step.Output, existingOutput)
			}
			return info, nil
		}
	}

	if info, ok := bucket[step.Output]; ok {
		return info, nil
	}

	prefix := make([]Step[I, O], len(cur.Prefix)+1)
	copy(prefix, cur.Prefix)
	prefix[len(cur.Prefix)] = step
	child := NewNode[I, O](step.Output, prefix)
	info := &TransitionInfo[I, O]{Target: child, OriginalTarget: child}
	bucket[step.Output] = info
	return info, nil
}

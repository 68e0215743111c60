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

// Package gsm implements generalized state merging: the passive
// red/blue search over a prefix-tree acceptor described by spec.md §4.3,
// parameterized along the three orthogonal axes the source calls
// output_behavior, transition_behavior and compatibility_behavior.
//
// Picking stochastic/future/Hoeffding recovers the Alergia algorithm;
// the other combinations cover RPNI-style deterministic merging and the
// non-deterministic output-support variant, all through the one engine.
package gsm

import (
	"fmt"

	"github.com/go-automata/stateforge/aerrors"
	"github.com/go-automata/stateforge/compat"
	"github.com/go-automata/stateforge/pta"
	"github.com/go-automata/stateforge/telemetry"
)

// OutputBehavior selects whether node output is significant (Moore) or
// ignored (Mealy, where only transition labels carry output).
type OutputBehavior string

const (
	Moore OutputBehavior = "moore"
	Mealy OutputBehavior = "mealy"
)

// TransitionBehavior selects how many outputs a single input may reach
// from one node.
type TransitionBehavior string

const (
	Deterministic    TransitionBehavior = "deterministic"
	NonDeterministic TransitionBehavior = "non-deterministic"
	Stochastic       TransitionBehavior = "stochastic"
)

// CompatibilityBehavior selects how a candidate merge is turned into a
// partitioning and scored, per spec.md §4.3.
type CompatibilityBehavior string

const (
	// Future runs a non-mutating precheck over the live transition links
	// (or the original PTA links, when EvalCompatOnPTA is set) before
	// (optionally) building the full partition.
	Future CompatibilityBehavior = "future"
	// Partition scores every pair as the BFS visits it, against the
	// partial partition built so far, short-circuiting on first failure.
	Partition CompatibilityBehavior = "partition"
	// Merge builds the whole partition first and scores every
	// (old, new) pair once, after the walk completes.
	Merge CompatibilityBehavior = "merge"
)

// ScoreInfo is the accumulated, per-partition-attempt bookkeeping handed
// to both the local and global score functions: how many nodes were
// folded into the partition so far and how much transition count moved
// across from the blue side. This is the "Info" object the source
// threads through the merge BFS.
type ScoreInfo struct {
	MergesApplied int
	CountDelta    int
}

// GlobalScoreValue is what a GlobalScore function returns for one
// candidate red state: either an ordinary, comparable Value, or the
// distinguished perfect score (⊤) that short-circuits the outer search
// and commits immediately regardless of any other candidate's score.
type GlobalScoreValue struct {
	Value   float64
	Perfect bool
}

// GlobalScore ranks a feasible partitioning, given the partial map from
// real nodes to their partition copies and the accumulated ScoreInfo.
// The default (nil) global score always returns Perfect, recovering the
// source's "first feasible red wins" behavior.
type GlobalScore[I, O comparable] func(partitions map[*pta.Node[I, O]]*pta.Node[I, O], info ScoreInfo) GlobalScoreValue

// NodeOrder reports whether a sorts before b when the engine picks
// which blue state to process next, or which red candidate to prefer on
// a global-score tie. The default orders by ascending prefix length,
// then by a stable textual tie-break so the search is reproducible
// without requiring I or O to be ordered types.
type NodeOrder[I, O comparable] func(a, b *pta.Node[I, O]) bool

// DefaultNodeOrder implements the node_order default described above.
func DefaultNodeOrder[I, O comparable](a, b *pta.Node[I, O]) bool {
	if len(a.Prefix) != len(b.Prefix) {
		return len(a.Prefix) < len(b.Prefix)
	}
	return fmt.Sprintf("%v", a.Prefix) < fmt.Sprintf("%v", b.Prefix)
}

// Config is the full set of knobs the engine accepts, mirroring
// spec.md §6's GSM configuration surface.
type Config[I, O comparable] struct {
	OutputBehavior        OutputBehavior
	TransitionBehavior    TransitionBehavior
	CompatibilityBehavior CompatibilityBehavior

	// LocalScore is the configured compatibility scorer consulted after
	// the mandatory Moore/deterministic checks. Required.
	LocalScore compat.Score[I, O]

	// GlobalScore ranks candidate partitionings across red states; nil
	// selects DefaultNodeOrder-compatible "first feasible wins" behavior.
	GlobalScore GlobalScore[I, O]

	// NodeOrder breaks ties when choosing the next blue state and,
	// among otherwise-equal global scores, the preferred red candidate.
	// Nil selects DefaultNodeOrder.
	NodeOrder NodeOrder[I, O]

	// EvalCompatOnPTA selects comparing original_count/original_target
	// (the untouched sample) rather than the live, possibly
	// already-merged fields, both inside the local score and inside the
	// future-mode precheck.
	EvalCompatOnPTA bool

	// DebugLevel feeds telemetry.NewLogger's verbosity.
	DebugLevel int
}

// validate checks the closed enum fields and the one documented
// cross-field restriction: eval_compat_on_pta cannot be combined with
// compatibility_behavior=merge, because "merge" mode only ever looks at
// the just-built partition copies, which have no original_* fields
// distinct from the copied-in current ones at the moment they're
// scored — comparing "original" there would silently compare the wrong
// generation of counts.
func (c Config[I, O]) validate() error {
	switch c.OutputBehavior {
	case Moore, Mealy:
	default:
		return aerrors.ErrInvalidConfiguration.New("output_behavior", c.OutputBehavior)
	}
	switch c.TransitionBehavior {
	case Deterministic, NonDeterministic, Stochastic:
	default:
		return aerrors.ErrInvalidConfiguration.New("transition_behavior", c.TransitionBehavior)
	}
	switch c.CompatibilityBehavior {
	case Future, Partition, Merge:
	default:
		return aerrors.ErrInvalidConfiguration.New("compatibility_behavior", c.CompatibilityBehavior)
	}
	if c.LocalScore == nil {
		return aerrors.ErrInvalidConfiguration.New("local_score", nil)
	}
	if c.EvalCompatOnPTA && c.CompatibilityBehavior == Merge {
		return aerrors.ErrInvalidConfiguration.New("eval_compat_on_pta", true)
	}
	return nil
}

func (c Config[I, O]) nodeOrder() NodeOrder[I, O] {
	if c.NodeOrder != nil {
		return c.NodeOrder
	}
	return DefaultNodeOrder[I, O]
}

func (c Config[I, O]) logger() *telemetry.Logger {
	return telemetry.NewLogger("gsm", c.DebugLevel)
}

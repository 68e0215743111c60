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

package automaton

import (
	"fmt"
	"math"

	"github.com/go-automata/stateforge/pta"
)

// OutputStat is one output symbol's empirical statistics on a single
// input transition of a stochastic (Moore/MDP) exported state: how many
// times it was observed, its normalized probability, and — when the
// caller requested interval bounds — the Hoeffding-interval lower/upper
// bound described in spec.md §4.7's "interval-MDP mode".
type OutputStat struct {
	Target      string
	Count       int
	Probability float64
	LowerBound  float64
	UpperBound  float64
}

// ExportState is one state of an ExportedAutomaton: a generated or
// pretty name, its output label, and either a deterministic per-input
// transition table or, for stochastic output, a per-input distribution
// over outputs. Exactly one of Transitions/Distributions is populated,
// selected at export time by WithStochasticOutputs.
type ExportState[I, O comparable] struct {
	Name        string
	Output      O
	Transitions map[I]string
	Distributions map[I]map[O]OutputStat
}

// ExportedAutomaton is the graph of named states spec.md §6 calls the
// "exported automaton format": a plain, serializable shape with no
// pointers, generated once from either a merged PTA (passive GSM runs)
// or a Hypothesis (active KV runs), so callers never need to special
// case which kind of run produced it.
type ExportedAutomaton[I, O comparable] struct {
	Initial  string
	States   []*ExportState[I, O]
	Metadata map[string]string
}

type exportConfig struct {
	prettyNames bool
	stochastic  bool
	intervalEps float64
	runID       string
}

// ExportOption configures Export/ExportHypothesis.
type ExportOption func(*exportConfig)

// WithPrettyNames selects s0..sN generated names (with the initial state
// forced to s0) over the literal access/prefix string, per the
// pretty_state_names option in spec.md §6 — applied here, at export
// time, rather than as a learning-time concern.
func WithPrettyNames(v bool) ExportOption { return func(c *exportConfig) { c.prettyNames = v } }

// WithStochasticOutputs selects the per-input output-distribution
// representation (normalized counts) instead of a single deterministic
// target per input, per spec.md §4.7's stochastic-output normalization.
func WithStochasticOutputs(v bool) ExportOption { return func(c *exportConfig) { c.stochastic = v } }

// WithIntervalBounds attaches a Hoeffding-interval [lower, upper] bound
// at confidence 1-eps to every OutputStat, for interval-MDP export. Only
// meaningful alongside WithStochasticOutputs; eps <= 0 disables bounds.
func WithIntervalBounds(eps float64) ExportOption { return func(c *exportConfig) { c.intervalEps = eps } }

// WithRunID stamps Metadata["run_id"], letting two exports of the same
// sample from two different engine/learner instances be told apart
// without comparing the full graph.
func WithRunID(id string) ExportOption { return func(c *exportConfig) { c.runID = id } }

func applyOptions(opts []ExportOption) exportConfig {
	var cfg exportConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func metadataFor(cfg exportConfig) map[string]string {
	meta := map[string]string{}
	if cfg.runID != "" {
		meta["run_id"] = cfg.runID
	}
	return meta
}

// Export walks every node reachable from root (spec.md §4.7: "enumerate
// reachable nodes from the (possibly merged) root"), assigns each a
// generated name with root forced to s0, and emits a state per node.
func Export[I, O comparable](root *pta.Node[I, O], opts ...ExportOption) *ExportedAutomaton[I, O] {
	cfg := applyOptions(opts)

	nodes := root.AllNodes()
	names := make(map[*pta.Node[I, O]]string, len(nodes))
	for i, n := range nodes {
		names[n] = nodeName(n, i, cfg.prettyNames)
	}

	states := make([]*ExportState[I, O], len(nodes))
	for i, n := range nodes {
		es := &ExportState[I, O]{Name: names[n], Output: n.Output}
		if cfg.stochastic {
			es.Distributions = buildDistributions(n, names, cfg)
		} else {
			es.Transitions = buildTransitions(n, names)
		}
		states[i] = es
	}

	return &ExportedAutomaton[I, O]{
		Initial:  names[root],
		States:   states,
		Metadata: metadataFor(cfg),
	}
}

// ExportHypothesis is Export's counterpart for the active learner's
// current guess: BFS from h.Initial over its Transitions, producing the
// same ExportedAutomaton shape a passive run would. Used by cmd/stateforgectl
// so one writer serves both learning modes.
func ExportHypothesis[I, O comparable](h *Hypothesis[I, O], opts ...ExportOption) *ExportedAutomaton[I, O] {
	cfg := applyOptions(opts)

	order := []*State[I, O]{h.Initial}
	visited := map[*State[I, O]]bool{h.Initial: true}
	queue := []*State[I, O]{h.Initial}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range cur.Transitions {
			if next != nil && !visited[next] {
				visited[next] = true
				order = append(order, next)
				queue = append(queue, next)
			}
		}
	}

	names := make(map[*State[I, O]]string, len(order))
	for i, s := range order {
		names[s] = stateName(s, i, cfg.prettyNames)
	}

	states := make([]*ExportState[I, O], len(order))
	for i, s := range order {
		trans := make(map[I]string, len(s.Transitions))
		for in, next := range s.Transitions {
			trans[in] = names[next]
		}
		states[i] = &ExportState[I, O]{Name: names[s], Output: s.Output, Transitions: trans}
	}

	return &ExportedAutomaton[I, O]{
		Initial:  names[h.Initial],
		States:   states,
		Metadata: metadataFor(cfg),
	}
}

// nodeName follows stateName's generated-vs-literal naming rule but over
// a pta.Node's Prefix rather than a Hypothesis state's Access. Unlike
// stateName, it names the root (index 0) s0 even with literal naming,
// since a merged PTA's root has no natural "access string" of its own.
func nodeName[I, O comparable](n *pta.Node[I, O], index int, prettyNames bool) string {
	if prettyNames || index == 0 {
		return fmt.Sprintf("s%d", index)
	}
	return fmt.Sprintf("%v", n.Prefix)
}

// buildTransitions emits one target name per input, for deterministic
// (Mealy/DFA-shaped) output: spec.md §4.7's "(input, output) -> target,
// or per input for deterministic outputs". A deterministic node's output
// bucket has exactly one entry by construction (pta.Node.IsDeterministic),
// so the first (and only) one is taken.
func buildTransitions[I, O comparable](n *pta.Node[I, O], names map[*pta.Node[I, O]]string) map[I]string {
	out := make(map[I]string, len(n.Transitions))
	for input, outputs := range n.Transitions {
		for _, info := range outputs {
			out[input] = names[info.Target]
			break
		}
	}
	return out
}

// buildDistributions normalizes every input's per-output counts into
// probabilities, per spec.md §4.7, attaching a Hoeffding-interval bound
// when cfg.intervalEps is set.
func buildDistributions[I, O comparable](n *pta.Node[I, O], names map[*pta.Node[I, O]]string, cfg exportConfig) map[I]map[O]OutputStat {
	dist := make(map[I]map[O]OutputStat, len(n.Transitions))
	for input, outputs := range n.Transitions {
		total := 0
		for _, info := range outputs {
			total += info.Count
		}
		bucket := make(map[O]OutputStat, len(outputs))
		for out, info := range outputs {
			stat := OutputStat{Target: names[info.Target], Count: info.Count}
			if total > 0 {
				stat.Probability = float64(info.Count) / float64(total)
			}
			if cfg.intervalEps > 0 && total > 0 {
				halfWidth := math.Sqrt(math.Log(2/cfg.intervalEps) / (2 * float64(total)))
				stat.LowerBound = math.Max(0, stat.Probability-halfWidth)
				stat.UpperBound = math.Min(1, stat.Probability+halfWidth)
			}
			bucket[out] = stat
		}
		dist[input] = bucket
	}
	return dist
}

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

package gsm

import (
	"github.com/go-automata/stateforge/pta"
	"github.com/go-automata/stateforge/telemetry"
)

// pairKey identifies a (red, blue) trial by node identity, valid as a
// map key because both are pointers.
type pairKey[I, O comparable] struct {
	Red, Blue *pta.Node[I, O]
}

// partitionResult is what a cached or freshly computed (red, blue)
// trial produced.
type partitionResult[I, O comparable] struct {
	feasible   bool
	partitions map[*pta.Node[I, O]]*pta.Node[I, O]
	score      GlobalScoreValue
}

// Engine runs the red/blue search over a single root PTA.
type Engine[I, O comparable] struct {
	cfg    Config[I, O]
	root   *pta.Node[I, O]
	reds   []*pta.Node[I, O]
	cache  map[pairKey[I, O]]partitionResult[I, O]
	logger *telemetry.Logger

	usingDefaultGlobalScore bool
}

// New validates cfg and builds an Engine over root. root is the PTA to
// generalize in place; Run mutates it by committing accepted merges.
func New[I, O comparable](root *pta.Node[I, O], cfg Config[I, O]) (*Engine[I, O], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	usingDefault := cfg.GlobalScore == nil
	if usingDefault {
		cfg.GlobalScore = defaultGlobalScore[I, O]
	}
	return &Engine[I, O]{
		cfg:                     cfg,
		root:                    root,
		reds:                    []*pta.Node[I, O]{root},
		cache:                   make(map[pairKey[I, O]]partitionResult[I, O]),
		logger:                  cfg.logger(),
		usingDefaultGlobalScore: usingDefault,
	}, nil
}

func defaultGlobalScore[I, O comparable](_ map[*pta.Node[I, O]]*pta.Node[I, O], _ ScoreInfo) GlobalScoreValue {
	return GlobalScoreValue{Perfect: true}
}

// Run performs the full red/blue search to completion, returning the
// generalized root (the same *Node passed to New; it is mutated
// in-place by each committed merge, never replaced).
func (e *Engine[I, O]) Run() (*pta.Node[I, O], error) {
	for {
		blue := e.nextBlue()
		if blue == nil {
			break
		}

		best, bestScore, found := e.bestMerge(blue)
		if !found {
			e.logger.Debugf("promoting %v to red", blue.Prefix)
			e.reds = append(e.reds, blue)
			continue
		}

		e.logger.Infof("merging %v into %v (score=%v perfect=%v)", blue.Prefix, best.red.Prefix, bestScore.Value, bestScore.Perfect)
		e.commit(best.partitions)
	}
	return e.root, nil
}

// candidateMerge pairs a feasible trial with the red state it was tried
// against, so the caller can log and commit it.
type candidateMerge[I, O comparable] struct {
	red        *pta.Node[I, O]
	partitions map[*pta.Node[I, O]]*pta.Node[I, O]
}

// bestMerge tries every current red state against blue, short-circuiting
// on the first perfect score and otherwise returning the argmax by
// ordinary Value among feasible candidates, broken by node order.
func (e *Engine[I, O]) bestMerge(blue *pta.Node[I, O]) (candidateMerge[I, O], GlobalScoreValue, bool) {
	var best candidateMerge[I, O]
	var bestScore GlobalScoreValue
	haveBest := false

	order := e.cfg.nodeOrder()

	for _, red := range e.reds {
		result := e.partitioningFor(red, blue)
		if !result.feasible {
			continue
		}
		if result.score.Perfect {
			return candidateMerge[I, O]{red: red, partitions: result.partitions}, result.score, true
		}
		if !haveBest || result.score.Value > bestScore.Value ||
			(result.score.Value == bestScore.Value && order(red, best.red)) {
			best = candidateMerge[I, O]{red: red, partitions: result.partitions}
			bestScore = result.score
			haveBest = true
		}
	}
	return best, bestScore, haveBest
}

// partitioningFor returns the cached trial for (red, blue), computing
// and caching it first if absent.
func (e *Engine[I, O]) partitioningFor(red, blue *pta.Node[I, O]) partitionResult[I, O] {
	key := pairKey[I, O]{Red: red, Blue: blue}
	if r, ok := e.cache[key]; ok {
		return r
	}
	feasible, partitions, score := e.partitionFromMerge(red, blue)
	r := partitionResult[I, O]{feasible: feasible, partitions: partitions, score: score}
	e.cache[key] = r
	return r
}

// nextBlue enumerates, across every current red state's transitions,
// the set of non-red targets and returns the least of them under the
// configured node order, or nil if none remain.
func (e *Engine[I, O]) nextBlue() *pta.Node[I, O] {
	isRed := make(map[*pta.Node[I, O]]bool, len(e.reds))
	for _, r := range e.reds {
		isRed[r] = true
	}

	order := e.cfg.nodeOrder()
	var best *pta.Node[I, O]
	seen := make(map[*pta.Node[I, O]]bool)

	for _, red := range e.reds {
		for _, outputs := range red.Transitions {
			for _, info := range outputs {
				target := info.Target
				if target == nil || isRed[target] || seen[target] {
					continue
				}
				seen[target] = true
				if best == nil || order(target, best) {
					best = target
				}
			}
		}
	}
	return best
}

// commit overwrites every real node's Transitions with its partition
// copy's Transitions and clears the cache: every previously computed
// trial may now be stale since the graph it was computed against no
// longer exists.
func (e *Engine[I, O]) commit(partitions map[*pta.Node[I, O]]*pta.Node[I, O]) {
	for real, partition := range partitions {
		real.Transitions = partition.Transitions
	}
	e.cache = make(map[pairKey[I, O]]partitionResult[I, O])
}

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
	"github.com/go-automata/stateforge/compat"
	"github.com/go-automata/stateforge/pta"
)

// computeLocalScore applies the mandatory checks spec.md §4.3 requires
// unconditionally — Moore output equality when OutputBehavior is moore,
// single-output agreement when TransitionBehavior is deterministic —
// before consulting the configured LocalScore. Either mandatory check
// failing rejects the pair outright; the configured scorer never even
// runs, since no value it could return would make the result fold into
// a deterministic or Moore-consistent automaton.
func (e *Engine[I, O]) computeLocalScore(a, b *pta.Node[I, O], info ScoreInfo) bool {
	if e.cfg.OutputBehavior == Moore && !compat.Moore(a, b) {
		return false
	}
	if e.cfg.TransitionBehavior == Deterministic && !compat.DeterministicTransitions(a, b) {
		return false
	}
	return e.cfg.LocalScore(a, b, info, e.cfg.EvalCompatOnPTA)
}

// checkFutures runs the non-mutating future-mode precheck: a BFS over
// (red, blue) pairs following either the live Target/Count links or, if
// EvalCompatOnPTA, the frozen OriginalTarget/OriginalCount ones, scoring
// every pair it reaches and short-circuiting on the first rejection.
func (e *Engine[I, O]) checkFutures(red, blue *pta.Node[I, O]) bool {
	info := ScoreInfo{}
	type pair struct{ red, blue *pta.Node[I, O] }
	queue := []pair{{red, blue}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if !e.computeLocalScore(cur.red, cur.blue, info) {
			return false
		}

		for input, blueOutputs := range cur.blue.Transitions {
			redOutputs, ok := cur.red.Transitions[input]
			if !ok {
				continue
			}
			for output, blueInfo := range blueOutputs {
				redInfo, ok := redOutputs[output]
				if !ok {
					continue
				}
				if e.cfg.EvalCompatOnPTA {
					if blueInfo.OriginalCount == 0 || redInfo.OriginalCount == 0 {
						continue
					}
					queue = append(queue, pair{redInfo.OriginalTarget, blueInfo.OriginalTarget})
				} else {
					queue = append(queue, pair{redInfo.Target, blueInfo.Target})
				}
			}
		}
	}
	return true
}

// partitionFromMerge builds the partitioning induced by folding blue
// into red, per spec.md §4.3's _partition_from_merge: a lazily
// shadow-copied set of partition nodes, rewired so the edge that used
// to lead to blue now leads to red, with blue's subtree folded into the
// corresponding red-side nodes breadth-first.
func (e *Engine[I, O]) partitionFromMerge(red, blue *pta.Node[I, O]) (bool, map[*pta.Node[I, O]]*pta.Node[I, O], GlobalScoreValue) {
	mode := e.cfg.CompatibilityBehavior

	if mode == Future {
		if !e.checkFutures(red, blue) && e.usingDefaultGlobalScore {
			return false, nil, GlobalScoreValue{}
		}
	}

	partitions := make(map[*pta.Node[I, O]]*pta.Node[I, O])
	created := make(map[*pta.Node[I, O]]*pta.Node[I, O])

	getPartition := func(realNode *pta.Node[I, O], alsoRealiasFor *pta.Node[I, O]) *pta.Node[I, O] {
		if realNode == nil {
			return nil
		}
		p, ok := partitions[realNode]
		if !ok {
			p = realNode.ShallowCopy()
			partitions[realNode] = p
			created[realNode] = p
		}
		if alsoRealiasFor != nil {
			partitions[alsoRealiasFor] = p
		}
		return p
	}

	if len(blue.Prefix) > 0 {
		parentSteps := blue.Prefix[:len(blue.Prefix)-1]
		lastStep := blue.Prefix[len(blue.Prefix)-1]
		parentNode := e.root.ByPrefix(parentSteps)
		if parentNode != nil {
			parentPartition := getPartition(parentNode, nil)
			if bucket, ok := parentPartition.Transitions[lastStep.Input]; ok {
				if info, ok := bucket[lastStep.Output]; ok {
					info.Target = red
				}
			}
		}
	}

	info := ScoreInfo{}

	type pair struct{ red, blue *pta.Node[I, O] }
	queue := []pair{{red, blue}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		partition := getPartition(cur.red, cur.blue)

		if mode == Partition {
			if !e.computeLocalScore(partition, cur.blue, info) {
				return false, nil, GlobalScoreValue{}
			}
		}

		for input, blueOutputs := range cur.blue.Transitions {
			partBucket := partition.Transitions[input]
			for output, blueInfo := range blueOutputs {
				if partBucket != nil {
					if partInfo, ok := partBucket[output]; ok {
						queue = append(queue, pair{partInfo.Target, blueInfo.Target})
						partInfo.Count += blueInfo.Count
						info.CountDelta += blueInfo.Count
						continue
					}
				}
				partition.AddTransition(input, output, &pta.TransitionInfo[I, O]{
					Target: blueInfo.Target,
					Count:  blueInfo.Count,
				})
				partBucket = partition.Transitions[input]
			}
		}
	}

	if mode == Merge {
		// partitions, not created: created only holds the red-side
		// shadow copies, so scoring it alone compares every partition
		// node's Output against itself (a ShallowCopy never changes
		// Output) and can never reject. partitions also carries one
		// entry per blue-side node aliased to its folded-in partition
		// copy (getPartition's alsoRealiasFor), which is what actually
		// exercises the Moore/local-score check against the blue
		// subtree being merged in.
		for realNode, partitionNode := range partitions {
			if !e.computeLocalScore(partitionNode, realNode, info) {
				return false, nil, GlobalScoreValue{}
			}
		}
	}

	info.MergesApplied = len(created)
	score := e.cfg.GlobalScore(created, info)
	return true, created, score
}

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

// Package kv implements the active Classification-Tree (KV-style) learner
// loop, per spec.md §4.5: maintain a hypothesis, issue equivalence
// queries against an Oracle, and refine the underlying classtree.Tree
// with each returned counterexample until the oracle reports none.
package kv

import (
	"context"

	"github.com/go-automata/stateforge/aerrors"
	"github.com/go-automata/stateforge/automaton"
	"github.com/go-automata/stateforge/classtree"
	"github.com/go-automata/stateforge/oracle"
	"github.com/go-automata/stateforge/sul"
	"github.com/go-automata/stateforge/telemetry"
)

// CexProcessing selects how a counterexample is turned into a tree
// split, per spec.md §4.4/§6: naive is the O(|cex|) linear scan, rs is
// the Rivest-Schapire O(log|cex|) binary search. Both produce the
// identical split; only the query count to find it differs.
type CexProcessing string

const (
	Naive CexProcessing = "naive"
	RS    CexProcessing = "rs"
)

// Config is the active learner's option surface: cex_processing,
// max_learning_rounds, and print_level (as DebugLevel). It has no
// pretty_state_names field; state naming is chosen at export time with
// automaton.WithPrettyNames.
type Config struct {
	CexProcessing CexProcessing

	// MaxLearningRounds caps the number of equivalence-query rounds;
	// nil means unbounded, matching spec.md §6's `int|none`.
	MaxLearningRounds *int

	DebugLevel int
}

func (c Config) validate() error {
	switch c.CexProcessing {
	case Naive, RS:
	default:
		return aerrors.ErrInvalidConfiguration.New("cex_processing", c.CexProcessing)
	}
	if c.MaxLearningRounds != nil && *c.MaxLearningRounds < 0 {
		return aerrors.ErrInvalidConfiguration.New("max_learning_rounds", *c.MaxLearningRounds)
	}
	return nil
}

// Info is the per-run instrumentation counters spec.md §9 names,
// grounded in original_source/aalpy/learning_algs/deterministic/KV.py's
// membership/equivalence/round bookkeeping.
type Info struct {
	MQCount        int
	EQCount        int
	Rounds         int
	ElapsedQueries int
}

// Learner owns one active run: the alphabet, the memoizing Sul it
// queries through, the Oracle it equivalence-checks against, and the
// classtree.Tree it refines round by round.
type Learner[I, O comparable] struct {
	alphabet []I
	cache    *sul.CacheSUL[I, O]
	oracle   oracle.Oracle[I, O]
	cfg      Config
	logger   *telemetry.Logger

	tree *classtree.Tree[I, O]
	info Info
}

// New constructs a Learner. The wrapped Sul is always run through a
// sul.CacheSUL so every membership query, including the ones the tree
// itself issues while sifting, is memoized and checked for
// non-determinism, per spec.md §4.6.
func New[I, O comparable](inner sul.Sul[I, O], o oracle.Oracle[I, O], alphabet []I, cfg Config, sulOpts ...sul.Option) (*Learner[I, O], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cache, err := sul.NewCacheSUL[I, O](inner, sulOpts...)
	if err != nil {
		return nil, err
	}
	return &Learner[I, O]{
		alphabet: append([]I{}, alphabet...),
		cache:    cache,
		oracle:   o,
		cfg:      cfg,
		logger:   telemetry.NewLogger("kv", cfg.DebugLevel),
	}, nil
}

// query is the sole membership-query primitive the loop issues
// through, both counting it in Info and tracing it as a suspension
// point per spec.md §5.
func (l *Learner[I, O]) query(ctx context.Context, seq []I) (out O, err error) {
	l.info.MQCount++
	l.info.ElapsedQueries += len(seq)
	traceErr := telemetry.TraceQuery(ctx, "kv.query", func(spanCtx context.Context) error {
		var qerr error
		out, qerr = queryLast(spanCtx, l.cache, seq)
		return qerr
	})
	return out, traceErr
}

func queryLast[I, O comparable](ctx context.Context, s sul.Sul[I, O], seq []I) (O, error) {
	if len(seq) == 0 {
		return s.InitialOutput(ctx)
	}
	outs, err := s.Query(ctx, seq)
	if err != nil {
		var zero O
		return zero, err
	}
	return outs[len(outs)-1], nil
}

// findCex issues one equivalence query, tracing it as a suspension
// point and validating the Oracle's contract per spec.md §6: if it
// returns a non-nil sequence, the cached Sul and hyp must actually
// disagree on it, or the oracle implementation itself is broken.
func (l *Learner[I, O]) findCex(ctx context.Context, hyp *automaton.Hypothesis[I, O]) (cex []I, err error) {
	l.info.EQCount++
	traceErr := telemetry.TraceQuery(ctx, "kv.findCex", func(spanCtx context.Context) error {
		var oerr error
		cex, oerr = l.oracle.FindCex(spanCtx, hyp)
		return oerr
	})
	if traceErr != nil {
		return nil, traceErr
	}
	if cex == nil {
		return nil, nil
	}
	sulOut, err := l.query(ctx, cex)
	if err != nil {
		return nil, err
	}
	if sulOut == hyp.Run(cex).Output {
		return nil, aerrors.ErrOracleMismatch.New(cex)
	}
	return cex, nil
}

// Run executes the loop described in spec.md §4.5 steps 2-5: query the
// empty sequence, build and equivalence-check the one-state hypothesis,
// and if a counterexample is found, seed the classification tree and
// loop refine/regenerate/re-check until the oracle returns nil or
// MaxLearningRounds is reached.
func (l *Learner[I, O]) Run(ctx context.Context) (*automaton.Hypothesis[I, O], Info, error) {
	initialOut, err := l.query(ctx, nil)
	if err != nil {
		return nil, l.info, err
	}

	initial := &automaton.State[I, O]{Access: []I{}, Output: initialOut, Transitions: make(map[I]*automaton.State[I, O], len(l.alphabet))}
	for _, a := range l.alphabet {
		initial.Transitions[a] = initial
	}
	hyp := &automaton.Hypothesis[I, O]{Initial: initial, States: []*automaton.State[I, O]{initial}}

	cex, err := l.findCex(ctx, hyp)
	if err != nil {
		return hyp, l.info, err
	}
	if cex == nil {
		l.logger.Resultf("one-state hypothesis already equivalent, nothing to learn")
		return hyp, l.info, nil
	}

	l.tree, err = classtree.New[I, O](ctx, l.alphabet, l.cache, cex, initialOut, l.cfg.DebugLevel)
	if err != nil {
		return hyp, l.info, err
	}

	for {
		if l.cfg.MaxLearningRounds != nil && l.info.Rounds >= *l.cfg.MaxLearningRounds {
			l.logger.Resultf("learning budget of %d rounds exhausted", *l.cfg.MaxLearningRounds)
			hyp, hypErr := l.tree.GenHypothesis(ctx)
			if hypErr != nil {
				return nil, l.info, hypErr
			}
			return hyp, l.info, aerrors.ErrBudgetExhausted.New(l.info.Rounds)
		}
		l.info.Rounds++

		hyp, err = l.tree.GenHypothesis(ctx)
		if err != nil {
			return nil, l.info, err
		}

		// counterexample_successfully_processed: the SUL's output on
		// the previous cex must now equal this hypothesis's prediction
		// before a fresh equivalence query is worth issuing.
		cexOut, err := l.query(ctx, cex)
		if err != nil {
			return hyp, l.info, err
		}
		if cexOut != hyp.Run(cex).Output {
			if err := l.refine(ctx, cex, hyp); err != nil {
				return hyp, l.info, err
			}
			continue
		}

		l.logger.Infof("round %d: hypothesis with %d states now predicts the previous counterexample correctly", l.info.Rounds, len(hyp.States))

		next, err := l.findCex(ctx, hyp)
		if err != nil {
			return hyp, l.info, err
		}
		if next == nil {
			l.logger.Resultf("converged after %d rounds with %d states", l.info.Rounds, len(hyp.States))
			return hyp, l.info, nil
		}
		cex = next
		if err := l.refine(ctx, cex, hyp); err != nil {
			return hyp, l.info, err
		}
	}
}

// refine dispatches to the configured counterexample-processing
// strategy, per spec.md §4.4/§6.
func (l *Learner[I, O]) refine(ctx context.Context, cex []I, hyp *automaton.Hypothesis[I, O]) error {
	switch l.cfg.CexProcessing {
	case RS:
		return l.tree.UpdateRS(ctx, cex, hyp)
	default:
		return l.tree.Update(ctx, cex, hyp)
	}
}

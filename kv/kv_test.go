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

package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-automata/stateforge/oracle/oracletest"
	"github.com/go-automata/stateforge/sul/sultest"
)

// tomita1 accepts strings over {0,1} consisting only of 1s (Tomita
// grammar 1), the smallest non-trivial target the KV loop's scenario 6
// (spec.md §8) is built on.
func tomita1() *sultest.DFA[string] {
	return sultest.NewDFA[string](
		0,
		map[int]map[string]int{
			0: {"0": 1, "1": 0},
			1: {"0": 1, "1": 1},
		},
		map[int]bool{0: true, 1: false},
	)
}

// tomita3 accepts strings over {a,b} in which every maximal run of
// consecutive b's has even length (spec.md §8 scenario 2's grammar): S0
// is the accepting "no b-run in progress, or current run even so far"
// state, S1 tracks an in-progress odd-length b-run (rejecting, since a
// query ending here makes that run maximal with odd length), and S2 is
// the permanent trap entered once an odd-length run is closed by an
// "a".
func tomita3() *sultest.DFA[string] {
	return sultest.NewDFA[string](
		0,
		map[int]map[string]int{
			0: {"a": 0, "b": 1},
			1: {"a": 2, "b": 0},
			2: {"a": 2, "b": 2},
		},
		map[int]bool{0: true, 1: false, 2: false},
	)
}

func mustMaxRounds(n int) *int { return &n }

func TestLearnerConvergesRSOnTomita3(t *testing.T) {
	ctx := context.Background()
	alphabet := []string{"a", "b"}

	o := oracletest.New[string, bool](alphabet, 7, tomita3())

	l, err := New[string, bool](tomita3(), o, alphabet, Config{CexProcessing: RS})
	require.NoError(t, err)

	hyp, info, err := l.Run(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, info.Rounds, 1)

	checker := oracletest.New[string, bool](alphabet, 7, tomita3())
	cex, err := checker.FindCex(ctx, hyp)
	require.NoError(t, err)
	require.Nil(t, cex, "learned hypothesis must agree with the every-b-run-even target up to depth 7")
}

func TestLearnerConvergesNaiveOnTomita1(t *testing.T) {
	ctx := context.Background()
	alphabet := []string{"0", "1"}

	target := tomita1()
	oracleSul := tomita1()
	o := oracletest.New[string, bool](alphabet, 6, oracleSul)

	l, err := New[string, bool](target, o, alphabet, Config{CexProcessing: Naive})
	require.NoError(t, err)

	hyp, info, err := l.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, hyp)
	require.GreaterOrEqual(t, info.EQCount, 1)

	checker := oracletest.New[string, bool](alphabet, 6, tomita1())
	cex, err := checker.FindCex(ctx, hyp)
	require.NoError(t, err)
	require.Nil(t, cex, "learned hypothesis must agree with the target up to depth 6")
}

func TestLearnerConvergesRSOnTomita1(t *testing.T) {
	ctx := context.Background()
	alphabet := []string{"0", "1"}

	o := oracletest.New[string, bool](alphabet, 6, tomita1())

	l, err := New[string, bool](tomita1(), o, alphabet, Config{CexProcessing: RS})
	require.NoError(t, err)

	hyp, _, err := l.Run(ctx)
	require.NoError(t, err)

	checker := oracletest.New[string, bool](alphabet, 6, tomita1())
	cex, err := checker.FindCex(ctx, hyp)
	require.NoError(t, err)
	require.Nil(t, cex)
}

func TestLearnerOneStateHypothesisAlreadyEquivalent(t *testing.T) {
	ctx := context.Background()
	alphabet := []string{"a"}

	s := sultest.NewFunc[string, bool](true, func(seq []string) bool { return true })
	o := oracletest.New[string, bool](alphabet, 3, sultest.NewFunc[string, bool](true, func(seq []string) bool { return true }))

	l, err := New[string, bool](s, o, alphabet, Config{CexProcessing: Naive})
	require.NoError(t, err)

	hyp, info, err := l.Run(ctx)
	require.NoError(t, err)
	require.Len(t, hyp.States, 1)
	require.Equal(t, 0, info.Rounds)
}

func TestLearnerBudgetExhaustedReturnsPartialHypothesis(t *testing.T) {
	ctx := context.Background()
	alphabet := []string{"0", "1"}

	o := oracletest.New[string, bool](alphabet, 8, tomita1())

	l, err := New[string, bool](tomita1(), o, alphabet, Config{CexProcessing: Naive, MaxLearningRounds: mustMaxRounds(0)})
	require.NoError(t, err)

	hyp, info, err := l.Run(ctx)
	require.Error(t, err)
	require.NotNil(t, hyp)
	require.Equal(t, 0, info.Rounds)
}

func TestInvalidCexProcessingRejected(t *testing.T) {
	alphabet := []string{"0", "1"}
	o := oracletest.New[string, bool](alphabet, 3, tomita1())

	_, err := New[string, bool](tomita1(), o, alphabet, Config{CexProcessing: "bogus"})
	require.Error(t, err)
}

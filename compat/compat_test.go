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

package compat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-automata/stateforge/pta"
)

func leaf(output string) *pta.Node[string, string] {
	return pta.NewNode[string, string](output, nil)
}

func withTransition(n *pta.Node[string, string], input, output string, count int) *pta.Node[string, string] {
	n.AddTransition(input, output, &pta.TransitionInfo[string, string]{
		Target: leaf(output), Count: count, OriginalCount: count,
	})
	return n
}

func TestMoore(t *testing.T) {
	a := leaf("x")
	b := leaf("x")
	c := leaf("y")
	require.True(t, Moore[string, string](a, b))
	require.False(t, Moore[string, string](a, c))
}

func TestDeterministicTransitions(t *testing.T) {
	a := withTransition(leaf(""), "i", "o1", 1)
	b := withTransition(leaf(""), "i", "o1", 1)
	require.True(t, DeterministicTransitions[string, string](a, b))

	c := withTransition(leaf(""), "i", "o2", 1)
	require.False(t, DeterministicTransitions[string, string](a, c))
}

func TestHoeffdingAcceptsCloseFrequencies(t *testing.T) {
	a := leaf("")
	a.AddTransition("flip", "H", &pta.TransitionInfo[string, string]{Target: leaf("H"), Count: 700, OriginalCount: 700})
	a.AddTransition("flip", "T", &pta.TransitionInfo[string, string]{Target: leaf("T"), Count: 300, OriginalCount: 300})

	b := leaf("")
	b.AddTransition("flip", "H", &pta.TransitionInfo[string, string]{Target: leaf("H"), Count: 68, OriginalCount: 68})
	b.AddTransition("flip", "T", &pta.TransitionInfo[string, string]{Target: leaf("T"), Count: 32, OriginalCount: 32})

	score := Hoeffding[string, string](0.05)
	require.True(t, score(a, b, nil, false))
}

func TestHoeffdingRejectsFarFrequencies(t *testing.T) {
	a := leaf("")
	a.AddTransition("flip", "H", &pta.TransitionInfo[string, string]{Target: leaf("H"), Count: 900, OriginalCount: 900})
	a.AddTransition("flip", "T", &pta.TransitionInfo[string, string]{Target: leaf("T"), Count: 100, OriginalCount: 100})

	b := leaf("")
	b.AddTransition("flip", "H", &pta.TransitionInfo[string, string]{Target: leaf("H"), Count: 10, OriginalCount: 10})
	b.AddTransition("flip", "T", &pta.TransitionInfo[string, string]{Target: leaf("T"), Count: 90, OriginalCount: 90})

	score := Hoeffding[string, string](0.05)
	require.False(t, score(a, b, nil, false))
}

func TestNonDeterministicSupport(t *testing.T) {
	a := leaf("")
	a.AddTransition("i", "o1", &pta.TransitionInfo[string, string]{Target: leaf("o1"), Count: 5, OriginalCount: 5})
	a.AddTransition("i", "o2", &pta.TransitionInfo[string, string]{Target: leaf("o2"), Count: 5, OriginalCount: 5})

	bSame := leaf("")
	bSame.AddTransition("i", "o1", &pta.TransitionInfo[string, string]{Target: leaf("o1"), Count: 3, OriginalCount: 3})
	bSame.AddTransition("i", "o2", &pta.TransitionInfo[string, string]{Target: leaf("o2"), Count: 7, OriginalCount: 7})

	score := NonDeterministicSupport[string, string](1)
	require.True(t, score(a, bSame, nil, false))

	bDiff := leaf("")
	bDiff.AddTransition("i", "o1", &pta.TransitionInfo[string, string]{Target: leaf("o1"), Count: 10, OriginalCount: 10})

	require.False(t, score(a, bDiff, nil, false))
}

func TestAdapt3(t *testing.T) {
	var calls int
	fn3 := Score3[string, string](func(a, b *pta.Node[string, string], _ any) bool {
		calls++
		return a.Output == b.Output
	})
	adapted := Adapt3[string, string](fn3)
	require.True(t, adapted(leaf("x"), leaf("x"), nil, true))
	require.Equal(t, 1, calls)
}

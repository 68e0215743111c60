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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-automata/stateforge/compat"
	"github.com/go-automata/stateforge/pta"
)

// buildBiasedCoin constructs the PTA for 1000 single-step "flip" traces,
// 700 outputting H and 300 outputting T — the sample spec.md §8 scenario
// 3 (Alergia on a biased coin) describes.
func buildBiasedCoin(t *testing.T) *pta.Node[string, string] {
	t.Helper()
	traces := make([]pta.Trace[string, string], 0, 1000)
	for i := 0; i < 700; i++ {
		traces = append(traces, pta.Trace[string, string]{Steps: []pta.Step[string, string]{{Input: "flip", Output: "H"}}})
	}
	for i := 0; i < 300; i++ {
		traces = append(traces, pta.Trace[string, string]{Steps: []pta.Step[string, string]{{Input: "flip", Output: "T"}}})
	}
	root, err := pta.Build[string, string](traces, pta.BuildOptions{Deterministic: false})
	require.NoError(t, err)
	return root
}

// TestAlergiaBiasedCoin exercises GSM(stochastic, future, Hoeffding),
// i.e. Alergia, over the biased-coin sample. The two single-step output
// branches have no further structure to disagree on, so the Hoeffding
// check never rejects and both fold into the root as a self-loop;
// spec.md §8 scenario 3 expects the resulting transition probabilities
// to land in [0.67, 0.73] and [0.27, 0.33].
func TestAlergiaBiasedCoin(t *testing.T) {
	root := buildBiasedCoin(t)

	eng, err := New[string, string](root, Config[string, string]{
		OutputBehavior:        Mealy,
		TransitionBehavior:    Stochastic,
		CompatibilityBehavior: Future,
		LocalScore:            compat.Hoeffding[string, string](0.05),
	})
	require.NoError(t, err)

	merged, err := eng.Run()
	require.NoError(t, err)

	require.Len(t, merged.AllNodes(), 1, "biased coin sample should collapse to a single self-looping state")

	outputs := merged.Transitions["flip"]
	require.Len(t, outputs, 2)

	hInfo, ok := outputs["H"]
	require.True(t, ok)
	require.Same(t, merged, hInfo.Target)
	require.Equal(t, 700, hInfo.Count)

	tInfo, ok := outputs["T"]
	require.True(t, ok)
	require.Same(t, merged, tInfo.Target)
	require.Equal(t, 300, tInfo.Count)

	total := float64(hInfo.Count + tInfo.Count)
	hFreq := float64(hInfo.Count) / total
	tFreq := float64(tInfo.Count) / total
	require.InDelta(t, 0.7, hFreq, 0.03)
	require.InDelta(t, 0.3, tFreq, 0.03)
}

// TestMooreMismatchBlocksMerge checks the mandatory Moore compatibility
// gate: two children of the root with distinct Output labels can never
// merge into the root (or into each other) no matter how permissive the
// configured local score is, so both are promoted to red and the
// automaton ends up with one state per distinct label.
func TestMooreMismatchBlocksMerge(t *testing.T) {
	root := pta.NewNode[string, string]("q0", nil)
	acc := pta.NewNode[string, string]("accept", []pta.Step[string, string]{{Input: "a", Output: "x"}})
	rej := pta.NewNode[string, string]("reject", []pta.Step[string, string]{{Input: "b", Output: "y"}})
	root.AddTransition("a", "x", &pta.TransitionInfo[string, string]{Target: acc, Count: 1, OriginalTarget: acc, OriginalCount: 1})
	root.AddTransition("b", "y", &pta.TransitionInfo[string, string]{Target: rej, Count: 1, OriginalTarget: rej, OriginalCount: 1})

	alwaysCompatible := func(a, b *pta.Node[string, string], _ any, _ bool) bool { return true }

	eng, err := New[string, string](root, Config[string, string]{
		OutputBehavior:        Moore,
		TransitionBehavior:    NonDeterministic,
		CompatibilityBehavior: Partition,
		LocalScore:            alwaysCompatible,
	})
	require.NoError(t, err)

	merged, err := eng.Run()
	require.NoError(t, err)
	require.Len(t, merged.AllNodes(), 3, "root, accept and reject must remain distinct states")
}

// TestMooreMismatchBlocksMergeInMergeMode is TestMooreMismatchBlocksMerge's
// counterpart for CompatibilityBehavior=Merge: the mandatory Moore check
// must still reject a blue node whose Output disagrees with the red
// state it would fold into, even though merge mode only scores once,
// after the whole partition is built, rather than per-pair during the
// walk (spec.md §4.3). This guards against scoring only the partition's
// own red-side shadow copies (whose Output never differs from the real
// node it copied), which would make the check vacuous and let a
// Moore-incompatible blue state merge silently.
func TestMooreMismatchBlocksMergeInMergeMode(t *testing.T) {
	root := pta.NewNode[string, string]("q0", nil)
	acc := pta.NewNode[string, string]("accept", []pta.Step[string, string]{{Input: "a", Output: "x"}})
	rej := pta.NewNode[string, string]("reject", []pta.Step[string, string]{{Input: "b", Output: "y"}})
	root.AddTransition("a", "x", &pta.TransitionInfo[string, string]{Target: acc, Count: 1, OriginalTarget: acc, OriginalCount: 1})
	root.AddTransition("b", "y", &pta.TransitionInfo[string, string]{Target: rej, Count: 1, OriginalTarget: rej, OriginalCount: 1})

	alwaysCompatible := func(a, b *pta.Node[string, string], _ any, _ bool) bool { return true }

	eng, err := New[string, string](root, Config[string, string]{
		OutputBehavior:        Moore,
		TransitionBehavior:    NonDeterministic,
		CompatibilityBehavior: Merge,
		LocalScore:            alwaysCompatible,
	})
	require.NoError(t, err)

	merged, err := eng.Run()
	require.NoError(t, err)
	require.Len(t, merged.AllNodes(), 3, "root, accept and reject must remain distinct states in merge mode too")
}

// TestConfigValidation covers the one documented cross-field rejection:
// eval_compat_on_pta combined with compatibility_behavior=merge.
func TestConfigValidation(t *testing.T) {
	_, err := New[string, string](pta.NewNode[string, string]("", nil), Config[string, string]{
		OutputBehavior:        Mealy,
		TransitionBehavior:    Deterministic,
		CompatibilityBehavior: Merge,
		LocalScore:            func(a, b *pta.Node[string, string], _ any, _ bool) bool { return true },
		EvalCompatOnPTA:       true,
	})
	require.Error(t, err)
}

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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-automata/stateforge/gsm"
	"github.com/go-automata/stateforge/kv"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadGSMConfigValid(t *testing.T) {
	path := writeYAML(t, `
output_behavior: moore
transition_behavior: deterministic
compatibility_behavior: future
epsilon: 0.05
debug_lvl: 2
`)
	cfg, err := LoadGSMConfig(path)
	require.NoError(t, err)
	require.Equal(t, gsm.Moore, cfg.OutputBehavior)
	require.Equal(t, 0.05, cfg.Epsilon)
}

func TestLoadGSMConfigRejectsUnknownEnum(t *testing.T) {
	path := writeYAML(t, `
output_behavior: loud
transition_behavior: deterministic
compatibility_behavior: future
`)
	_, err := LoadGSMConfig(path)
	require.Error(t, err)
}

func TestLoadGSMConfigRejectsEvalCompatOnPTAWithMerge(t *testing.T) {
	path := writeYAML(t, `
output_behavior: moore
transition_behavior: deterministic
compatibility_behavior: merge
eval_compat_on_pta: true
`)
	_, err := LoadGSMConfig(path)
	require.Error(t, err)
}

func TestLoadKVConfigValid(t *testing.T) {
	path := writeYAML(t, `
cex_processing: rs
max_learning_rounds: 50
pretty_state_names: true
print_level: 1
`)
	cfg, err := LoadKVConfig(path)
	require.NoError(t, err)
	require.Equal(t, kv.RS, cfg.CexProcessing)
	require.NotNil(t, cfg.MaxLearningRounds)
	require.Equal(t, 50, *cfg.MaxLearningRounds)
}

func TestLoadKVConfigUnboundedRounds(t *testing.T) {
	path := writeYAML(t, `
cex_processing: naive
`)
	cfg, err := LoadKVConfig(path)
	require.NoError(t, err)
	require.Nil(t, cfg.MaxLearningRounds)
}

func TestCoerceEpsilonFromString(t *testing.T) {
	f, err := CoerceEpsilon("0.025")
	require.NoError(t, err)
	require.Equal(t, 0.025, f)
}

func TestCoerceMaxLearningRoundsNilMeansUnbounded(t *testing.T) {
	n, err := CoerceMaxLearningRounds(nil)
	require.NoError(t, err)
	require.Nil(t, n)
}

func TestCoerceMaxLearningRoundsFromString(t *testing.T) {
	n, err := CoerceMaxLearningRounds("30")
	require.NoError(t, err)
	require.NotNil(t, n)
	require.Equal(t, 30, *n)
}

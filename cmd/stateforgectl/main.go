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

// Command stateforgectl is a thin driver over the passive GSM engine and
// the active KV learner: a flag-parsed main() gluing library packages
// together, not a library in its own right.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-automata/stateforge/automaton"
	"github.com/go-automata/stateforge/compat"
	"github.com/go-automata/stateforge/config"
	"github.com/go-automata/stateforge/gsm"
	"github.com/go-automata/stateforge/kv"
	"github.com/go-automata/stateforge/oracle/oracletest"
	"github.com/go-automata/stateforge/pta"
	"github.com/go-automata/stateforge/sul"
	"github.com/go-automata/stateforge/sul/sultest"
)

func main() {
	mode := flag.String("mode", "", "learning mode: gsm or kv")
	gsmConfigPath := flag.String("gsm-config", "", "path to a GSM option YAML file (gsm mode)")
	kvConfigPath := flag.String("kv-config", "", "path to a KV option YAML file (kv mode)")
	samplePath := flag.String("sample", "", "path to a newline-delimited sample file (gsm mode)")
	boltPath := flag.String("bolt-cache", "", "optional path to a durable bolt-backed membership query cache (kv mode)")
	maxDepth := flag.Int("oracle-max-depth", 6, "max sequence length the built-in exhaustive equivalence oracle explores (kv mode)")
	out := flag.String("out", "", "path to write the exported automaton; defaults to stdout")
	flag.Parse()

	if err := run(*mode, *gsmConfigPath, *kvConfigPath, *samplePath, *boltPath, *maxDepth, *out); err != nil {
		fmt.Fprintln(os.Stderr, "stateforgectl:", err)
		os.Exit(1)
	}
}

func run(mode, gsmConfigPath, kvConfigPath, samplePath, boltPath string, maxDepth int, out string) error {
	switch mode {
	case "gsm":
		return runGSM(gsmConfigPath, samplePath, out)
	case "kv":
		return runKV(kvConfigPath, boltPath, maxDepth, out)
	default:
		return fmt.Errorf("-mode must be %q or %q", "gsm", "kv")
	}
}

// runGSM loads a sample of whitespace-separated-symbol lines, builds a
// PTA, configures an Engine from a YAML GSM option file, runs it, and
// exports the result.
func runGSM(configPath, samplePath, out string) error {
	if samplePath == "" {
		return fmt.Errorf("-sample is required in gsm mode")
	}
	cfg, err := config.LoadGSMConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading gsm config: %w", err)
	}

	traces, err := readSample(samplePath)
	if err != nil {
		return fmt.Errorf("reading sample: %w", err)
	}

	buildOpts := pta.BuildOptions{
		Moore:         cfg.OutputBehavior == gsm.Moore,
		Deterministic: cfg.TransitionBehavior == gsm.Deterministic,
	}
	root, err := pta.Build[string, bool](traces, buildOpts)
	if err != nil {
		return fmt.Errorf("building PTA: %w", err)
	}

	engineCfg := gsm.Config[string, bool]{
		OutputBehavior:        cfg.OutputBehavior,
		TransitionBehavior:    cfg.TransitionBehavior,
		CompatibilityBehavior: cfg.CompatibilityBehavior,
		LocalScore:            localScoreFor(cfg),
		EvalCompatOnPTA:       cfg.EvalCompatOnPTA,
		DebugLevel:            cfg.DebugLevel,
	}
	engine, err := gsm.New(root, engineCfg)
	if err != nil {
		return fmt.Errorf("configuring gsm engine: %w", err)
	}

	merged, err := engine.Run()
	if err != nil {
		return fmt.Errorf("running gsm engine: %w", err)
	}

	exported := automaton.Export(merged, automaton.WithPrettyNames(true))
	return writeExported(exported, out)
}

// localScoreFor returns the configured LocalScore: the mandatory
// Moore/deterministic checks already run unconditionally inside the
// engine (gsm/partition.go's computeLocalScore), so a non-stochastic
// run's configured scorer only needs to accept everything that survives
// those; a stochastic run additionally requires Hoeffding-bound
// agreement, recovering the Alergia criterion.
func localScoreFor(cfg config.GSMConfig) compat.Score[string, bool] {
	if cfg.TransitionBehavior == gsm.Stochastic {
		return compat.Hoeffding[string, bool](cfg.Epsilon)
	}
	return func(a, b *pta.Node[string, bool], _ any, _ bool) bool { return true }
}

// readSample parses a newline-delimited sample file: each line is a
// trace, tokens are space-separated "input:output" pairs, and for
// Moore-mode samples the first token is instead "initial:output".
func readSample(path string) ([]pta.Trace[string, bool], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var traces []pta.Trace[string, bool]
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tokens := strings.Fields(line)
		var tr pta.Trace[string, bool]
		for _, tok := range tokens {
			parts := strings.SplitN(tok, ":", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("malformed sample token %q (want input:output)", tok)
			}
			out, err := strconv.ParseBool(parts[1])
			if err != nil {
				return nil, fmt.Errorf("malformed sample token %q: %w", tok, err)
			}
			if parts[0] == "initial" {
				tr.InitialOutput = out
				continue
			}
			tr.Steps = append(tr.Steps, pta.Step[string, bool]{Input: parts[0], Output: out})
		}
		traces = append(traces, tr)
	}
	return traces, nil
}

// runKV drives a bounded active-learning session against a built-in DFA
// over {0,1} accepting only strings of 1s (Tomita grammar 1), checked by
// the exhaustive oracle test double, since spec.md §1 puts a
// real equivalence oracle and SUL adapter out of scope for this core;
// stateforgectl's kv mode exists to exercise the loop end-to-end, not
// to replace a production client.
func runKV(configPath, boltPath string, maxDepth int, out string) error {
	cfg, err := config.LoadKVConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading kv config: %w", err)
	}

	alphabet := []string{"0", "1"}
	target := sultest.NewDFA[string](0,
		map[int]map[string]int{
			0: {"0": 1, "1": 0},
			1: {"0": 1, "1": 1},
		},
		map[int]bool{0: true, 1: false},
	)
	o := oracletest.New[string, bool](alphabet, maxDepth, sultest.NewDFA[string](0,
		map[int]map[string]int{
			0: {"0": 1, "1": 0},
			1: {"0": 1, "1": 1},
		},
		map[int]bool{0: true, 1: false},
	))

	var opts []sul.Option
	if boltPath != "" {
		opts = append(opts, sul.WithBoltStore(boltPath, "stateforgectl"))
	}

	learner, err := kv.New[string, bool](target, o, alphabet, kv.Config{
		CexProcessing:     cfg.CexProcessing,
		MaxLearningRounds: cfg.MaxLearningRounds,
		DebugLevel:        cfg.PrintLevel,
	}, opts...)
	if err != nil {
		return fmt.Errorf("configuring kv learner: %w", err)
	}

	hyp, info, err := learner.Run(context.Background())
	if err != nil && hyp == nil {
		return fmt.Errorf("running kv learner: %w", err)
	}
	fmt.Fprintf(os.Stderr, "stateforgectl: %d membership queries, %d equivalence queries, %d rounds\n", info.MQCount, info.EQCount, info.Rounds)

	exported := automaton.ExportHypothesis(hyp, automaton.WithPrettyNames(cfg.PrettyStateNames))
	return writeExported(exported, out)
}

func writeExported[I, O comparable](exported *automaton.ExportedAutomaton[I, O], out string) error {
	w := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	fmt.Fprintf(w, "initial: %s\n", exported.Initial)
	for _, s := range exported.States {
		fmt.Fprintf(w, "state %s output=%v\n", s.Name, s.Output)
		for in, target := range s.Transitions {
			fmt.Fprintf(w, "  %v -> %s\n", in, target)
		}
		for in, dist := range s.Distributions {
			for sym, stat := range dist {
				fmt.Fprintf(w, "  %v / %v: count=%d p=%.4f [%.4f,%.4f] -> %s\n", in, sym, stat.Count, stat.Probability, stat.LowerBound, stat.UpperBound, stat.Target)
			}
		}
	}
	return nil
}

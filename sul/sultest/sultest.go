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

// Package sultest provides in-memory sul.Sul test doubles: exact
// stand-ins for a wire-connected SUL, built from a plain function or a
// deterministic finite-state table, so learner tests never touch a
// network.
package sultest

import "context"

// Func adapts a pure function of the full sequence-so-far into a
// sul.Sul, resetting its internal cursor on Reset.
type Func[I, O comparable] struct {
	Step_   func(sequence []I) O
	Initial O

	seq []I
}

func NewFunc[I, O comparable](initial O, step func(sequence []I) O) *Func[I, O] {
	return &Func[I, O]{Step_: step, Initial: initial}
}

func (f *Func[I, O]) InitialOutput(ctx context.Context) (O, error) {
	return f.Initial, nil
}

func (f *Func[I, O]) Reset(ctx context.Context) error {
	f.seq = f.seq[:0]
	return nil
}

func (f *Func[I, O]) Step(ctx context.Context, input I) (O, error) {
	f.seq = append(f.seq, input)
	return f.Step_(f.seq), nil
}

func (f *Func[I, O]) Query(ctx context.Context, sequence []I) ([]O, error) {
	if err := f.Reset(ctx); err != nil {
		return nil, err
	}
	outputs := make([]O, len(sequence))
	for i, in := range sequence {
		out, err := f.Step(ctx, in)
		if err != nil {
			return nil, err
		}
		outputs[i] = out
	}
	return outputs, nil
}

// DFA is a table-driven deterministic finite automaton SUL: states are
// plain ints, Transitions maps (state, input) to the next state, and
// Accepting marks which states output true.
type DFA[I comparable] struct {
	Initial     int
	Transitions map[int]map[I]int
	Accepting   map[int]bool

	current int
}

func NewDFA[I comparable](initial int, transitions map[int]map[I]int, accepting map[int]bool) *DFA[I] {
	return &DFA[I]{Initial: initial, Transitions: transitions, Accepting: accepting, current: initial}
}

func (d *DFA[I]) InitialOutput(ctx context.Context) (bool, error) {
	return d.Accepting[d.Initial], nil
}

func (d *DFA[I]) Reset(ctx context.Context) error {
	d.current = d.Initial
	return nil
}

func (d *DFA[I]) Step(ctx context.Context, input I) (bool, error) {
	if next, ok := d.Transitions[d.current][input]; ok {
		d.current = next
	}
	return d.Accepting[d.current], nil
}

func (d *DFA[I]) Query(ctx context.Context, sequence []I) ([]bool, error) {
	if err := d.Reset(ctx); err != nil {
		return nil, err
	}
	outputs := make([]bool, len(sequence))
	for i, in := range sequence {
		out, err := d.Step(ctx, in)
		if err != nil {
			return nil, err
		}
		outputs[i] = out
	}
	return outputs, nil
}

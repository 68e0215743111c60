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

// Package telemetry is the ambient logging and tracing layer shared by
// the gsm and kv engines.
//
// A Logger is a thin, instance-held wrapper over a *logrus.Entry rather
// than a package-level logrus facade, because two concurrent
// gsm.Engine/kv.Learner instances must not share one global verbosity
// level; debug gating is an ordinary `if l.level >= N` check inside each
// Logger method rather than a decorator, since logging is not on a hot
// path.
package telemetry

import (
	"github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

// Logger wraps a leveled logrus.Entry tagged with a run identity.
type Logger struct {
	entry *logrus.Entry
	level int
}

// NewLogger builds a Logger for the named component ("gsm", "kv", ...)
// tagged with a freshly generated run ID, at the given verbosity level.
// Higher levels log more; 0 disables all logging and 1 logs results only.
func NewLogger(component string, level int) *Logger {
	runID := uuid.NewV4()
	entry := logrus.WithFields(logrus.Fields{
		"component": component,
		"run_id":    runID.String(),
	})
	return &Logger{entry: entry, level: level}
}

// RunID returns the UUID tagging this logger's run, suitable for
// attaching to an exported automaton's metadata so two exports from two
// runs over the same sample can be told apart.
func (l *Logger) RunID() string {
	if id, ok := l.entry.Data["run_id"].(string); ok {
		return id
	}
	return ""
}

// Level reports the configured verbosity.
func (l *Logger) Level() int { return l.level }

// Debugf logs at level >= 3 (the KV loop's "educational/debug" level,
// and the GSM engine's per-merge trace).
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.level >= 3 {
		l.entry.Debugf(format, args...)
	}
}

// Infof logs at level >= 2 (round/merge progress).
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.level >= 2 {
		l.entry.Infof(format, args...)
	}
}

// Resultf logs at level >= 1 (final results only).
func (l *Logger) Resultf(format string, args ...interface{}) {
	if l.level >= 1 {
		l.entry.Infof(format, args...)
	}
}

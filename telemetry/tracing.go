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

package telemetry

import (
	"context"

	opentracing "github.com/opentracing/opentracing-go"
)

// TraceQuery wraps a blocking call into a Sul or Oracle in an OpenTracing
// span. These calls are exactly the "suspension points" the concurrency
// model calls out: the learner blocks on them and does not resume other
// work while one is outstanding, which makes them the natural unit of
// tracing. With no tracer installed, opentracing.GlobalTracer() is a
// no-op and this costs a couple of interface calls.
func TraceQuery(ctx context.Context, operationName string, fn func(context.Context) error) error {
	span, spanCtx := opentracing.StartSpanFromContext(ctx, operationName)
	defer span.Finish()
	return fn(spanCtx)
}

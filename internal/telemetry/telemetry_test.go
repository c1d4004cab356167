/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitDisabledIsNoop(t *testing.T) {
	p, err := Init(context.Background(), Config{Enabled: false, Endpoint: "localhost:4318"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil provider when disabled")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("nil shutdown: %v", err)
	}

	p, err = Init(context.Background(), Config{Enabled: true})
	if err != nil || p != nil {
		t.Fatalf("enabled without endpoint should be a no-op: %v %v", p, err)
	}
}

func TestNewWithExporterRecordsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	exp := tracetest.NewInMemoryExporter()
	p := NewWithExporter("canvas-test", exp)

	_, span := Tracer("gocanvas/test").Start(context.Background(), "history.commit")
	span.SetAttributes(attribute.Int("undo_depth", 1))
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("want 1 span, got %d", len(spans))
	}
	if spans[0].Name != "history.commit" {
		t.Fatalf("span name: %q", spans[0].Name)
	}
	var svc string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			svc = kv.Value.AsString()
		}
	}
	if svc != "canvas-test" {
		t.Fatalf("service.name: %q", svc)
	}

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}

func TestResourceDefaultsServiceName(t *testing.T) {
	r := Resource("  ")
	found := false
	for _, kv := range r.Attributes() {
		if kv.Key == "service.name" && kv.Value.AsString() == DefaultServiceName {
			found = true
		}
	}
	if !found {
		t.Fatalf("default service name missing: %v", r.Attributes())
	}
}

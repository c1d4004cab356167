/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry installs an opt-in OpenTelemetry tracer provider.
// Packages create spans through otel.Tracer; with telemetry disabled those
// spans go to the global no-op provider.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	applog "gocanvas/internal/log"
	"gocanvas/internal/version"
)

// DefaultServiceName is reported when Config.ServiceName is empty.
const DefaultServiceName = "gocanvas"

// Config holds runtime configuration for tracing.
// Tracing is strictly opt-in and disabled by default.
type Config struct {
	Enabled     bool
	Endpoint    string // host:port or URL of an OTLP/HTTP collector
	ServiceName string
	Insecure    bool // plain HTTP, for local collectors
}

// Provider wraps the installed SDK tracer provider.
// A nil *Provider is valid and does nothing.
type Provider struct {
	tp   *sdktrace.TracerProvider
	once sync.Once
	err  error
}

// Init installs a global tracer provider exporting over OTLP/HTTP.
// It returns a nil Provider when telemetry is disabled or no endpoint is set.
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	l := applog.WithComponent("telemetry")
	if !cfg.Enabled || strings.TrimSpace(cfg.Endpoint) == "" {
		l.Debug("tracing disabled")
		return nil, nil
	}
	opts := []otlptracehttp.Option{}
	ep := strings.TrimSpace(cfg.Endpoint)
	if strings.Contains(ep, "://") {
		opts = append(opts, otlptracehttp.WithEndpointURL(ep))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(ep))
	}
	if cfg.Insecure || strings.HasPrefix(ep, "http://") {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	p := install(cfg.ServiceName, sdktrace.WithBatcher(exp))
	l.Info("tracing enabled", slog.String("endpoint", ep))
	return p, nil
}

// NewWithExporter installs a provider that exports synchronously to exp.
// It is meant for tests and tools that inspect spans in-process.
func NewWithExporter(serviceName string, exp sdktrace.SpanExporter) *Provider {
	return install(serviceName, sdktrace.WithSyncer(exp))
}

func install(serviceName string, export sdktrace.TracerProviderOption) *Provider {
	tp := sdktrace.NewTracerProvider(export, sdktrace.WithResource(Resource(serviceName)))
	otel.SetTracerProvider(tp)
	return &Provider{tp: tp}
}

// Resource describes this process to the collector.
func Resource(serviceName string) *resource.Resource {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = DefaultServiceName
	}
	return resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version.String()),
		attribute.String("os.type", runtime.GOOS),
		attribute.String("host.arch", runtime.GOARCH),
	)
}

// Tracer returns a named tracer from the current global provider.
func Tracer(name string) trace.Tracer { return otel.Tracer(name) }

// Shutdown flushes pending spans and stops the provider. It is idempotent.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	p.once.Do(func() {
		p.err = errors.Join(p.tp.ForceFlush(ctx), p.tp.Shutdown(ctx))
	})
	return p.err
}

// Package telemetry adapts OpenTelemetry tracing to the engine ports.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/stache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ sdktrace.SpanProcessor = (*Bridge)(nil)

// Bridge is a span processor that turns span lifecycles into reporter calls,
// so the watch output sees every rebuild, batch and render as it happens.
type Bridge struct {
	reporter ports.Reporter
}

// NewBridge returns a Bridge reporting to reporter. A nil reporter drops everything.
func NewBridge(reporter ports.Reporter) *Bridge {
	return &Bridge{reporter: reporter}
}

// OnStart reports the span with its parent's ID, if the parent is a live span.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	id, ok := b.spanID(s.SpanContext())
	if !ok {
		return
	}

	parentID := ""
	if psc := trace.SpanContextFromContext(parent); psc.IsValid() {
		parentID = psc.SpanID().String()
	}
	b.reporter.OnTaskStart(id, parentID, s.Name(), s.StartTime())
}

// OnEnd reports completion. An error status becomes an error carrying the
// status description and the span name.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	id, ok := b.spanID(s.SpanContext())
	if !ok {
		return
	}
	b.reporter.OnTaskComplete(id, s.EndTime(), spanError(s))
}

func (b *Bridge) spanID(sc trace.SpanContext) (string, bool) {
	if b.reporter == nil || !sc.IsValid() {
		return "", false
	}
	return sc.SpanID().String(), true
}

func spanError(s sdktrace.ReadOnlySpan) error {
	status := s.Status()
	if status.Code != codes.Error {
		return nil
	}
	desc := status.Description
	if desc == "" {
		desc = s.Name() + " failed"
	}
	return zerr.With(zerr.New(desc), "span", s.Name())
}

// ForceFlush is a no-op; reporting is synchronous.
func (b *Bridge) ForceFlush(context.Context) error { return nil }

// Shutdown is a no-op.
func (b *Bridge) Shutdown(context.Context) error { return nil }

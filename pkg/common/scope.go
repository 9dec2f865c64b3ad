// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	traceIdLogField = "traceID"
	stepLogField    = "step"
	tracerName      = "roster-reconciliation"
)

// NewScope starts a span named name under ctx and pairs it with a logger carrying the
// trace id.
func NewScope(ctx context.Context, name string) *Scope {
	tracerCtx, span := otel.Tracer(tracerName).Start(ctx, name)
	traceID := span.SpanContext().TraceID().String()

	return &Scope{
		Ctx:     tracerCtx,
		TraceID: traceID,
		Name:    name,
		span:    span,
		started: time.Now(),
		Log:     log.WithField(traceIdLogField, traceID),
	}
}

// Scope carries the context, span and logger of one pipeline operation through the
// functions it calls.
type Scope struct {
	Ctx     context.Context
	TraceID string
	Name    string
	span    oteltrace.Span
	started time.Time
	Log     *log.Entry
}

// Finish ends the span and returns how long the scope was open.
func (s *Scope) Finish() time.Duration {
	s.span.End()
	return time.Since(s.started)
}

// TraceEvent adds a named event to the span.
func (s *Scope) TraceEvent(eventMessage string) {
	s.span.AddEvent(eventMessage)
}

// TraceError records err on the span and marks it failed.
func (s *Scope) TraceError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttributes adds an attribute to the span based on the value type. Unsupported types
// are logged and skipped.
func (s *Scope) SetAttributes(key string, value interface{}) {
	switch v := value.(type) {
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	default:
		s.Log.Errorf("could not set a span attribute of type %T", value)
	}
}

// NewChildScope starts a child span for one pipeline step. The step name is added to
// the logger.
func (s *Scope) NewChildScope(name string) *Scope {
	ctx, span := s.span.TracerProvider().Tracer(tracerName).Start(s.Ctx, name)

	return &Scope{
		Ctx:     ctx,
		TraceID: s.TraceID,
		Name:    name,
		span:    span,
		started: time.Now(),
		Log:     s.Log.WithField(stepLogField, name),
	}
}

// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// slogExporter bridges OTel log records onto a [slog.Handler]. It backs the
// default configuration where no OTLP log target is set, so records still
// land on stdout.
type slogExporter struct {
	handler slog.Handler
}

// Export implements log.Exporter.
func (s *slogExporter) Export(ctx context.Context, records []sdklog.Record) error {
	for _, record := range records {
		err := s.handler.Handle(ctx, slogRecord(record))
		if err != nil {
			return err
		}
	}
	return nil
}

// ForceFlush implements log.Exporter.
func (s *slogExporter) ForceFlush(context.Context) error {
	return nil
}

// Shutdown implements log.Exporter.
func (s *slogExporter) Shutdown(context.Context) error {
	return nil
}

func slogRecord(record sdklog.Record) slog.Record {
	const sevOffset = log.SeverityDebug - log.Severity(slog.LevelDebug)

	sr := slog.Record{
		Time:    record.Timestamp(),
		Level:   slog.Level(record.Severity() - sevOffset),
		Message: record.Body().AsString(),
	}

	record.WalkAttributes(func(kv log.KeyValue) bool {
		sr.AddAttrs(slog.Attr{
			Key:   kv.Key,
			Value: slogValue(kv.Value),
		})
		return true
	})

	sr.AddAttrs(slog.Group(
		"otel",
		slog.String("trace.id", record.TraceID().String()),
		slog.String("span.id", record.SpanID().String()),
	))
	return sr
}

func slogValue(v log.Value) slog.Value {
	switch v.Kind() {
	case log.KindBool:
		return slog.BoolValue(v.AsBool())
	case log.KindBytes:
		return slog.AnyValue(v.AsBytes())
	case log.KindFloat64:
		return slog.Float64Value(v.AsFloat64())
	case log.KindInt64:
		return slog.Int64Value(v.AsInt64())
	case log.KindMap:
		kvs := v.AsMap()
		attrs := make([]slog.Attr, len(kvs))
		for i, kv := range kvs {
			attrs[i] = slog.Attr{
				Key:   kv.Key,
				Value: slogValue(kv.Value),
			}
		}
		return slog.GroupValue(attrs...)
	case log.KindSlice:
		vs := v.AsSlice()
		vals := make([]slog.Value, len(vs))
		for i := range vs {
			vals[i] = slogValue(vs[i])
		}
		return slog.AnyValue(vals)
	case log.KindString:
		return slog.StringValue(v.AsString())
	default:
		return slog.StringValue(v.String())
	}
}

package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "create_invoice", true, 20*time.Millisecond)
	rec.Observe(ctx, "create_invoice", true, 30*time.Millisecond)
	rec.Observe(ctx, "create_invoice", false, 5*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second) // ignored

	snap := rec.Snapshot()
	if snap.Results["create_invoice"]["success"] != 2 || snap.Results["create_invoice"]["error"] != 1 {
		t.Fatalf("unexpected result counters: %+v", snap.Results)
	}
	if snap.DurationsMS["create_invoice"] != 55 {
		t.Fatalf("expected 55ms total, got %v", snap.DurationsMS)
	}
	if rec.Name() == "" || !strings.HasPrefix(rec.Name(), "stillcore_service_metrics_") {
		t.Fatalf("unexpected generated name %q", rec.Name())
	}
}

func TestJSONTracerEncodesSpans(t *testing.T) {
	buf := &bytes.Buffer{}
	tracer := NewJSONTracer(buf)
	ctx := context.Background()

	_, span := tracer.Start(ctx, "close_production_run")
	span.End(nil)
	_, span = tracer.Start(ctx, "create_invoice")
	span.End(errors.New("customer 99 not found"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(entries))
	}
	if entries[0].Status != "success" || entries[1].Status != "error" {
		t.Fatalf("unexpected statuses: %+v", entries)
	}
	if entries[1].Error != "customer 99 not found" {
		t.Fatalf("unexpected error detail: %+v", entries[1])
	}

	dec := json.NewDecoder(buf)
	var decoded JSONTraceEntry
	if err := dec.Decode(&decoded); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if decoded.Operation != "close_production_run" {
		t.Fatalf("unexpected first encoded span: %+v", decoded)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()

	rec.Observe(ctx, "create_invoice", true, 10*time.Millisecond)
	rec.Observe(ctx, "create_invoice", false, 10*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second) // ignored

	success := testutil.ToFloat64(rec.results.WithLabelValues("create_invoice", "success"))
	failure := testutil.ToFloat64(rec.results.WithLabelValues("create_invoice", "error"))
	if success != 1 || failure != 1 {
		t.Fatalf("unexpected counters: success=%v error=%v", success, failure)
	}
	if count := testutil.CollectAndCount(rec.durations); count != 1 {
		t.Fatalf("expected one histogram series, got %d", count)
	}

	// Registering a second recorder against the same registry must fail.
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestSlogLoggerAdapter(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logger.Debug("debug msg", "k", "v")
	logger.Info("info msg")
	logger.Warn("warn msg")
	logger.Error("error msg", "error", "boom")

	out := buf.String()
	for _, want := range []string{"debug msg", "info msg", "warn msg", "error msg", `"error":"boom"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
}

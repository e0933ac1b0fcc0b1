package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestInit_NoDSN(t *testing.T) {
	flush, err := Init(Config{}, nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if flush == nil {
		t.Fatal("expected a flush function")
	}
	flush()
}

func TestInit_InvalidDSNContinues(t *testing.T) {
	flush, err := Init(Config{DSN: "not a dsn"}, zap.NewNop())
	if err != nil {
		t.Fatalf("invalid DSN should not fail startup: %v", err)
	}
	flush()
}

func TestReportingWithoutClient(t *testing.T) {
	ctx := context.Background()
	CaptureError(ctx, errors.New("boom"))
	CaptureError(ctx, nil)
	AddBreadcrumb(ctx, "ingest", "loading index")

	spanCtx, span := StartSpan(ctx, "pipeline.ingest", "ingest FAQ.pdf")
	if spanCtx == nil {
		t.Fatal("expected a span context")
	}
	_, child := StartSpan(spanCtx, "pipeline.parse", "parse")
	child.SetError(errors.New("parse failed"))
	child.End()
	span.End()

	var empty Span
	empty.SetError(errors.New("x"))
	empty.End()
}

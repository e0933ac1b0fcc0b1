// Package telemetry reports pipeline failures and traces to Sentry.
package telemetry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const serviceName = "banglaqa"

// Config holds the configuration for Sentry initialization.
type Config struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
	Debug            bool
}

// Init initializes Sentry. It returns a function that flushes pending events.
// With an empty DSN nothing is initialized and the flush function is a no-op.
// An invalid DSN is logged and the pipeline continues without reporting.
func Init(cfg Config, logger *zap.Logger) (func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DSN == "" {
		return func() {}, nil
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate == 0 {
		cfg.TracesSampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		ServerName:       serviceName,
	})
	if err != nil {
		logger.Warn("sentry: failed to initialize, continuing without error reporting", zap.Error(err))
		return func() {}, nil
	}

	logger.Info("sentry initialized", zap.String("environment", cfg.Environment))
	return func() {
		sentry.Flush(5 * time.Second)
	}, nil
}

// Span wraps sentry.Span. A nil inner span makes every method a no-op.
type Span struct {
	inner *sentry.Span
}

// End finishes the span.
func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

// SetError marks the span as failed. The error itself is reported with CaptureError.
func (s *Span) SetError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	s.inner.SetData("error", err.Error())
}

// StartSpan starts a child of the span in ctx, or a new transaction when there is none.
func StartSpan(ctx context.Context, op, name string) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(op, sentry.WithDescription(name))
	} else {
		span = sentry.StartSpan(ctx, op, sentry.WithTransactionName(name))
	}
	return span.Context(), &Span{inner: span}
}

// CaptureError sends err to Sentry using the hub in ctx if there is one.
func CaptureError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

// AddBreadcrumb records a pipeline step on the current scope.
func AddBreadcrumb(ctx context.Context, category, message string) {
	breadcrumb := &sentry.Breadcrumb{
		Type:      "default",
		Category:  category,
		Message:   message,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.AddBreadcrumb(breadcrumb, nil)
		return
	}
	sentry.AddBreadcrumb(breadcrumb)
}

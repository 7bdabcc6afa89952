package sheet

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-ledger-bot/internal/observability"
)

// Instrumented records a span, a latency observation, and an outcome counter
// for every call to the wrapped store, and bounds each call by Timeout.
type Instrumented struct {
	Next    Store
	Backend string
	Timeout time.Duration
}

func (s *Instrumented) GetRows(ctx context.Context, rng Range) ([][]string, error) {
	var rows [][]string
	err := s.do(ctx, "get_rows", rng.String(), func(ctx context.Context) error {
		var err error
		rows, err = s.Next.GetRows(ctx, rng)
		return err
	})
	return rows, err
}

func (s *Instrumented) UpdateCell(ctx context.Context, ref CellRef, value string) error {
	return s.do(ctx, "update_cell", ref.String(), func(ctx context.Context) error {
		return s.Next.UpdateCell(ctx, ref, value)
	})
}

func (s *Instrumented) BatchUpdate(ctx context.Context, updates []CellUpdate) error {
	return s.do(ctx, "batch_update", "", func(ctx context.Context) error {
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("ledger.batch_size", len(updates)))
		return s.Next.BatchUpdate(ctx, updates)
	})
}

func (s *Instrumented) AppendRow(ctx context.Context, sheetName string, values []string) error {
	return s.do(ctx, "append_row", sheetName, func(ctx context.Context) error {
		return s.Next.AppendRow(ctx, sheetName, values)
	})
}

func (s *Instrumented) do(ctx context.Context, op, target string, fn func(context.Context) error) error {
	tr := otel.Tracer("sheet/Store")
	ctx, span := tr.Start(ctx, op,
		trace.WithAttributes(
			attribute.String("ledger.backend", s.Backend),
			attribute.String("ledger.target", target),
		),
	)
	defer span.End()

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	observability.LedgerStoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	observability.LedgerStoreOps.WithLabelValues(op, observability.OutcomeLabel(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

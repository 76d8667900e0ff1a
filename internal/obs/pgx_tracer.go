package obs

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type pgxSpanKey struct{}

// PGXTracer implements pgx.QueryTracer, creating one span per SQL statement.
// Spans are named "sql.<verb> <table>" so traces of a sale recording read as
// the sequence of inserts the transaction performs.
type PGXTracer struct{}

// TraceQueryStart opens the span for the statement.
func (PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	verb, table := statementShape(data.SQL)
	name := "sql." + verb
	if table != "" {
		name += " " + table
	}
	ctx, span := otel.Tracer("db.pgx").Start(ctx, name)
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", verb),
		attribute.String("db.statement", truncateSQL(data.SQL)),
	)
	if table != "" {
		span.SetAttributes(attribute.String("db.sql.table", table))
	}
	return context.WithValue(ctx, pgxSpanKey{}, span)
}

// TraceQueryEnd closes the span, recording any error.
func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	if span, ok := ctx.Value(pgxSpanKey{}).(trace.Span); ok {
		if data.Err != nil {
			span.RecordError(data.Err)
			span.SetStatus(codes.Error, data.Err.Error())
		}
		span.End()
	}
}

// statementShape picks the verb and target table out of the statement. Only
// the simple statement forms this service issues are recognised; anything
// else reports the verb alone.
func statementShape(sql string) (verb, table string) {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown", ""
	}
	verb = strings.ToLower(fields[0])
	for i, f := range fields[:len(fields)-1] {
		switch strings.ToLower(f) {
		case "into", "update", "from":
			if candidate := strings.ToLower(strings.Trim(fields[i+1], `"(`)); candidate != "" {
				return verb, candidate
			}
		}
		if i >= 6 {
			break
		}
	}
	return verb, ""
}

func truncateSQL(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) > 300 {
		return trimmed[:300] + "..."
	}
	return trimmed
}

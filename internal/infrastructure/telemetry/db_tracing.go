package telemetry

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// RegisterDBTracing installs the otelgorm plugin so every query becomes a
// child span of the request. Query variables are never recorded.
func RegisterDBTracing(db *gorm.DB, dbSystem string) error {
	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return fmt.Errorf("register otelgorm: %w", err)
	}

	tagTable := func(tx *gorm.DB) {
		if tx.Statement.Context == nil || tx.Statement.Table == "" {
			return
		}
		span := trace.SpanFromContext(tx.Statement.Context)
		if span.IsRecording() {
			span.SetAttributes(
				attribute.String("db.sql.table", tx.Statement.Table),
				attribute.Int64("db.rows_affected", tx.Statement.RowsAffected),
			)
		}
	}
	if err := db.Callback().Query().After("gorm:query").Register("ledger:span_table_query", tagTable); err != nil {
		return err
	}
	return db.Callback().Update().After("gorm:update").Register("ledger:span_table_update", tagTable)
}

package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	types "github.com/yungbote/roadwatch-backend/internal/domain"
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

const meterName = "roadwatch/services"

type serviceMetrics struct {
	transitions metric.Int64Counter
	coins       metric.Int64Counter
	dbscan      metric.Float64Histogram
}

// newServiceMetrics binds instruments to the current global meter provider.
// A failed instrument is replaced by otel with a no-op, so errors only log.
func newServiceMetrics(log *logger.Logger) *serviceMetrics {
	meter := otel.Meter(meterName)
	m := &serviceMetrics{}
	var err error
	if m.transitions, err = meter.Int64Counter("roadwatch.report.transitions",
		metric.WithDescription("Report status transitions applied"),
	); err != nil {
		log.Warn("metric init failed", "metric", "roadwatch.report.transitions", "error", err)
	}
	if m.coins, err = meter.Int64Counter("roadwatch.reward.coins",
		metric.WithDescription("Coins credited to report authors"),
		metric.WithUnit("{cent}"),
	); err != nil {
		log.Warn("metric init failed", "metric", "roadwatch.reward.coins", "error", err)
	}
	if m.dbscan, err = meter.Float64Histogram("roadwatch.dbscan.duration",
		metric.WithDescription("Time to cluster validated reports"),
		metric.WithUnit("ms"),
	); err != nil {
		log.Warn("metric init failed", "metric", "roadwatch.dbscan.duration", "error", err)
	}
	return m
}

func (m *serviceMetrics) transition(ctx context.Context, to types.ReportStatus) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(to))))
}

func (m *serviceMetrics) credited(ctx context.Context, cents int64) {
	if m == nil || m.coins == nil {
		return
	}
	m.coins.Add(ctx, cents)
}

func (m *serviceMetrics) clustered(ctx context.Context, ms float64, points int) {
	if m == nil || m.dbscan == nil {
		return
	}
	m.dbscan.Record(ctx, ms, metric.WithAttributes(attribute.Int("points", points)))
}

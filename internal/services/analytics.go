package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/roadwatch-backend/internal/cluster"
	"github.com/yungbote/roadwatch-backend/internal/data/repos"
	types "github.com/yungbote/roadwatch-backend/internal/domain"
	"github.com/yungbote/roadwatch-backend/internal/geo"
	"github.com/yungbote/roadwatch-backend/internal/platform/dbctx"
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

type RangeQuery struct {
	Lat         float64
	Lng         float64
	RangeMeters float64
	From        *time.Time
	To          *time.Time
}

// ClusterDefaults fill in zero-valued ClusterQuery fields.
type ClusterDefaults struct {
	EpsMeters         float64
	MinPts            int
	ParallelThreshold int
}

type ClusterQuery struct {
	EpsMeters float64
	MinPts    int
}

type ClusterReport struct {
	EpsMeters float64         `json:"eps_meters"`
	MinPts    int             `json:"min_pts"`
	Result    cluster.Result  `json:"result"`
	Points    cluster.Grouped `json:"points"`
}

// StatusCounts is type -> severity -> status -> count.
type StatusCounts map[types.ReportType]map[types.Severity]map[types.ReportStatus]int

func NewStatusCounts() StatusCounts {
	out := StatusCounts{}
	for _, t := range types.ReportTypes() {
		out[t] = map[types.Severity]map[types.ReportStatus]int{}
		for _, sev := range types.SeveritiesFor(t) {
			out[t][sev] = map[types.ReportStatus]int{}
			for _, st := range types.ReportStatuses() {
				out[t][sev][st] = 0
			}
		}
	}
	return out
}

type AnalyticsService interface {
	SearchWithinRange(ctx context.Context, q RangeQuery) ([]*types.Report, error)
	ValidatedReports(ctx context.Context) ([]*types.Report, error)
	ValidatedPositions(ctx context.Context) ([]geo.Point, error)
	Clusters(ctx context.Context, q ClusterQuery) (*ClusterReport, error)
	StatusCounts(ctx context.Context) (StatusCounts, error)
}

type analyticsService struct {
	log      *logger.Logger
	reports  repos.ReportRepo
	defaults ClusterDefaults
	metrics  *serviceMetrics
}

func NewAnalyticsService(log *logger.Logger, reports repos.ReportRepo, defaults ClusterDefaults) AnalyticsService {
	log = log.With("service", "AnalyticsService")
	return &analyticsService{
		log:      log,
		reports:  reports,
		defaults: defaults,
		metrics:  newServiceMetrics(log),
	}
}

func (s *analyticsService) ValidatedReports(ctx context.Context) ([]*types.Report, error) {
	all, err := s.reports.GetAll(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, "AnalyticsService.ValidatedReports", err)
	}
	out := make([]*types.Report, 0, len(all))
	for _, r := range all {
		if r.Status == types.StatusValidated {
			out = append(out, r)
		}
	}
	return out, nil
}

// SearchWithinRange scans every validated report; there is no spatial index.
func (s *analyticsService) SearchWithinRange(ctx context.Context, q RangeQuery) (out []*types.Report, err error) {
	const op = "AnalyticsService.SearchWithinRange"
	ctx, span := startSpan(ctx, op, attribute.Float64("range.meters", q.RangeMeters))
	defer func() { finishSpan(span, err) }()

	origin := geo.Point{Lat: q.Lat, Lng: q.Lng}
	switch {
	case !origin.Valid():
		return nil, types.ValidationError(op, "query point [%v, %v] is out of range", q.Lat, q.Lng)
	case q.RangeMeters < 0:
		return nil, types.ValidationError(op, "range must be >= 0, got %v", q.RangeMeters)
	case q.From != nil && q.To != nil && q.From.After(*q.To):
		return nil, types.ValidationError(op, "date range start is after its end")
	}

	validated, err := s.ValidatedReports(ctx)
	if err != nil {
		return nil, err
	}
	out = []*types.Report{}
	for _, r := range validated {
		if !inRange(r.Date, q.From, q.To) {
			continue
		}
		if geo.Within(origin, r.Location(), q.RangeMeters) {
			out = append(out, r)
		}
	}
	span.SetAttributes(attribute.Int("range.matches", len(out)))
	return out, nil
}

func (s *analyticsService) ValidatedPositions(ctx context.Context) ([]geo.Point, error) {
	validated, err := s.ValidatedReports(ctx)
	if err != nil {
		return nil, err
	}
	pts := make([]geo.Point, 0, len(validated))
	for _, r := range validated {
		pts = append(pts, r.Location())
	}
	return pts, nil
}

func (s *analyticsService) Clusters(ctx context.Context, q ClusterQuery) (rep *ClusterReport, err error) {
	const op = "AnalyticsService.Clusters"
	if q.EpsMeters == 0 {
		q.EpsMeters = s.defaults.EpsMeters
	}
	if q.MinPts == 0 {
		q.MinPts = s.defaults.MinPts
	}
	ctx, span := startSpan(ctx, op,
		attribute.Float64("dbscan.eps_meters", q.EpsMeters),
		attribute.Int("dbscan.min_pts", q.MinPts),
	)
	defer func() { finishSpan(span, err) }()

	pts, err := s.ValidatedPositions(ctx)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	res, err := cluster.DBSCAN(ctx, pts, cluster.Options{
		Eps:               q.EpsMeters,
		MinPts:            q.MinPts,
		Distance:          geo.Haversine,
		ParallelThreshold: s.defaults.ParallelThreshold,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, types.Wrap(types.CodeInternal, op, err)
		}
		return nil, types.ValidationError(op, "%v", err)
	}
	s.metrics.clustered(ctx, float64(time.Since(started).Microseconds())/1000, len(pts))
	s.log.Debug("dbscan done", "points", len(pts), "clusters", len(res.Clusters), "noise", len(res.Noise))
	return &ClusterReport{
		EpsMeters: q.EpsMeters,
		MinPts:    q.MinPts,
		Result:    res,
		Points:    cluster.Points(res, pts),
	}, nil
}

func (s *analyticsService) StatusCounts(ctx context.Context) (StatusCounts, error) {
	const op = "AnalyticsService.StatusCounts"
	all, err := s.reports.GetAll(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	counts := NewStatusCounts()
	for _, r := range all {
		bySev, ok := counts[r.Type][r.Severity]
		if !ok {
			s.log.Warn("report with unknown classification skipped", "report", r.ID, "type", r.Type, "severity", r.Severity)
			continue
		}
		bySev[r.Status]++
	}
	return counts, nil
}

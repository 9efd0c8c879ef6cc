package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/yungbote/roadwatch-backend/internal/data/repos"
	types "github.com/yungbote/roadwatch-backend/internal/domain"
	"github.com/yungbote/roadwatch-backend/internal/geo"
	"github.com/yungbote/roadwatch-backend/internal/platform/dbctx"
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
)

type CreateReportInput struct {
	UserID int64
	// Date is optional; empty means now.
	Date     string
	Position types.GeoPoint
	Type     types.ReportType
	Severity types.Severity
}

// UpdateReportInput carries the fields to change. ID and UserID are only
// accepted when they match the stored values.
type UpdateReportInput struct {
	ID       *int64
	UserID   *int64
	Date     *string
	Position *types.GeoPoint
	Type     *types.ReportType
	Severity *types.Severity
}

type MyReportsFilter struct {
	Status *types.ReportStatus
	From   *time.Time
	To     *time.Time
}

// BulkResult lists ids whose transition was confirmed. Ids filtered out
// before the attempt are in Skipped with their status (or "missing"), and
// ids whose attempt failed are in Failed with the reason.
type BulkResult struct {
	RunID     string           `json:"run_id"`
	Validated []int64          `json:"validated"`
	Rejected  []int64          `json:"rejected"`
	Skipped   map[int64]string `json:"skipped"`
	Failed    map[int64]string `json:"failed"`
}

const skippedMissing = "missing"

type ReportService interface {
	Create(ctx context.Context, in CreateReportInput) (*types.Report, error)
	GetByID(ctx context.Context, id int64) (*types.Report, error)
	GetAll(ctx context.Context) ([]*types.Report, error)
	Update(ctx context.Context, actor Actor, id int64, in UpdateReportInput) (*types.Report, error)
	Validate(ctx context.Context, id int64) (*types.Report, error)
	Reject(ctx context.Context, id int64) (*types.Report, error)
	Delete(ctx context.Context, actor Actor, id int64) error
	GetMyReports(ctx context.Context, userID int64, filter MyReportsFilter) ([]*types.Report, error)
	BulkUpdate(ctx context.Context, validateIDs, rejectIDs []int64) (*BulkResult, error)
}

type reportService struct {
	log     *logger.Logger
	reports repos.ReportRepo
	users   repos.UserRepo
	rewards RewardService
	metrics *serviceMetrics
	now     func() time.Time
}

func NewReportService(log *logger.Logger, reports repos.ReportRepo, users repos.UserRepo, rewards RewardService) ReportService {
	log = log.With("service", "ReportService")
	return &reportService{
		log:     log,
		reports: reports,
		users:   users,
		rewards: rewards,
		metrics: newServiceMetrics(log),
		now:     time.Now,
	}
}

func validatePosition(op string, p types.GeoPoint) error {
	if _, err := p.Point(); err != nil {
		return types.ValidationError(op, "%v", err)
	}
	return nil
}

func parseReportDate(op, raw string) (time.Time, error) {
	d, err := types.ParseDate(raw)
	if err != nil {
		return time.Time{}, types.ValidationError(op, "%v", err)
	}
	return d, nil
}

func (s *reportService) Create(ctx context.Context, in CreateReportInput) (report *types.Report, err error) {
	const op = "ReportService.Create"
	ctx, span := startSpan(ctx, op, attribute.Int64("user.id", in.UserID))
	defer func() { finishSpan(span, err) }()

	date := s.now().UTC()
	if strings.TrimSpace(in.Date) != "" {
		if date, err = parseReportDate(op, in.Date); err != nil {
			return nil, err
		}
	}
	if err := validatePosition(op, in.Position); err != nil {
		return nil, err
	}
	if err := types.ValidateClassification(in.Type, in.Severity); err != nil {
		return nil, types.ValidationError(op, "%v", err)
	}

	dbc := dbctx.Context{Ctx: ctx}
	owner, err := s.users.GetByID(dbc, in.UserID)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if owner == nil {
		return nil, types.NotFound(op, "user %d not found", in.UserID)
	}

	report = &types.Report{
		UserID:   in.UserID,
		Date:     date,
		Position: datatypes.NewJSONType(types.NewGeoPoint(mustPoint(in.Position))),
		Type:     in.Type,
		Severity: in.Severity,
		Status:   types.StatusPending,
	}
	if err := s.reports.Create(dbc, report); err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	s.log.Info("report created", "report", report.ID, "user", report.UserID, "type", report.Type)
	return report, nil
}

// mustPoint is only called on positions that already passed validation.
func mustPoint(g types.GeoPoint) (p geo.Point) {
	p, _ = g.Point()
	return p
}

func (s *reportService) load(ctx context.Context, op string, id int64) (*types.Report, error) {
	if id <= 0 {
		return nil, types.ValidationError(op, "report id must be positive, got %d", id)
	}
	report, err := s.reports.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if report == nil {
		return nil, types.NotFound(op, "report %d not found", id)
	}
	return report, nil
}

func (s *reportService) GetByID(ctx context.Context, id int64) (report *types.Report, err error) {
	ctx, span := startSpan(ctx, "ReportService.GetByID", attribute.Int64("report.id", id))
	defer func() { finishSpan(span, err) }()
	return s.load(ctx, "ReportService.GetByID", id)
}

func (s *reportService) GetAll(ctx context.Context) (all []*types.Report, err error) {
	ctx, span := startSpan(ctx, "ReportService.GetAll")
	defer func() { finishSpan(span, err) }()

	all, err = s.reports.GetAll(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, "ReportService.GetAll", err)
	}
	return all, nil
}

func (s *reportService) Update(ctx context.Context, actor Actor, id int64, in UpdateReportInput) (updated *types.Report, err error) {
	const op = "ReportService.Update"
	ctx, span := startSpan(ctx, op, attribute.Int64("report.id", id))
	defer func() { finishSpan(span, err) }()

	current, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if !actor.canModify(current) {
		return nil, types.Unauthorized(op, "user %d may not modify report %d", actor.UserID, id)
	}
	if in.ID != nil && *in.ID != current.ID {
		return nil, types.ValidationError(op, "report id cannot be changed")
	}
	if in.UserID != nil && *in.UserID != current.UserID {
		return nil, types.ValidationError(op, "report owner cannot be changed")
	}

	changes := map[string]any{}
	if in.Date != nil {
		d, err := parseReportDate(op, *in.Date)
		if err != nil {
			return nil, err
		}
		changes["date"] = d
	}
	if in.Position != nil {
		if err := validatePosition(op, *in.Position); err != nil {
			return nil, err
		}
		changes["position"] = datatypes.NewJSONType(types.NewGeoPoint(mustPoint(*in.Position)))
	}
	typ, sev := current.Type, current.Severity
	if in.Type != nil {
		typ = *in.Type
		changes["type"] = typ
	}
	if in.Severity != nil {
		sev = *in.Severity
		changes["severity"] = sev
	}
	if in.Type != nil || in.Severity != nil {
		if err := types.ValidateClassification(typ, sev); err != nil {
			return nil, types.ValidationError(op, "%v", err)
		}
	}
	if len(changes) == 0 {
		return current, nil
	}

	if err := s.reports.Update(dbctx.Context{Ctx: ctx}, id, changes); err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	s.log.Info("report updated", "report", id, "actor", actor.UserID, "fields", len(changes))
	return s.load(ctx, op, id)
}

// transition moves a PENDING report to status `to` with a conditional
// update. A miss is reported as a conflict carrying the current status.
func (s *reportService) transition(ctx context.Context, op string, id int64, to types.ReportStatus, verb string) (*types.Report, error) {
	if id <= 0 {
		return nil, types.ValidationError(op, "report id must be positive, got %d", id)
	}
	dbc := dbctx.Context{Ctx: ctx}
	ok, err := s.reports.TransitionStatus(dbc, id, types.StatusPending, to)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	current, err := s.reports.GetByID(dbc, id)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if current == nil {
		return nil, types.NotFound(op, "report %d not found", id)
	}
	if !ok {
		return nil, types.Conflict(op, "report %d is %s, only %s reports can be %s", id, current.Status, types.StatusPending, verb)
	}
	s.metrics.transition(ctx, to)
	return current, nil
}

func (s *reportService) Validate(ctx context.Context, id int64) (report *types.Report, err error) {
	const op = "ReportService.Validate"
	ctx, span := startSpan(ctx, op, attribute.Int64("report.id", id))
	defer func() { finishSpan(span, err) }()

	report, err = s.transition(ctx, op, id, types.StatusValidated, "validated")
	if err != nil {
		return nil, err
	}
	s.log.Info("report validated", "report", id, "user", report.UserID)

	// the validation stands even when the reward does not
	if _, rerr := s.rewards.Reward(ctx, report.UserID); rerr != nil {
		s.log.Error("reward failed after validation", "report", id, "user", report.UserID, "error", rerr)
	}
	return report, nil
}

func (s *reportService) Reject(ctx context.Context, id int64) (report *types.Report, err error) {
	const op = "ReportService.Reject"
	ctx, span := startSpan(ctx, op, attribute.Int64("report.id", id))
	defer func() { finishSpan(span, err) }()

	report, err = s.transition(ctx, op, id, types.StatusRejected, "rejected")
	if err != nil {
		return nil, err
	}
	s.log.Info("report rejected", "report", id, "user", report.UserID)
	return report, nil
}

func (s *reportService) Delete(ctx context.Context, actor Actor, id int64) (err error) {
	const op = "ReportService.Delete"
	ctx, span := startSpan(ctx, op, attribute.Int64("report.id", id))
	defer func() { finishSpan(span, err) }()

	current, err := s.load(ctx, op, id)
	if err != nil {
		return err
	}
	if !actor.canModify(current) {
		return types.Unauthorized(op, "user %d may not delete report %d", actor.UserID, id)
	}
	if err := s.reports.Delete(dbctx.Context{Ctx: ctx}, id); err != nil {
		return types.Wrap(types.CodeInternal, op, err)
	}
	s.log.Info("report deleted", "report", id, "actor", actor.UserID)
	return nil
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func (s *reportService) GetMyReports(ctx context.Context, userID int64, filter MyReportsFilter) (out []*types.Report, err error) {
	const op = "ReportService.GetMyReports"
	ctx, span := startSpan(ctx, op, attribute.Int64("user.id", userID))
	defer func() { finishSpan(span, err) }()

	if filter.Status != nil && !filter.Status.Valid() {
		return nil, types.ValidationError(op, "unknown status %q", *filter.Status)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, types.ValidationError(op, "date range start is after its end")
	}

	rows, err := s.reports.GetByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	out = make([]*types.Report, 0, len(rows))
	for _, r := range rows {
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		if !inRange(r.Date, filter.From, filter.To) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func normalizeIDs(op, label string, ids []int64) ([]int64, error) {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, types.ValidationError(op, "%s contains invalid id %d", label, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// BulkUpdate filters both lists to currently PENDING ids, then transitions
// each survivor independently. A report can change between the filter read
// and its transition; the conditional update turns that into a Failed entry
// instead of a double transition.
func (s *reportService) BulkUpdate(ctx context.Context, validateIDs, rejectIDs []int64) (res *BulkResult, err error) {
	const op = "ReportService.BulkUpdate"
	runID := uuid.NewString()
	ctx, span := startSpan(ctx, op,
		attribute.String("bulk.run_id", runID),
		attribute.Int("bulk.validate", len(validateIDs)),
		attribute.Int("bulk.reject", len(rejectIDs)),
	)
	defer func() { finishSpan(span, err) }()

	toValidate, err := normalizeIDs(op, "validate ids", validateIDs)
	if err != nil {
		return nil, err
	}
	toReject, err := normalizeIDs(op, "reject ids", rejectIDs)
	if err != nil {
		return nil, err
	}
	inValidate := make(map[int64]bool, len(toValidate))
	for _, id := range toValidate {
		inValidate[id] = true
	}
	for _, id := range toReject {
		if inValidate[id] {
			return nil, types.ValidationError(op, "report %d is in both validate and reject lists", id)
		}
	}

	rows, err := s.reports.GetByIDs(dbctx.Context{Ctx: ctx}, append(append([]int64{}, toValidate...), toReject...))
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	status := make(map[int64]types.ReportStatus, len(rows))
	for _, r := range rows {
		status[r.ID] = r.Status
	}

	res = &BulkResult{
		RunID:     runID,
		Validated: []int64{},
		Rejected:  []int64{},
		Skipped:   map[int64]string{},
		Failed:    map[int64]string{},
	}
	log := s.log.With("run_id", runID)

	eligible := func(id int64) bool {
		st, ok := status[id]
		switch {
		case !ok:
			res.Skipped[id] = skippedMissing
			return false
		case st != types.StatusPending:
			res.Skipped[id] = string(st)
			return false
		}
		return true
	}

	for _, id := range toValidate {
		if !eligible(id) {
			continue
		}
		if _, err := s.Validate(ctx, id); err != nil {
			log.Warn("bulk validate failed", "report", id, "error", err)
			res.Failed[id] = err.Error()
			continue
		}
		res.Validated = append(res.Validated, id)
	}
	for _, id := range toReject {
		if !eligible(id) {
			continue
		}
		if _, err := s.Reject(ctx, id); err != nil {
			log.Warn("bulk reject failed", "report", id, "error", err)
			res.Failed[id] = err.Error()
			continue
		}
		res.Rejected = append(res.Rejected, id)
	}

	log.Info("bulk update done",
		"validated", len(res.Validated),
		"rejected", len(res.Rejected),
		"skipped", len(res.Skipped),
		"failed", len(res.Failed),
	)
	return res, nil
}

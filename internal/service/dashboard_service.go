package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/directory"
	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/events"
	"github.com/civic-desk/complaint-service/internal/observability"
	"github.com/civic-desk/complaint-service/internal/repository"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

// Dashboard filter sentinels.
const (
	FilterAll        = "all"
	FilterUnassigned = "unassigned"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// DashboardService builds authority dashboards and applies triage changes.
type DashboardService struct {
	complaints repository.ComplaintRepository
	history    repository.ComplaintHistoryRepository
	directory  *directory.Directory
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// DashboardDependencies bundles collaborators for the dashboard service.
type DashboardDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	HistoryRepo   repository.ComplaintHistoryRepository
	Directory     *directory.Directory
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Metrics       *observability.Metrics
}

// DashboardFilter is the raw query of a dashboard request.
type DashboardFilter struct {
	Search     string
	Status     string
	Priority   string
	Department string
	Page       int
	PageSize   int
}

// StatBucket is one named counter of the dashboard summary.
type StatBucket struct {
	Key   string
	Label string
	Count int
}

// DashboardStats summarises the unfiltered visible set.
type DashboardStats struct {
	Total    int
	Pending  int
	Resolved int
	Third    StatBucket
}

// DashboardView is everything a dashboard page shows.
type DashboardView struct {
	Department domain.Department
	Admin      bool
	Complaints []domain.Complaint
	Stats      DashboardStats
	Filter     DashboardFilter
	Matched    int
	Page       int
	PageSize   int
	Pages      int
}

// ComplaintDetail is a complaint with its audit trail.
type ComplaintDetail struct {
	Complaint *domain.Complaint
	History   []domain.ComplaintHistory
}

// ComplaintUpdateInput carries the triage form. Empty Status or Priority leave
// the value unchanged; a nil AssignedDepartment means the field was not sent,
// an empty one means unassigned.
type ComplaintUpdateInput struct {
	Status             string
	Priority           string
	AssignedDepartment *string
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		complaints: deps.ComplaintRepo,
		history:    deps.HistoryRepo,
		directory:  deps.Directory,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// AdminDashboard lists every complaint. The department filter is honoured here only.
func (s *DashboardService) AdminDashboard(ctx context.Context, principal *auth.AuthorityPrincipal, filter DashboardFilter) (*DashboardView, error) {
	if !principal.Department.IsAdmin() {
		return nil, apperrors.NewDepartmentMismatch(fmt.Sprintf(
			"You are not authorised for the %s dashboard.", s.directory.DisplayName(domain.DepartmentAdmin)))
	}
	return s.dashboard(ctx, domain.DepartmentAdmin, filter, true)
}

// DepartmentDashboard lists the complaints of code after checking that the
// caller belongs to it.
func (s *DashboardService) DepartmentDashboard(ctx context.Context, principal *auth.AuthorityPrincipal, code string, filter DashboardFilter) (*DashboardView, error) {
	dept, ok := s.directory.Lookup(code)
	if !ok {
		return nil, apperrors.NewUnknownDepartment(code)
	}
	if principal.Department != dept {
		return nil, apperrors.NewDepartmentMismatch(fmt.Sprintf(
			"You are not authorised for the %s dashboard.", s.directory.DisplayName(dept)))
	}
	if dept.IsAdmin() {
		return s.dashboard(ctx, dept, filter, true)
	}
	return s.dashboard(ctx, dept, filter, false)
}

func (s *DashboardService) dashboard(ctx context.Context, viewer domain.Department, filter DashboardFilter, admin bool) (*DashboardView, error) {
	query, err := s.buildQuery(viewer, filter, admin)
	if err != nil {
		return nil, err
	}

	rows, matched, err := s.complaints.List(ctx, query)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	counts, err := s.complaints.Stats(ctx, query)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := DashboardStats{Total: counts.Total, Pending: counts.Pending, Resolved: counts.Resolved}
	if admin {
		stats.Third = StatBucket{Key: "forwarded", Label: "Forwarded", Count: counts.Forwarded}
	} else {
		stats.Third = StatBucket{Key: string(domain.ComplaintStatusInProgress),
			Label: s.directory.StatusLabel(domain.ComplaintStatusInProgress), Count: counts.InProgress}
	}

	page := query.Offset/query.Limit + 1
	pages := (matched + query.Limit - 1) / query.Limit
	if !admin {
		filter.Department = ""
	}
	return &DashboardView{
		Department: viewer,
		Admin:      admin,
		Complaints: rows,
		Stats:      stats,
		Filter:     filter,
		Matched:    matched,
		Page:       page,
		PageSize:   query.Limit,
		Pages:      pages,
	}, nil
}

func (s *DashboardService) buildQuery(viewer domain.Department, filter DashboardFilter, admin bool) (domain.ComplaintQuery, error) {
	query := domain.ComplaintQuery{Viewer: viewer, Search: strings.TrimSpace(filter.Search)}

	if v := normaliseFilter(filter.Status); v != "" {
		status := domain.ComplaintStatus(v)
		if !status.Valid() {
			return query, apperrors.NewValidationError("invalid status filter", map[string]any{"status": filter.Status})
		}
		query.Status = status
	}
	if v := normaliseFilter(filter.Priority); v != "" {
		priority := domain.ComplaintPriority(v)
		if !priority.Valid() {
			return query, apperrors.NewValidationError("invalid priority filter", map[string]any{"priority": filter.Priority})
		}
		query.Priority = priority
	}
	if admin {
		switch v := normaliseFilter(filter.Department); v {
		case "":
		case FilterUnassigned:
			query.Assignment = domain.AssignmentFilter{Kind: domain.AssignmentUnassigned}
		default:
			dept, ok := s.directory.Lookup(v)
			if !ok {
				return query, apperrors.NewValidationError("invalid department filter", map[string]any{"department": filter.Department})
			}
			query.Assignment = domain.AssignmentFilter{Kind: domain.AssignmentExact, Department: dept}
		}
	}

	size := filter.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	query.Limit = size
	query.Offset = (page - 1) * size
	return query, nil
}

func normaliseFilter(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == FilterAll {
		return ""
	}
	return v
}

// ComplaintDetail loads a complaint the caller may manage.
func (s *DashboardService) ComplaintDetail(ctx context.Context, principal *auth.AuthorityPrincipal, id int64) (*ComplaintDetail, error) {
	complaint, err := s.manageable(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	history, err := s.history.ListByComplaint(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &ComplaintDetail{Complaint: complaint, History: history}, nil
}

// UpdateComplaint applies a triage change. Concurrent edits are last-writer-wins.
func (s *DashboardService) UpdateComplaint(ctx context.Context, principal *auth.AuthorityPrincipal, id int64, input ComplaintUpdateInput) (*domain.Complaint, error) {
	complaint, err := s.manageable(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	before := *complaint

	if v := strings.TrimSpace(input.Status); v != "" {
		status := domain.ComplaintStatus(v)
		if !status.Valid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": v})
		}
		complaint.Status = status
	}
	if v := strings.TrimSpace(input.Priority); v != "" {
		priority := domain.ComplaintPriority(v)
		if !priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": v})
		}
		complaint.Priority = priority
	}
	target, claimed, err := s.assignmentFor(principal, &before, input.AssignedDepartment)
	if err != nil {
		return nil, err
	}
	complaint.AssignedDepartment = target

	changes := diffComplaint(&before, complaint)
	if len(changes) == 0 {
		return complaint, nil
	}
	entries := make([]*domain.ComplaintHistory, 0, len(changes))
	for _, change := range changes {
		entries = append(entries, &domain.ComplaintHistory{
			ComplaintID: complaint.ID,
			ActorID:     principal.Account.ID,
			ChangeType:  change.kind,
			OldValue:    change.oldValue,
			NewValue:    change.newValue,
		})
	}
	if err := s.complaints.UpdateWithHistory(ctx, complaint, entries); err != nil {
		return nil, apperrors.MapError(err)
	}

	actor := events.Actor{UserID: principal.Account.ID, Department: principal.Department, Staff: true}
	for _, change := range changes {
		s.metrics.RecordMutation(string(change.kind))
		s.publishEvent(ctx, change.event(complaint.ID, actor, &before, complaint, claimed))
	}
	s.logger.Info("complaint updated",
		zap.Int64("complaint_id", complaint.ID),
		zap.Int64("actor_id", principal.Account.ID),
		zap.String("department", principal.Department.Code()),
		zap.Int("changes", len(changes)),
	)
	return complaint, nil
}

// manageable fetches a complaint and enforces the mutation access rule.
func (s *DashboardService) manageable(ctx context.Context, principal *auth.AuthorityPrincipal, id int64) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		if apperrors.HasCode(apperrors.MapError(err), apperrors.CodeNotFound) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if !CanManage(principal.Department, complaint) {
		return nil, apperrors.NewComplaintAccessDenied("You do not have permission to manage this complaint.")
	}
	return complaint, nil
}

// CanManage reports whether dept may view and change complaint.
func CanManage(dept domain.Department, complaint *domain.Complaint) bool {
	switch {
	case dept.IsAdmin():
		return true
	case !dept.IsSet():
		return false
	default:
		return complaint.AssignedDepartment == dept || !complaint.AssignedDepartment.IsSet()
	}
}

func (s *DashboardService) assignmentFor(principal *auth.AuthorityPrincipal, current *domain.Complaint, requested *string) (domain.Department, bool, error) {
	acting := principal.Department
	if requested == nil {
		if !acting.IsAdmin() && !current.AssignedDepartment.IsSet() {
			return acting, true, nil
		}
		return current.AssignedDepartment, false, nil
	}

	code := strings.TrimSpace(*requested)
	target := domain.DepartmentNone
	if code != "" {
		dept, ok := s.directory.Lookup(code)
		if !ok {
			return domain.DepartmentNone, false, apperrors.NewValidationError("invalid department", map[string]any{"assigned_department": code})
		}
		target = dept
	}
	if !acting.IsAdmin() && target.IsSet() && target != acting {
		return domain.DepartmentNone, false, apperrors.NewDepartmentMismatch("You can only assign complaints to your own department.")
	}
	return target, false, nil
}

type complaintChange struct {
	kind     domain.ComplaintChangeType
	oldValue string
	newValue string
}

func diffComplaint(before, after *domain.Complaint) []complaintChange {
	var changes []complaintChange
	if before.Status != after.Status {
		changes = append(changes, complaintChange{domain.ChangeTypeStatus, string(before.Status), string(after.Status)})
	}
	if before.Priority != after.Priority {
		changes = append(changes, complaintChange{domain.ChangeTypePriority, string(before.Priority), string(after.Priority)})
	}
	if before.AssignedDepartment != after.AssignedDepartment {
		changes = append(changes, complaintChange{domain.ChangeTypeDepartment,
			before.AssignedDepartment.Code(), after.AssignedDepartment.Code()})
	}
	return changes
}

func (c complaintChange) event(id int64, actor events.Actor, before, after *domain.Complaint, claimed bool) events.Event {
	event := events.Event{ComplaintID: id, Actor: actor}
	switch c.kind {
	case domain.ChangeTypeStatus:
		event.Type = events.EventComplaintStatusChanged
		event.Payload = events.ComplaintStatusChangedPayload{OldStatus: before.Status, NewStatus: after.Status}
	case domain.ChangeTypePriority:
		event.Type = events.EventComplaintPriorityChanged
		event.Payload = events.ComplaintPriorityChangedPayload{OldPriority: before.Priority, NewPriority: after.Priority}
	default:
		event.Type = events.EventComplaintAssigned
		event.Payload = events.ComplaintAssignedPayload{
			OldDepartment: before.AssignedDepartment,
			NewDepartment: after.AssignedDepartment,
			Claimed:       claimed,
		}
	}
	return event
}

func (s *DashboardService) publishEvent(ctx context.Context, event events.Event) {
	publish(ctx, s.dispatcher, s.logger, event)
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

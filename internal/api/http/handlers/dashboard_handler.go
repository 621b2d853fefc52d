package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/civic-desk/complaint-service/internal/api/dto"
	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/directory"
	"github.com/civic-desk/complaint-service/internal/service"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

const (
	ViewAdminDashboard      = "authority/admin_dashboard"
	ViewDepartmentDashboard = "authority/department_dashboard"
	ViewComplaintDetail     = "authority/complaint_detail"
)

// DashboardHandler serves the guarded authority pages.
type DashboardHandler struct {
	service   *service.DashboardService
	directory *directory.Directory
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService, dir *directory.Directory) *DashboardHandler {
	return &DashboardHandler{service: dashboardService, directory: dir}
}

// Admin GET /authority/dashboard.
func (h *DashboardHandler) Admin(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	filter, err := parseDashboardQuery(c)
	if err != nil {
		return err
	}
	view, err := h.service.AdminDashboard(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	return Render(c, fiber.StatusOK, ViewAdminDashboard, nil, dashboardResponse(h.directory, view))
}

// Department GET /authority/:department.
func (h *DashboardHandler) Department(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	filter, err := parseDashboardQuery(c)
	if err != nil {
		return err
	}
	view, err := h.service.DepartmentDashboard(c.UserContext(), principal, c.Params("department"), filter)
	if err != nil {
		return err
	}
	name := ViewDepartmentDashboard
	if view.Admin {
		name = ViewAdminDashboard
	}
	return Render(c, fiber.StatusOK, name, nil, dashboardResponse(h.directory, view))
}

// Detail GET /authority/complaints/:id.
func (h *DashboardHandler) Detail(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := complaintID(c)
	if err != nil {
		return err
	}
	detail, err := h.service.ComplaintDetail(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	return Render(c, fiber.StatusOK, ViewComplaintDetail, nil, h.form(detail))
}

// Update POST /authority/complaints/:id.
func (h *DashboardHandler) Update(c *fiber.Ctx) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := complaintID(c)
	if err != nil {
		return err
	}
	var req dto.ComplaintUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssignedDepartment == nil && c.Request().PostArgs().Has("assigned_department") {
		value := string(c.Request().PostArgs().Peek("assigned_department"))
		req.AssignedDepartment = &value
	}

	_, err = h.service.UpdateComplaint(c.UserContext(), principal, id, service.ComplaintUpdateInput{
		Status:             req.Status,
		Priority:           req.Priority,
		AssignedDepartment: req.AssignedDepartment,
	})
	if apperrors.HasCode(err, apperrors.CodeValidation) {
		detail, detailErr := h.service.ComplaintDetail(c.UserContext(), principal, id)
		if detailErr != nil {
			return detailErr
		}
		return Render(c, fiber.StatusBadRequest, ViewComplaintDetail, []string{err.Error()}, h.form(detail))
	}
	if err != nil {
		return err
	}

	back, err := service.DashboardPath(principal.Department)
	if err != nil {
		return err
	}
	return RedirectWithMessage(c, back, "Complaint #"+strconv.FormatInt(id, 10)+" updated.")
}

func (h *DashboardHandler) form(detail *service.ComplaintDetail) dto.ComplaintFormResponse {
	return dto.ComplaintFormResponse{
		Complaint:   complaintDetail(h.directory, detail),
		Statuses:    h.directory.Statuses(),
		Priorities:  h.directory.Priorities(),
		Departments: h.directory.DepartmentChoices(),
	}
}

func principalFrom(c *fiber.Ctx) (*auth.AuthorityPrincipal, error) {
	principal, ok := auth.AuthorityFromContext(c)
	if !ok {
		return nil, apperrors.NewTokenInvalid(nil)
	}
	return principal, nil
}

func complaintID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFound("complaint", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func parseDashboardQuery(c *fiber.Ctx) (service.DashboardFilter, error) {
	var q dto.DashboardQuery
	if err := c.QueryParser(&q); err != nil {
		return service.DashboardFilter{}, apperrors.NewValidationError("invalid dashboard query", map[string]any{
			"page":      c.Query("page"),
			"page_size": c.Query("page_size"),
		})
	}
	return service.DashboardFilter{
		Search:     strings.TrimSpace(q.Search),
		Status:     q.Status,
		Priority:   q.Priority,
		Department: q.Department,
		Page:       q.Page,
		PageSize:   q.PageSize,
	}, nil
}

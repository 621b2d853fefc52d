package handlers

import (
	"github.com/civic-desk/complaint-service/internal/api/dto"
	"github.com/civic-desk/complaint-service/internal/directory"
	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/service"
)

func complaintSummary(dir *directory.Directory, c *domain.Complaint) dto.ComplaintSummary {
	return dto.ComplaintSummary{
		ID:                     c.ID,
		Title:                  c.Title,
		Category:               string(c.Category),
		CategoryLabel:          dir.CategoryLabel(c.Category),
		Location:               c.Location,
		Status:                 string(c.Status),
		StatusLabel:            dir.StatusLabel(c.Status),
		Priority:               string(c.Priority),
		PriorityLabel:          dir.PriorityLabel(c.Priority),
		AssignedDepartment:     c.AssignedDepartment.Code(),
		AssignedDepartmentName: dir.DisplayName(c.AssignedDepartment),
		OwnerUsername:          c.OwnerUsername,
		OwnerName:              c.OwnerName,
		CreatedAt:              c.CreatedAt,
		UpdatedAt:              c.UpdatedAt,
	}
}

func complaintSummaries(dir *directory.Directory, complaints []domain.Complaint) []dto.ComplaintSummary {
	items := make([]dto.ComplaintSummary, 0, len(complaints))
	for i := range complaints {
		items = append(items, complaintSummary(dir, &complaints[i]))
	}
	return items
}

func complaintDetail(dir *directory.Directory, detail *service.ComplaintDetail) dto.ComplaintDetailResponse {
	history := make([]dto.ComplaintHistoryItem, 0, len(detail.History))
	for _, h := range detail.History {
		history = append(history, dto.ComplaintHistoryItem{
			ID:         h.ID,
			ActorID:    h.ActorID,
			ChangeType: string(h.ChangeType),
			OldValue:   h.OldValue,
			NewValue:   h.NewValue,
			CreatedAt:  h.CreatedAt,
		})
	}
	return dto.ComplaintDetailResponse{
		ComplaintSummary: complaintSummary(dir, detail.Complaint),
		Description:      detail.Complaint.Description,
		PhotoPath:        detail.Complaint.PhotoPath,
		History:          history,
	}
}

func dashboardResponse(dir *directory.Directory, view *service.DashboardView) dto.DashboardResponse {
	resp := dto.DashboardResponse{
		Department:     view.Department.Code(),
		DepartmentName: dir.DisplayName(view.Department),
		Admin:          view.Admin,
		Stats: dto.DashboardStats{
			Total:    view.Stats.Total,
			Pending:  view.Stats.Pending,
			Resolved: view.Stats.Resolved,
			Third: dto.StatBucket{
				Key:   view.Stats.Third.Key,
				Label: view.Stats.Third.Label,
				Count: view.Stats.Third.Count,
			},
		},
		Complaints: complaintSummaries(dir, view.Complaints),
		Filters: dto.DashboardFilters{
			Search:     view.Filter.Search,
			Status:     view.Filter.Status,
			Priority:   view.Filter.Priority,
			Department: view.Filter.Department,
		},
		Pagination: dto.Pagination{
			Page:     view.Page,
			PageSize: view.PageSize,
			Total:    view.Matched,
			Pages:    view.Pages,
		},
		Statuses:   dir.Statuses(),
		Priorities: dir.Priorities(),
	}
	if view.Admin {
		resp.Departments = dir.DepartmentChoices()
	}
	return resp
}

func accountResponse(a *domain.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:       a.ID,
		Username: a.Username,
		Name:     a.Name,
		Contact:  a.Contact,
		Address:  a.Address,
	}
}

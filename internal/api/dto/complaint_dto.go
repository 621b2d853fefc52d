package dto

import (
	"time"

	"github.com/civic-desk/complaint-service/internal/directory"
)

// ComplaintSummary is a dashboard or listing row.
type ComplaintSummary struct {
	ID                     int64     `json:"id"`
	Title                  string    `json:"title"`
	Category               string    `json:"category"`
	CategoryLabel          string    `json:"category_label"`
	Location               string    `json:"location"`
	Status                 string    `json:"status"`
	StatusLabel            string    `json:"status_label"`
	Priority               string    `json:"priority"`
	PriorityLabel          string    `json:"priority_label"`
	AssignedDepartment     string    `json:"assigned_department"`
	AssignedDepartmentName string    `json:"assigned_department_name"`
	OwnerUsername          string    `json:"owner_username,omitempty"`
	OwnerName              string    `json:"owner_name,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// ComplaintDetailResponse provides full complaint info.
type ComplaintDetailResponse struct {
	ComplaintSummary
	Description string                 `json:"description"`
	PhotoPath   string                 `json:"photo_path,omitempty"`
	History     []ComplaintHistoryItem `json:"history"`
}

// ComplaintHistoryItem is one audit entry.
type ComplaintHistoryItem struct {
	ID         string    `json:"id"`
	ActorID    int64     `json:"actor_id"`
	ChangeType string    `json:"change_type"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatBucket is one dashboard counter.
type StatBucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DashboardStats are the counters above the listing.
type DashboardStats struct {
	Total    int        `json:"total"`
	Pending  int        `json:"pending"`
	Resolved int        `json:"resolved"`
	Third    StatBucket `json:"third"`
}

// Pagination describes the current page.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
}

// DashboardFilters echoes the applied filters.
type DashboardFilters struct {
	Search     string `json:"q"`
	Status     string `json:"status"`
	Priority   string `json:"priority"`
	Department string `json:"department,omitempty"`
}

// DashboardResponse is the data of an authority dashboard view.
type DashboardResponse struct {
	Department     string             `json:"department"`
	DepartmentName string             `json:"department_name"`
	Admin          bool               `json:"admin"`
	Stats          DashboardStats     `json:"stats"`
	Complaints     []ComplaintSummary `json:"complaints"`
	Filters        DashboardFilters   `json:"filters"`
	Pagination     Pagination         `json:"pagination"`
	Statuses       []directory.Choice `json:"statuses"`
	Priorities     []directory.Choice `json:"priorities"`
	Departments    []directory.Choice `json:"departments,omitempty"`
}

// ComplaintFormResponse is the data of the detail and triage view.
type ComplaintFormResponse struct {
	Complaint   ComplaintDetailResponse `json:"complaint"`
	Statuses    []directory.Choice      `json:"statuses"`
	Priorities  []directory.Choice      `json:"priorities"`
	Departments []directory.Choice      `json:"departments"`
}

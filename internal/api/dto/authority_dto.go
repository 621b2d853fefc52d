package dto

import "time"

// AuthorityLoginRequest payload for the staff login form.
type AuthorityLoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Next     string `json:"next" form:"next"`
}

// ComplaintUpdateRequest is the triage form. A missing assigned_department
// differs from an empty one.
type ComplaintUpdateRequest struct {
	Status             string  `json:"status" form:"status"`
	Priority           string  `json:"priority" form:"priority"`
	AssignedDepartment *string `json:"assigned_department" form:"-"`
}

// DashboardQuery captures dashboard filters from the query string.
type DashboardQuery struct {
	Search     string `query:"q"`
	Status     string `query:"status"`
	Priority   string `query:"priority"`
	Department string `query:"department"`
	Page       int    `query:"page"`
	PageSize   int    `query:"page_size"`
}

// DepartmentEntry is one row of the department directory.
type DepartmentEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// StaffResponse describes the signed-in staff member.
type StaffResponse struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	Department     string `json:"department"`
	DepartmentName string `json:"department_name"`
}

// RefreshResponse is returned after the access cookie was re-issued.
type RefreshResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

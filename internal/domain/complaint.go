package domain

import (
	"strings"
	"time"
)

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusPending    ComplaintStatus = "pending"
	ComplaintStatusInProgress ComplaintStatus = "in_progress"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
)

// Valid reports whether s is a known status.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusPending, ComplaintStatusInProgress, ComplaintStatusResolved:
		return true
	}
	return false
}

// ComplaintPriority enumerates triage urgency.
type ComplaintPriority string

const (
	ComplaintPriorityLow    ComplaintPriority = "low"
	ComplaintPriorityMedium ComplaintPriority = "medium"
	ComplaintPriorityHigh   ComplaintPriority = "high"
	ComplaintPriorityUrgent ComplaintPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p ComplaintPriority) Valid() bool {
	switch p {
	case ComplaintPriorityLow, ComplaintPriorityMedium, ComplaintPriorityHigh, ComplaintPriorityUrgent:
		return true
	}
	return false
}

// ComplaintCategory is the citizen-chosen subject area.
type ComplaintCategory string

const (
	ComplaintCategoryElectricity ComplaintCategory = "electricity"
	ComplaintCategoryRoad        ComplaintCategory = "road"
	ComplaintCategorySanitation  ComplaintCategory = "sanitation"
	ComplaintCategoryWaterSupply ComplaintCategory = "water_supply"
	ComplaintCategoryOthers      ComplaintCategory = "others"
)

// Valid reports whether c is a known category.
func (c ComplaintCategory) Valid() bool {
	switch c {
	case ComplaintCategoryElectricity, ComplaintCategoryRoad, ComplaintCategorySanitation,
		ComplaintCategoryWaterSupply, ComplaintCategoryOthers:
		return true
	}
	return false
}

// Complaint is the aggregate submitted by a citizen.
type Complaint struct {
	ID                 int64
	OwnerID            int64
	OwnerUsername      string
	OwnerName          string
	Category           ComplaintCategory
	Title              string
	Description        string
	Location           string
	PhotoPath          string
	Priority           ComplaintPriority
	AssignedDepartment Department
	Status             ComplaintStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AssignmentFilterKind selects how the assigned department is filtered.
type AssignmentFilterKind uint8

const (
	AssignmentAny AssignmentFilterKind = iota
	AssignmentUnassigned
	AssignmentExact
)

// AssignmentFilter narrows listings by assigned department.
type AssignmentFilter struct {
	Kind       AssignmentFilterKind
	Department Department
}

// ComplaintQuery captures dashboard visibility plus filters.
// Viewer is the department whose visibility rule applies.
// Empty Status/Priority mean no filter.
type ComplaintQuery struct {
	Viewer     Department
	Search     string
	Status     ComplaintStatus
	Priority   ComplaintPriority
	Assignment AssignmentFilter
	Limit      int
	Offset     int
}

// Unfiltered drops every filter but keeps the visibility scope.
func (q ComplaintQuery) Unfiltered() ComplaintQuery {
	return ComplaintQuery{Viewer: q.Viewer}
}

// Visible applies the base visibility rule: admin sees everything,
// other departments see their own and unassigned complaints.
func (q ComplaintQuery) Visible(c *Complaint) bool {
	if q.Viewer.IsAdmin() {
		return true
	}
	if !q.Viewer.IsSet() {
		return false
	}
	return c.AssignedDepartment == q.Viewer || !c.AssignedDepartment.IsSet()
}

// Matches reports whether c is visible and passes every filter.
func (q ComplaintQuery) Matches(c *Complaint) bool {
	if !q.Visible(c) {
		return false
	}
	if q.Status != "" && c.Status != q.Status {
		return false
	}
	if q.Priority != "" && c.Priority != q.Priority {
		return false
	}
	switch q.Assignment.Kind {
	case AssignmentUnassigned:
		if c.AssignedDepartment.IsSet() {
			return false
		}
	case AssignmentExact:
		if c.AssignedDepartment != q.Assignment.Department {
			return false
		}
	}
	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		fields := []string{c.Title, c.Description, c.Location, c.OwnerName, c.OwnerUsername}
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field), term) {
				return true
			}
		}
		return false
	}
	return true
}

// ComplaintStats are counts over the unfiltered visible set.
type ComplaintStats struct {
	Total      int
	Pending    int
	InProgress int
	Resolved   int
	Forwarded  int
}

// Add folds a single complaint into the counters.
func (s *ComplaintStats) Add(c *Complaint) {
	s.Total++
	switch c.Status {
	case ComplaintStatusPending:
		s.Pending++
	case ComplaintStatusInProgress:
		s.InProgress++
	case ComplaintStatusResolved:
		s.Resolved++
	}
	if c.AssignedDepartment.IsSet() && !c.AssignedDepartment.IsAdmin() {
		s.Forwarded++
	}
}

package domain

import "time"

// ComplaintChangeType captures what changed in a history entry.
type ComplaintChangeType string

const (
	ChangeTypeStatus     ComplaintChangeType = "STATUS_CHANGE"
	ChangeTypePriority   ComplaintChangeType = "PRIORITY_CHANGE"
	ChangeTypeDepartment ComplaintChangeType = "DEPARTMENT_CHANGE"
)

// ComplaintHistory is an immutable audit trail entry.
type ComplaintHistory struct {
	ID          string
	ComplaintID int64
	ActorID     int64
	ChangeType  ComplaintChangeType
	OldValue    string
	NewValue    string
	CreatedAt   time.Time
}

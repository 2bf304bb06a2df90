package domain

import "time"

// Priority represents work item priority level
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// WorkItemStatus represents the current state of a work item
type WorkItemStatus string

const (
	StatusTodo       WorkItemStatus = "todo"
	StatusInProgress WorkItemStatus = "in_progress"
	StatusBlocked    WorkItemStatus = "blocked"
	StatusDone       WorkItemStatus = "done"
)

// WorkItemKind distinguishes feature requests from tasks
type WorkItemKind string

const (
	KindFeature WorkItemKind = "feature"
	KindTask    WorkItemKind = "task"
)

// WorkItem is a tracked unit of product work: a feature request or a
// task, scoped to a tenant and optionally to a product module.
type WorkItem struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	TenantID    string         `json:"tenant_id" gorm:"index;not null"`
	ModuleID    string         `json:"module_id,omitempty" gorm:"index"`
	Kind        WorkItemKind   `json:"kind" gorm:"default:task"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description,omitempty"`
	Priority    Priority       `json:"priority" gorm:"default:medium"`
	Status      WorkItemStatus `json:"status" gorm:"default:todo"`
	DueDate     *time.Time     `json:"due_date,omitempty"`

	// True once a due-date reminder notification has been pushed
	ReminderSent bool `json:"reminder_sent"`

	// Set when the item was created from an approved triage outcome
	SourceOutcomeID string `json:"source_outcome_id,omitempty" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment is a remark attached to a work item, e.g. by email correlation.
type Comment struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	WorkItemID string    `json:"work_item_id" gorm:"index;not null"`
	Body       string    `json:"body" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}

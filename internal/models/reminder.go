package models

import (
	"time"

	"github.com/google/uuid"
)

type ReminderPriority string

const (
	ReminderPriorityHigh   ReminderPriority = "high"
	ReminderPriorityMedium ReminderPriority = "medium"
)

type ReminderType string

const (
	ReminderTypeScheduled ReminderType = "scheduled"
	ReminderTypePending   ReminderType = "pending"
)

type Reminder struct {
	Type     ReminderType     `json:"type"`
	GiftID   uuid.UUID        `json:"gift_id"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Priority ReminderPriority `json:"priority"`
	DueAt    *time.Time       `json:"due_at,omitempty"`
}

package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PlanStatus string

const (
	PlanPending    PlanStatus = "pending"
	PlanProcessing PlanStatus = "processing"
	PlanReady      PlanStatus = "ready"
	PlanFailed     PlanStatus = "failed"
)

// Plan is a generated itinerary. Content is Markdown written by the receptionist agent.
type Plan struct {
	BaseModel
	AccountID   uuid.UUID  `gorm:"type:uuid;index"`
	Title       string     `gorm:"size:64"`
	Prompt      string     `gorm:"type:text"`
	Content     string     `gorm:"type:text"`
	Status      PlanStatus `gorm:"size:16;index;default:pending"`
	Error       string
	Transcript  datatypes.JSON `gorm:"type:jsonb"`
	CompletedAt *int64
}

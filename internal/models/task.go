package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */

// Task categories.
const (
	CategoryFeeding  = "feeding"
	CategoryPlaying  = "playing"
	CategoryCleaning = "cleaning"
	CategoryHealth   = "health"
	CategoryTraining = "training"
)

// Task lifecycle states.
const (
	TaskPending   = "pending"
	TaskCompleted = "completed"
	TaskExpired   = "expired"
)

// Task is a care chore attached to a pet. Completing it rewards the
// caretaker with currency and the pet with experience.
type Task struct {
	gorm.Model
	PetID       uint   `gorm:"index;not null" json:"pet_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `gorm:"default:feeding" json:"category"`
	Difficulty  int    `gorm:"default:1" json:"difficulty"`
	Status      string `gorm:"default:pending" json:"status"`
	CreatedBy   uint   `gorm:"not null" json:"created_by"`

	CurrencyReward   int `gorm:"default:10" json:"currency_reward"`
	ExperienceReward int `gorm:"default:5" json:"experience_reward"`

	AssignedTo  *uint      `gorm:"index" json:"assigned_to,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedBy *uint      `json:"completed_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ToMap flattens the task into the shape carried by task_* envelopes.
func (t *Task) ToMap() map[string]interface{} {
	out := map[string]interface{}{
		"id":                t.ID,
		"pet_id":            t.PetID,
		"title":             t.Title,
		"category":          t.Category,
		"difficulty":        t.Difficulty,
		"status":            t.Status,
		"currency_reward":   t.CurrencyReward,
		"experience_reward": t.ExperienceReward,
	}
	if t.AssignedTo != nil {
		out["assigned_to"] = *t.AssignedTo
	}
	if t.CompletedBy != nil {
		out["completed_by"] = *t.CompletedBy
	}
	if t.DueDate != nil {
		out["due_date"] = t.DueDate.UTC().Format(time.RFC3339)
	}
	return out
}

/** -------------------- DTOs -------------------- */

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,min=1,max=100"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Difficulty  int        `json:"difficulty,omitempty" binding:"omitempty,min=1,max=5"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type AssignTaskRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

type TaskResponse struct {
	ID               uint       `json:"id"`
	PetID            uint       `json:"pet_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Category         string     `json:"category"`
	Difficulty       int        `json:"difficulty"`
	Status           string     `json:"status"`
	CurrencyReward   int        `json:"currency_reward"`
	ExperienceReward int        `json:"experience_reward"`
	AssignedTo       *uint      `json:"assigned_to,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	CompletedBy      *uint      `json:"completed_by,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ToResponse converts a Task into its API shape.
func (t *Task) ToResponse() TaskResponse {
	return TaskResponse{
		ID:               t.ID,
		PetID:            t.PetID,
		Title:            t.Title,
		Description:      t.Description,
		Category:         t.Category,
		Difficulty:       t.Difficulty,
		Status:           t.Status,
		CurrencyReward:   t.CurrencyReward,
		ExperienceReward: t.ExperienceReward,
		AssignedTo:       t.AssignedTo,
		DueDate:          t.DueDate,
		CompletedBy:      t.CompletedBy,
		CompletedAt:      t.CompletedAt,
		CreatedAt:        t.CreatedAt,
	}
}

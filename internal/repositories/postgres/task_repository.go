package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"pet-service/internal/models"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskDone     = errors.New("task already completed")
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

func (r *TaskRepository) FindByID(id uint) (*models.Task, error) {
	var task models.Task
	if err := r.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// ListByPet returns the pet's tasks, optionally filtered by status.
func (r *TaskRepository) ListByPet(petID uint, status string) ([]models.Task, error) {
	var tasks []models.Task
	q := r.db.Where("pet_id = ?", petID).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&tasks).Error
	return tasks, err
}

// Complete marks a pending task completed by the given user. The
// status check runs inside the transaction so two caretakers cannot
// both collect the reward.
func (r *TaskRepository) Complete(taskID, userID uint) (*models.Task, error) {
	var task models.Task
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}
		now := time.Now().UTC()
		res := tx.Model(&models.Task{}).
			Where("id = ? AND status = ?", taskID, models.TaskPending).
			Updates(map[string]interface{}{
				"status":       models.TaskCompleted,
				"completed_by": userID,
				"completed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTaskDone
		}
		task.Status = models.TaskCompleted
		task.CompletedBy = &userID
		task.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Assign points a pending task at a specific caretaker.
func (r *TaskRepository) Assign(taskID, userID uint) (*models.Task, error) {
	var task models.Task
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}
		if task.Status != models.TaskPending {
			return ErrTaskDone
		}
		if err := tx.Model(&task).UpdateColumn("assigned_to", userID).Error; err != nil {
			return err
		}
		task.AssignedTo = &userID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

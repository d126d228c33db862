package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"pet-service/internal/models"
	"pet-service/internal/repositories/postgres"
	"pet-service/internal/websocket"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskAlreadyCompleted = errors.New("task already completed")
)

// TaskService manages care chores. Every lifecycle change is pushed
// into the pet's room so all caretakers see the list update live.
type TaskService struct {
	repo *postgres.TaskRepository
	pets *PetService
	hub  *websocket.Hub
}

func NewTaskService(repo *postgres.TaskRepository, pets *PetService, hub *websocket.Hub) *TaskService {
	return &TaskService{repo: repo, pets: pets, hub: hub}
}

// rewardFor scales the payout with the task's difficulty.
func rewardFor(difficulty int) (currency, experience int) {
	if difficulty < 1 {
		difficulty = 1
	}
	if difficulty > 5 {
		difficulty = 5
	}
	return 10 * difficulty, 5 * difficulty
}

func (s *TaskService) CreateTask(userID, petID uint, req *models.CreateTaskRequest) (*models.TaskResponse, error) {
	ok, err := s.pets.IsCaretaker(userID, petID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotCaretaker
	}

	task := &models.Task{
		PetID:       petID,
		Title:       req.Title,
		Description: req.Description,
		Category:    models.CategoryFeeding,
		Difficulty:  1,
		Status:      models.TaskPending,
		CreatedBy:   userID,
		DueDate:     req.DueDate,
	}
	if req.Category != "" {
		task.Category = req.Category
	}
	if req.Difficulty > 0 {
		task.Difficulty = req.Difficulty
	}
	task.CurrencyReward, task.ExperienceReward = rewardFor(task.Difficulty)

	if err := s.repo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.hub.SendTaskUpdate(RoomID(petID), websocket.MessageTypeTaskCreated, task.ToMap())
	slog.Info("Task created", "taskID", task.ID, "petID", petID, "createdBy", userID)

	resp := task.ToResponse()
	return &resp, nil
}

func (s *TaskService) ListTasks(userID, petID uint, status string) ([]models.TaskResponse, error) {
	ok, err := s.pets.IsCaretaker(userID, petID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotCaretaker
	}
	tasks, err := s.repo.ListByPet(petID, status)
	if err != nil {
		return nil, err
	}
	out := make([]models.TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, tasks[i].ToResponse())
	}
	return out, nil
}

// CompleteTask marks the task done, pays out its rewards and announces
// both to the pet's room.
func (s *TaskService) CompleteTask(userID, taskID uint) (*models.TaskResponse, error) {
	task, err := s.repo.FindByID(taskID)
	if err != nil {
		return nil, ErrTaskNotFound
	}
	ok, err := s.pets.IsCaretaker(userID, task.PetID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotCaretaker
	}

	task, err = s.repo.Complete(taskID, userID)
	if err != nil {
		if errors.Is(err, postgres.ErrTaskDone) {
			return nil, ErrTaskAlreadyCompleted
		}
		if errors.Is(err, postgres.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if err := s.pets.GrantRewards(userID, task.PetID, task.CurrencyReward, task.ExperienceReward); err != nil {
		slog.Error("Failed to grant task rewards", "taskID", taskID, "error", err)
	}

	s.hub.SendTaskUpdate(RoomID(task.PetID), websocket.MessageTypeTaskCompleted, task.ToMap())
	slog.Info("Task completed", "taskID", taskID, "petID", task.PetID, "completedBy", userID)

	resp := task.ToResponse()
	return &resp, nil
}

// AssignTask points a task at a specific caretaker and nudges them
// directly if they are online.
func (s *TaskService) AssignTask(userID, taskID, assigneeID uint) (*models.TaskResponse, error) {
	task, err := s.repo.FindByID(taskID)
	if err != nil {
		return nil, ErrTaskNotFound
	}
	for _, id := range []uint{userID, assigneeID} {
		ok, err := s.pets.IsCaretaker(id, task.PetID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotCaretaker
		}
	}

	task, err = s.repo.Assign(taskID, assigneeID)
	if err != nil {
		if errors.Is(err, postgres.ErrTaskDone) {
			return nil, ErrTaskAlreadyCompleted
		}
		return nil, err
	}

	s.hub.SendTaskUpdate(RoomID(task.PetID), websocket.MessageTypeTaskAssigned, task.ToMap())
	s.hub.SendNotification(
		strconv.FormatUint(uint64(assigneeID), 10),
		fmt.Sprintf("You have been assigned: %s", task.Title),
		"normal",
	)

	resp := task.ToResponse()
	return &resp, nil
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pet-service/internal/models"
	"pet-service/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func writeTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Code:    http.StatusNotFound,
			Message: "Task not found",
		})
	case errors.Is(err, services.ErrTaskAlreadyCompleted):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Code:    http.StatusConflict,
			Message: "Task already completed",
		})
	case errors.Is(err, services.ErrNotCaretaker):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Code:    http.StatusForbidden,
			Message: "You do not care for this pet",
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "An unexpected error occurred",
		})
	}
}

// CreateTask godoc
// @Summary Create a care task for a pet
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pet ID"
// @Param request body models.CreateTaskRequest true "Task data"
// @Success 201 {object} models.TaskResponse
// @Failure 403 {object} models.ErrorResponse "Not a caretaker"
// @Router /pets/{id}/tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	petID, ok := petIDParam(c)
	if !ok {
		return
	}
	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	task, err := h.taskService.CreateTask(currentUserID(c), petID, &req)
	if err != nil {
		writeTaskError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// ListTasks godoc
// @Summary List a pet's tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pet ID"
// @Param status query string false "Filter by status"
// @Success 200 {array} models.TaskResponse
// @Failure 403 {object} models.ErrorResponse "Not a caretaker"
// @Router /pets/{id}/tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	petID, ok := petIDParam(c)
	if !ok {
		return
	}
	tasks, err := h.taskService.ListTasks(currentUserID(c), petID, c.Query("status"))
	if err != nil {
		writeTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// CompleteTask godoc
// @Summary Complete a task and collect its rewards
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "Task ID"
// @Success 200 {object} models.TaskResponse
// @Failure 404 {object} models.ErrorResponse "Task not found"
// @Failure 409 {object} models.ErrorResponse "Task already completed"
// @Router /tasks/{taskId}/complete [post]
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	taskID, err := strconv.ParseUint(c.Param("taskId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid task id",
		})
		return
	}

	task, svcErr := h.taskService.CompleteTask(currentUserID(c), uint(taskID))
	if svcErr != nil {
		writeTaskError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, task)
}

// AssignTask godoc
// @Summary Assign a task to a caretaker
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "Task ID"
// @Param request body models.AssignTaskRequest true "Assignee"
// @Success 200 {object} models.TaskResponse
// @Failure 403 {object} models.ErrorResponse "Assignee is not a caretaker"
// @Failure 404 {object} models.ErrorResponse "Task not found"
// @Router /tasks/{taskId}/assign [post]
func (h *TaskHandler) AssignTask(c *gin.Context) {
	taskID, err := strconv.ParseUint(c.Param("taskId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid task id",
		})
		return
	}
	var req models.AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	task, svcErr := h.taskService.AssignTask(currentUserID(c), uint(taskID), req.UserID)
	if svcErr != nil {
		writeTaskError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, task)
}

package dto

import (
	"time"

	"github.com/aokisa/project-tracker-api/internal/models"
)

// TaskProjectDTO is the minimal project representation embedded in tasks
type TaskProjectDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	ProjectID   uint64              `json:"project_id"`
	Project     *TaskProjectDTO     `json:"project,omitempty"`
	AssignedTo  *UserRefDTO         `json:"assigned_to"`
	CreatedBy   *UserRefDTO         `json:"created_by,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// TaskListResponse represents a list of tasks with its total count
type TaskListResponse struct {
	Tasks []TaskDTO `json:"tasks"`
	Count int64     `json:"count"`
}

// TaskStatsDTO holds aggregate task counts
type TaskStatsDTO struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	InProgress int64 `json:"in_progress"`
	Todo       int64 `json:"todo"`
	Overdue    int64 `json:"overdue"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		ProjectID:   task.ProjectID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	if task.Project.ID != 0 {
		dto.Project = &TaskProjectDTO{ID: task.Project.ID, Name: task.Project.Name}
	}
	if task.AssignedTo != nil {
		assignee := ToUserRefDTO(*task.AssignedTo)
		dto.AssignedTo = &assignee
	}
	if task.CreatedBy.ID != 0 {
		creator := ToUserRefDTO(task.CreatedBy)
		dto.CreatedBy = &creator
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks plus the total count
func ToTaskListResponse(tasks []models.Task, count int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return TaskListResponse{
		Tasks: items,
		Count: count,
	}
}

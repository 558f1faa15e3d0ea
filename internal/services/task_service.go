package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/aokisa/project-tracker-api/internal/authz"
	"github.com/aokisa/project-tracker-api/internal/models"
	"github.com/aokisa/project-tracker-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrTitleRequired     = errors.New("title is required")
	ErrTitleEmpty        = errors.New("title cannot be empty")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrInvalidPriority   = errors.New("invalid task priority")
	ErrInvalidAssignee   = errors.New("assigned user is not a member of the project")
	ErrNotProjectMember  = errors.New("user is not a member of the project")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, userRepo repository.UserRepository) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	ProjectID    *uint64
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	AssignedToID *uint64
	Page         int
	PageSize     int
}

// ListTasks returns tasks visible to the actor: everything for admins,
// otherwise tasks in the actor's projects plus tasks assigned to or created
// by the actor.
func (s *TaskService) ListTasks(actor *models.User, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		Scope:        repository.TaskScope{All: actor.IsAdmin(), UserID: actor.ID},
		ProjectID:    input.ProjectID,
		Status:       input.Status,
		Priority:     input.Priority,
		AssignedToID: input.AssignedToID,
		Page:         input.Page,
		PageSize:     input.PageSize,
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task the actor may read. Like project reads, a task the
// actor cannot see reports ErrTaskNotFound rather than a permission error.
func (s *TaskService) GetTask(actor *models.User, taskID uint64) (*models.Task, error) {
	task, err := s.getTask(taskID)
	if err != nil {
		return nil, err
	}

	if d := authz.CanReadTask(actor, task); !d.Allowed {
		return nil, ErrTaskNotFound
	}

	return task, nil
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title        string
	Description  string
	Status       models.TaskStatus
	Priority     models.TaskPriority
	DueDate      *time.Time
	ProjectID    uint64
	AssignedToID *uint64
}

// CreateTask creates a task in a project the actor belongs to. An assignee,
// if given, must be a member of the project.
func (s *TaskService) CreateTask(actor *models.User, input CreateTaskInput) (*models.Task, error) {
	if input.Title == "" {
		return nil, ErrTitleRequired
	}
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !models.ValidTaskStatus(input.Status) {
		return nil, ErrInvalidTaskStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !models.ValidTaskPriority(input.Priority) {
		return nil, ErrInvalidPriority
	}

	project, err := s.projectRepo.FindByID(input.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if d := authz.CanCreateTask(actor, project); !d.Allowed {
		return nil, ErrNotProjectMember
	}

	if input.AssignedToID != nil {
		assignee, err := s.findAssignee(*input.AssignedToID)
		if err != nil {
			return nil, err
		}
		if d := authz.CanAssignTo(assignee, project); !d.Allowed {
			return nil, ErrInvalidAssignee
		}
	}

	task := &models.Task{
		Title:        input.Title,
		Description:  input.Description,
		Status:       input.Status,
		Priority:     input.Priority,
		DueDate:      input.DueDate,
		ProjectID:    input.ProjectID,
		AssignedToID: input.AssignedToID,
		CreatedByID:  actor.ID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.getTask(task.ID)
}

// UpdateTaskInput represents input for updating a task. Nil fields leave
// existing values untouched; the Clear flags distinguish an explicit null
// from an absent field.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	DueDate       *time.Time
	ClearDueDate  bool
	ProjectID     *uint64
	AssignedToID  *uint64
	ClearAssignee bool
}

// UpdateTask updates a task. Admins and the creator may change every field,
// including reassigning the project and the assignee. The assignee of a task
// gets a narrower path: only the status field is applied and everything else
// in the request is silently ignored.
func (s *TaskService) UpdateTask(actor *models.User, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.getTask(taskID)
	if err != nil {
		return nil, err
	}

	if input.Status != nil && !models.ValidTaskStatus(*input.Status) {
		return nil, ErrInvalidTaskStatus
	}

	if d := authz.CanUpdateTask(actor, task); !d.Allowed {
		if d := authz.CanUpdateTaskStatus(actor, task); !d.Allowed {
			return nil, ErrPermissionDenied
		}
		// Assignee path: apply status only.
		if input.Status != nil {
			task.Status = *input.Status
			if err := s.taskRepo.Update(task); err != nil {
				return nil, fmt.Errorf("failed to update task: %w", err)
			}
		}
		return s.getTask(task.ID)
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !models.ValidTaskPriority(*input.Priority) {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	// The project the assignee check runs against: the new one when the task
	// is being moved, the current one otherwise.
	project := &task.Project
	if input.ProjectID != nil && *input.ProjectID != task.ProjectID {
		newProject, err := s.projectRepo.FindByID(*input.ProjectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProjectNotFound
			}
			return nil, fmt.Errorf("failed to find project: %w", err)
		}
		if d := authz.CanCreateTask(actor, newProject); !d.Allowed {
			return nil, ErrPermissionDenied
		}
		task.ProjectID = newProject.ID
		project = newProject
	}

	if input.ClearAssignee {
		task.AssignedToID = nil
	} else if input.AssignedToID != nil {
		assignee, err := s.findAssignee(*input.AssignedToID)
		if err != nil {
			return nil, err
		}
		if d := authz.CanAssignTo(assignee, project); !d.Allowed {
			return nil, ErrInvalidAssignee
		}
		task.AssignedToID = input.AssignedToID
	} else if task.AssignedToID != nil && !project.HasMember(*task.AssignedToID) {
		// Moving a task can strand its assignee outside the new project.
		task.AssignedToID = nil
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.getTask(task.ID)
}

// DeleteTask deletes a task if the actor is an admin or the creator.
func (s *TaskService) DeleteTask(actor *models.User, taskID uint64) error {
	task, err := s.getTask(taskID)
	if err != nil {
		return err
	}

	if d := authz.CanDeleteTask(actor, task); !d.Allowed {
		return ErrPermissionDenied
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// GetStats returns aggregate counts over the tasks the actor can see.
func (s *TaskService) GetStats(actor *models.User) (repository.TaskStats, error) {
	scope := repository.TaskScope{All: actor.IsAdmin(), UserID: actor.ID}
	stats, err := s.taskRepo.Stats(scope)
	if err != nil {
		return repository.TaskStats{}, fmt.Errorf("failed to count tasks: %w", err)
	}
	return stats, nil
}

func (s *TaskService) getTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) findAssignee(userID uint64) (*models.User, error) {
	assignee, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidAssignee
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return assignee, nil
}

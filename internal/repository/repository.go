package repository

import (
	"github.com/aokisa/project-tracker-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// Update persists changes to a user
	Update(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// CreateWithCreatorMember creates a project and its creator's membership
	// within a single transaction.
	CreateWithCreatorMember(project *models.Project, member *models.ProjectMember) error

	// FindByID finds a project by ID with its member set and creator loaded
	FindByID(id uint64) (*models.Project, error)

	// ListAll lists every project
	ListAll() ([]models.Project, error)

	// ListByMember lists projects the user is a member of
	ListByMember(userID uint64) ([]models.Project, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete deletes a project, its memberships, and its tasks in a transaction
	Delete(id uint64) error

	// AddMember adds a member to a project
	AddMember(member *models.ProjectMember) error

	// RemoveMember removes a member from a project
	RemoveMember(projectID, userID uint64) error

	// StatusCounts returns per-status project counts. A nil memberUserID
	// counts all projects; otherwise only projects the user is a member of.
	StatusCounts(memberUserID *uint64) (map[models.ProjectStatus]int64, error)
}

// TaskScope restricts task queries to what an actor may see. Admin scope is
// all tasks; otherwise tasks in the user's projects, assigned to them, or
// created by them.
type TaskScope struct {
	All    bool
	UserID uint64
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Scope        TaskScope
	ProjectID    *uint64
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	AssignedToID *uint64
	Page         int
	PageSize     int
}

// TaskStats holds aggregate task counts for the stats endpoint
type TaskStats struct {
	Total      int64
	Completed  int64
	InProgress int64
	Todo       int64
	Overdue    int64
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with its project (including members),
	// assignee, and creator loaded
	FindByID(id uint64) (*models.Task, error)

	// List retrieves tasks within a scope with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete deletes a task
	Delete(id uint64) error

	// Stats returns aggregate counts over the scope
	Stats(scope TaskScope) (TaskStats, error)
}

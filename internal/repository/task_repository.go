package repository

import (
	"time"

	"github.com/aokisa/project-tracker-api/internal/database"
	"github.com/aokisa/project-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task with its project member set, assignee, and creator
func (r *GormTaskRepository) FindByID(id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.
		Preload("Project").
		Preload("Project.Members").
		Preload("AssignedTo").
		Preload("CreatedBy").
		First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// scoped narrows a task query to what the scope's actor may see: tasks in
// their projects, assigned to them, or created by them. Admin scope is
// unrestricted.
func (r *GormTaskRepository) scoped(query *gorm.DB, scope TaskScope) *gorm.DB {
	if scope.All {
		return query
	}

	memberProjects := r.db.Model(&models.ProjectMember{}).
		Select("project_members.project_id").
		Where("project_members.user_id = ?", scope.UserID)

	return query.Where(
		"tasks.project_id IN (?) OR tasks.assigned_to_id = ? OR tasks.created_by_id = ?",
		memberProjects, scope.UserID, scope.UserID,
	)
}

// List retrieves tasks within a scope with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	query := r.scoped(r.db.Model(&models.Task{}), filter.Scope)

	if filter.ProjectID != nil {
		query = query.Where("tasks.project_id = ?", *filter.ProjectID)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.AssignedToID != nil {
		query = query.Where("tasks.assigned_to_id = ?", *filter.AssignedToID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.
		Order("tasks.created_at DESC").
		Scopes(database.Paginate(filter.Page, filter.PageSize))

	var tasks []models.Task
	if err := listQuery.
		Preload("Project").
		Preload("AssignedTo").
		Preload("CreatedBy").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update persists the task's own columns. Associations are omitted so that
// stale preloaded Project/AssignedTo structs cannot write their foreign keys
// back over a reassignment or an explicit unassignment.
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Omit(clause.Associations).Save(task).Error
}

// Delete deletes a task
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Task{}, id).Error
}

// Stats returns aggregate counts over the scope
func (r *GormTaskRepository) Stats(scope TaskScope) (TaskStats, error) {
	var stats TaskStats

	base := func() *gorm.DB {
		return r.scoped(r.db.Model(&models.Task{}), scope)
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return TaskStats{}, err
	}
	if err := base().Where("tasks.status = ?", models.TaskStatusDone).Count(&stats.Completed).Error; err != nil {
		return TaskStats{}, err
	}
	if err := base().Where("tasks.status = ?", models.TaskStatusInProgress).Count(&stats.InProgress).Error; err != nil {
		return TaskStats{}, err
	}
	if err := base().Where("tasks.status = ?", models.TaskStatusTodo).Count(&stats.Todo).Error; err != nil {
		return TaskStats{}, err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if err := base().
		Where("tasks.due_date < ?", today).
		Where("tasks.status <> ?", models.TaskStatusDone).
		Count(&stats.Overdue).Error; err != nil {
		return TaskStats{}, err
	}

	return stats, nil
}

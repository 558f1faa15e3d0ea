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
	ErrProjectNotFound  = errors.New("project not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNameRequired     = errors.New("name is required")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrAlreadyMember    = errors.New("user is already a member of the project")
	ErrMemberNotFound   = errors.New("user is not a member of the project")
)

// ProjectService handles project business logic. Every operation consults
// the authz package before touching state.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
	}
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Name        string
	Description string
	Status      models.ProjectStatus
}

// CreateProject creates a project with the actor as creator and first
// member. The two writes are atomic: there is no observable state where the
// creator is not a member.
func (s *ProjectService) CreateProject(actor *models.User, input CreateProjectInput) (*models.Project, error) {
	if d := authz.CanCreateProject(actor); !d.Allowed {
		return nil, ErrPermissionDenied
	}
	if input.Name == "" {
		return nil, ErrNameRequired
	}
	if input.Status == "" {
		input.Status = models.ProjectStatusActive
	}
	if !models.ValidProjectStatus(input.Status) {
		return nil, ErrInvalidStatus
	}

	project := &models.Project{
		Name:        input.Name,
		Description: input.Description,
		Status:      input.Status,
		CreatedByID: actor.ID,
	}
	member := &models.ProjectMember{
		UserID:   actor.ID,
		JoinedAt: time.Now(),
	}

	if err := s.projectRepo.CreateWithCreatorMember(project, member); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.getProject(project.ID)
}

// ListProjects returns the projects visible to the actor: all of them for
// admins, membership only otherwise.
func (s *ProjectService) ListProjects(actor *models.User) ([]models.Project, error) {
	if actor.IsAdmin() {
		return s.projectRepo.ListAll()
	}
	return s.projectRepo.ListByMember(actor.ID)
}

// GetProject returns a project the actor may read. A project the actor
// cannot see reports ErrProjectNotFound, indistinguishable from a missing
// id, so existence does not leak.
func (s *ProjectService) GetProject(actor *models.User, projectID uint64) (*models.Project, error) {
	project, err := s.getProject(projectID)
	if err != nil {
		return nil, err
	}

	if d := authz.CanReadProject(actor, project); !d.Allowed {
		return nil, ErrProjectNotFound
	}

	return project, nil
}

// UpdateProjectInput represents input for updating a project. Nil fields
// leave existing values untouched.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Status      *models.ProjectStatus
}

// UpdateProject updates name, description, and status.
func (s *ProjectService) UpdateProject(actor *models.User, projectID uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.getProject(projectID)
	if err != nil {
		return nil, err
	}

	if d := authz.CanManageProject(actor, project); !d.Allowed {
		return nil, ErrPermissionDenied
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrNameRequired
		}
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Status != nil {
		if !models.ValidProjectStatus(*input.Status) {
			return nil, ErrInvalidStatus
		}
		project.Status = *input.Status
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

// DeleteProject deletes a project and cascades to its tasks and memberships.
func (s *ProjectService) DeleteProject(actor *models.User, projectID uint64) error {
	project, err := s.getProject(projectID)
	if err != nil {
		return err
	}

	if d := authz.CanManageProject(actor, project); !d.Allowed {
		return ErrPermissionDenied
	}

	if err := s.projectRepo.Delete(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// AddMember adds a user to the project's member set.
func (s *ProjectService) AddMember(actor *models.User, projectID, userID uint64) (*models.Project, error) {
	project, err := s.getProject(projectID)
	if err != nil {
		return nil, err
	}

	if d := authz.CanManageProject(actor, project); !d.Allowed {
		return nil, ErrPermissionDenied
	}

	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if project.HasMember(userID) {
		return nil, ErrAlreadyMember
	}

	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		JoinedAt:  time.Now(),
	}
	if err := s.projectRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return s.getProject(projectID)
}

// RemoveMember removes a user from the project's member set.
func (s *ProjectService) RemoveMember(actor *models.User, projectID, userID uint64) (*models.Project, error) {
	project, err := s.getProject(projectID)
	if err != nil {
		return nil, err
	}

	if d := authz.CanManageProject(actor, project); !d.Allowed {
		return nil, ErrPermissionDenied
	}

	if !project.HasMember(userID) {
		return nil, ErrMemberNotFound
	}

	if err := s.projectRepo.RemoveMember(projectID, userID); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}

	return s.getProject(projectID)
}

// ProjectStats holds per-status counts over the actor-visible project set
type ProjectStats struct {
	Total     int64
	Active    int64
	OnHold    int64
	Completed int64
	Archived  int64
	Cancelled int64
}

// GetStats returns per-status counts over the projects the actor can see.
func (s *ProjectService) GetStats(actor *models.User) (*ProjectStats, error) {
	var memberUserID *uint64
	if !actor.IsAdmin() {
		memberUserID = &actor.ID
	}

	counts, err := s.projectRepo.StatusCounts(memberUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	stats := &ProjectStats{
		Active:    counts[models.ProjectStatusActive],
		OnHold:    counts[models.ProjectStatusOnHold],
		Completed: counts[models.ProjectStatusCompleted],
		Archived:  counts[models.ProjectStatusArchived],
		Cancelled: counts[models.ProjectStatusCancelled],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

func (s *ProjectService) getProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

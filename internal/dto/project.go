package dto

import (
	"time"

	"github.com/aokisa/project-tracker-api/internal/models"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	CreatedByID uint64               `json:"created_by_id"`
	CreatedBy   *UserRefDTO          `json:"created_by,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ProjectMemberDTO represents a member in project detail responses
type ProjectMemberDTO struct {
	User     UserRefDTO `json:"user"`
	JoinedAt time.Time  `json:"joined_at"`
}

// ProjectDetailDTO is a project with its member list
type ProjectDetailDTO struct {
	ProjectDTO
	Members []ProjectMemberDTO `json:"members"`
}

// ProjectStatsDTO holds per-status project counts
type ProjectStatsDTO struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	OnHold    int64 `json:"on_hold"`
	Completed int64 `json:"completed"`
	Archived  int64 `json:"archived"`
	Cancelled int64 `json:"cancelled"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		CreatedByID: project.CreatedByID,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}

	if project.CreatedBy.ID != 0 {
		creator := ToUserRefDTO(project.CreatedBy)
		dto.CreatedBy = &creator
	}

	return dto
}

// ToProjectDetailDTO converts a project with preloaded members to its
// detailed representation
func ToProjectDetailDTO(project models.Project) ProjectDetailDTO {
	members := make([]ProjectMemberDTO, len(project.Members))
	for i, m := range project.Members {
		members[i] = ProjectMemberDTO{
			User:     ToUserRefDTO(m.User),
			JoinedAt: m.JoinedAt,
		}
	}

	return ProjectDetailDTO{
		ProjectDTO: ToProjectDTO(project),
		Members:    members,
	}
}

// ToProjectListDTO converts a slice of projects
func ToProjectListDTO(projects []models.Project) []ProjectDTO {
	items := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		items[i] = ToProjectDTO(p)
	}
	return items
}

package repository

import (
	"testing"
	"time"

	"github.com/aokisa/project-tracker-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createProject(t *testing.T, db *gorm.DB, name string, creatorID uint64) *models.Project {
	t.Helper()
	project := &models.Project{
		Name:        name,
		Status:      models.ProjectStatusActive,
		CreatedByID: creatorID,
	}
	require.NoError(t, db.Create(project).Error)
	require.NoError(t, db.Create(&models.ProjectMember{
		ProjectID: project.ID,
		UserID:    creatorID,
		JoinedAt:  time.Now(),
	}).Error)
	return project
}

func TestTaskRepository_Update_PersistsForeignKeysOverPreloads(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewTaskRepository(db)
	creator := createUser(t, db, "creator")
	assignee := createUser(t, db, "assignee")

	source := createProject(t, db, "Source", creator.ID)
	dest := createProject(t, db, "Dest", creator.ID)

	require.NoError(t, repo.Create(&models.Task{
		Title:        "Migrating",
		Status:       models.TaskStatusTodo,
		Priority:     models.TaskPriorityMedium,
		ProjectID:    source.ID,
		AssignedToID: &assignee.ID,
		CreatedByID:  creator.ID,
	}))

	// Load through the repository so Project and AssignedTo are populated,
	// then change the foreign keys while the stale associations are still
	// attached.
	task, err := repo.FindByID(1)
	require.NoError(t, err)
	require.NotNil(t, task.AssignedTo)

	task.ProjectID = dest.ID
	task.AssignedToID = nil
	require.NoError(t, repo.Update(task))

	var reloaded models.Task
	require.NoError(t, db.First(&reloaded, task.ID).Error)
	require.Equal(t, dest.ID, reloaded.ProjectID)
	require.Nil(t, reloaded.AssignedToID)
}

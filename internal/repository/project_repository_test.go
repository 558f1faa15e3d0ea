package repository

import (
	"testing"
	"time"

	"github.com/aokisa/project-tracker-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.RoleStandard,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestProjectRepository_CreateWithCreatorMember(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewProjectRepository(db)
	creator := createUser(t, db, "creator")

	project := &models.Project{
		Name:        "Atomic",
		Status:      models.ProjectStatusActive,
		CreatedByID: creator.ID,
	}
	member := &models.ProjectMember{
		UserID:   creator.ID,
		JoinedAt: time.Now(),
	}

	require.NoError(t, repo.CreateWithCreatorMember(project, member))
	require.NotZero(t, project.ID)
	require.Equal(t, project.ID, member.ProjectID)

	found, err := repo.FindByID(project.ID)
	require.NoError(t, err)
	require.Len(t, found.Members, 1)
	require.Equal(t, creator.ID, found.Members[0].UserID)
}

func TestProjectRepository_CreateWithCreatorMember_RollsBack(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewProjectRepository(db)
	creator := createUser(t, db, "creator")

	// Occupy the (project_id, user_id) slot the membership insert will want,
	// so the second write of the transaction fails.
	require.NoError(t, db.Create(&models.ProjectMember{
		ProjectID: 1,
		UserID:    creator.ID,
		JoinedAt:  time.Now(),
	}).Error)

	project := &models.Project{
		Name:        "Doomed",
		Status:      models.ProjectStatusActive,
		CreatedByID: creator.ID,
	}
	member := &models.ProjectMember{
		UserID:   creator.ID,
		JoinedAt: time.Now(),
	}

	err := repo.CreateWithCreatorMember(project, member)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrCreateProjectMember)

	// The project insert must have been rolled back with it.
	var count int64
	require.NoError(t, db.Model(&models.Project{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestProjectRepository_ListByMember(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewProjectRepository(db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	shared := &models.Project{Name: "Shared", Status: models.ProjectStatusActive, CreatedByID: alice.ID}
	require.NoError(t, repo.CreateWithCreatorMember(shared, &models.ProjectMember{UserID: alice.ID, JoinedAt: time.Now()}))
	require.NoError(t, repo.AddMember(&models.ProjectMember{ProjectID: shared.ID, UserID: bob.ID, JoinedAt: time.Now()}))

	private := &models.Project{Name: "Private", Status: models.ProjectStatusActive, CreatedByID: alice.ID}
	require.NoError(t, repo.CreateWithCreatorMember(private, &models.ProjectMember{UserID: alice.ID, JoinedAt: time.Now()}))

	bobProjects, err := repo.ListByMember(bob.ID)
	require.NoError(t, err)
	require.Len(t, bobProjects, 1)
	require.Equal(t, "Shared", bobProjects[0].Name)

	aliceProjects, err := repo.ListByMember(alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceProjects, 2)
}

func TestProjectRepository_Delete_Cascades(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewProjectRepository(db)
	creator := createUser(t, db, "creator")

	project := &models.Project{Name: "Doomed", Status: models.ProjectStatusActive, CreatedByID: creator.ID}
	require.NoError(t, repo.CreateWithCreatorMember(project, &models.ProjectMember{UserID: creator.ID, JoinedAt: time.Now()}))
	require.NoError(t, db.Create(&models.Task{
		Title:       "task",
		Status:      models.TaskStatusTodo,
		Priority:    models.TaskPriorityMedium,
		ProjectID:   project.ID,
		CreatedByID: creator.ID,
	}).Error)

	require.NoError(t, repo.Delete(project.ID))

	var projects, members, tasks int64
	db.Model(&models.Project{}).Count(&projects)
	db.Model(&models.ProjectMember{}).Count(&members)
	db.Model(&models.Task{}).Count(&tasks)
	require.Zero(t, projects)
	require.Zero(t, members)
	require.Zero(t, tasks)
}

func TestProjectRepository_StatusCounts(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewProjectRepository(db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	mine := &models.Project{Name: "Mine", Status: models.ProjectStatusActive, CreatedByID: alice.ID}
	require.NoError(t, repo.CreateWithCreatorMember(mine, &models.ProjectMember{UserID: alice.ID, JoinedAt: time.Now()}))
	done := &models.Project{Name: "Done", Status: models.ProjectStatusCompleted, CreatedByID: alice.ID}
	require.NoError(t, repo.CreateWithCreatorMember(done, &models.ProjectMember{UserID: alice.ID, JoinedAt: time.Now()}))
	theirs := &models.Project{Name: "Theirs", Status: models.ProjectStatusActive, CreatedByID: bob.ID}
	require.NoError(t, repo.CreateWithCreatorMember(theirs, &models.ProjectMember{UserID: bob.ID, JoinedAt: time.Now()}))

	// Scoped to alice's memberships.
	counts, err := repo.StatusCounts(&alice.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), counts[models.ProjectStatusActive])
	require.Equal(t, int64(1), counts[models.ProjectStatusCompleted])

	// Unscoped for admins.
	counts, err = repo.StatusCounts(nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), counts[models.ProjectStatusActive])
}

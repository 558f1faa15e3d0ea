package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aokisa/project-tracker-api/internal/constants"
	"github.com/aokisa/project-tracker-api/internal/database"
	"github.com/aokisa/project-tracker-api/internal/dto"
	"github.com/aokisa/project-tracker-api/internal/models"
	"github.com/aokisa/project-tracker-api/internal/repository"
	"github.com/aokisa/project-tracker-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *TaskHandler
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
	)
	suite.Require().NoError(err)

	database.SetDB(suite.db)

	taskRepo := repository.NewTaskRepository(suite.db)
	projectRepo := repository.NewProjectRepository(suite.db)
	userRepo := repository.NewUserRepository(suite.db)
	suite.handler = NewTaskHandler(services.NewTaskService(taskRepo, projectRepo, userRepo))

	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *TaskHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TaskHandlerTestSuite) createTestUser(username string, role models.UserRole) *models.User {
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
		Role:         role,
		IsActive:     true,
	}
	suite.db.Create(user)
	return user
}

func (suite *TaskHandlerTestSuite) createTestProject(name string, creatorID uint64, memberIDs ...uint64) *models.Project {
	project := &models.Project{
		Name:        name,
		Status:      models.ProjectStatusActive,
		CreatedByID: creatorID,
	}
	suite.db.Create(project)
	for _, id := range append([]uint64{creatorID}, memberIDs...) {
		suite.db.Create(&models.ProjectMember{ProjectID: project.ID, UserID: id, JoinedAt: time.Now()})
	}
	return project
}

func (suite *TaskHandlerTestSuite) createTestTask(title string, projectID, creatorID uint64, assignedToID *uint64) *models.Task {
	task := &models.Task{
		Title:        title,
		Description:  "Test Description",
		Status:       models.TaskStatusTodo,
		Priority:     models.TaskPriorityMedium,
		ProjectID:    projectID,
		CreatedByID:  creatorID,
		AssignedToID: assignedToID,
	}
	suite.db.Create(task)
	return task
}

func (suite *TaskHandlerTestSuite) serve(user *models.User, method, url string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyUser, user)
		c.Set(constants.ContextKeyUserID, user.ID)
	})
	r.GET("/api/tasks", suite.handler.List)
	r.POST("/api/tasks", suite.handler.Create)
	r.GET("/api/tasks/stats", suite.handler.Stats)
	r.GET("/api/tasks/:id", suite.handler.Get)
	r.PATCH("/api/tasks/:id", suite.handler.Update)
	r.DELETE("/api/tasks/:id", suite.handler.Delete)

	r.ServeHTTP(w, req)
	return w
}

func (suite *TaskHandlerTestSuite) TestCreateTask() {
	user := suite.createTestUser("member", models.RoleStandard)
	project := suite.createTestProject("Project", user.ID)

	w := suite.serve(user, "POST", "/api/tasks", map[string]any{
		"title":      "New Task",
		"project_id": project.ID,
	})

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), "New Task", response.Title)
	assert.Equal(suite.T(), string(models.TaskStatusTodo), string(response.Status))
	assert.Equal(suite.T(), string(models.TaskPriorityMedium), string(response.Priority))
}

func (suite *TaskHandlerTestSuite) TestCreateTask_NonMemberForbidden() {
	creator := suite.createTestUser("creator", models.RoleStandard)
	outsider := suite.createTestUser("outsider", models.RoleStandard)
	project := suite.createTestProject("Project", creator.ID)

	w := suite.serve(outsider, "POST", "/api/tasks", map[string]any{
		"title":      "Not Allowed",
		"project_id": project.ID,
	})

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_NonMemberAssigneeRejected() {
	creator := suite.createTestUser("creator", models.RoleStandard)
	outsider := suite.createTestUser("outsider", models.RoleStandard)
	project := suite.createTestProject("Project", creator.ID)

	w := suite.serve(creator, "POST", "/api/tasks", map[string]any{
		"title":          "Task",
		"project_id":     project.ID,
		"assigned_to_id": outsider.ID,
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestGetTask_NonMemberGets404() {
	creator := suite.createTestUser("creator", models.RoleStandard)
	outsider := suite.createTestUser("outsider", models.RoleStandard)
	project := suite.createTestProject("Project", creator.ID)
	task := suite.createTestTask("Hidden", project.ID, creator.ID, nil)

	w := suite.serve(outsider, "GET", fmt.Sprintf("/api/tasks/%d", task.ID), nil)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestGetTask_AssigneeCanRead() {
	creator := suite.createTestUser("creator", models.RoleStandard)
	assignee := suite.createTestUser("assignee", models.RoleStandard)
	project := suite.createTestProject("Project", creator.ID, assignee.ID)
	task := suite.createTestTask("Assigned", project.ID, creator.ID, &assignee.ID)

	// Membership is dropped but the assignment stays.
	suite.db.Delete(&models.ProjectMember{}, "project_id = ? AND user_id = ?", project.ID, assignee.ID)

	w := suite.serve(assignee, "GET", fmt.Sprintf("/api/tasks/%d", task.ID), nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasks_Scoped() {
	member := suite.createTestUser("member", models.RoleStandard)
	other := suite.createTestUser("other", models.RoleStandard)
	mine := suite.createTestProject("Mine", member.ID)
	theirs := suite.createTestProject("Theirs", other.ID)
	suite.createTestTask("Visible", mine.ID, member.ID, nil)
	suite.createTestTask("Invisible", theirs.ID, other.ID, nil)

	w := suite.serve(member, "GET", "/api/tasks", nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), int64(1), response.Count)
	suite.Require().Len(response.Tasks, 1)
	assert.Equal(suite.T(), "Visible", response.Tasks[0].Title)
}

func (suite *TaskHandlerTestSuite) TestListTasks_StatusFilter() {
	member := suite.createTestUser("member", models.RoleStandard)
	project := suite.createTestProject("Mine", member.ID)
	suite.createTestTask("Open", project.ID, member.ID, nil)
	done := suite.createTestTask("Done", project.ID, member.ID, nil)
	suite.db.Model(done).Update("status", models.TaskStatusDone)

	w := suite.serve(member, "GET", "/api/tasks?status=done", nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), int64(1), response.Count)
	suite.Require().Len(response.Tasks, 1)
	assert.Equal(suite.T(), "Done", response.Tasks[0].Title)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_Creator() {
	creator := suite.createTestUser("creator", models.RoleStandard)
	project := suite.createTestProject("Project", creator.ID)
	task := suite.createTestTask("Old", project.ID, creator.ID, nil)

	w := suite.serve(creator, "PATCH", fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{
		"title":    "New",
		"status":   string(models.TaskStatusInProgress),
		"priority": string(models.TaskPriorityHigh),
	})

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), "New", response.Title)
	assert.Equal(suite.T(), string(models.TaskStatusInProgress), string(response.Status))
	assert.Equal(suite.T(), string(models.TaskPriorityHigh), string(response.Priority))
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_AssigneeStatusOnly() {
	creator := suite.createTestUser("creator", models.RoleStandard)
	assignee := suite.createTestUser("assignee", models.RoleStandard)
	project := suite.createTestProject("Project", creator.ID, assignee.ID)
	task := suite.createTestTask("Original", project.ID, creator.ID, &assignee.ID)

	// The assignee may move the status; every other field in the request
	// is silently ignored.
	w := suite.serve(assignee, "PATCH", fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{
		"title":  "Hijacked",
		"status": string(models.TaskStatusDone),
	})

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), "Original", response.Title)
	assert.Equal(suite.T(), string(models.TaskStatusDone), string(response.Status))
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_MemberForbidden() {
	creator := suite.createTestUser("creator", models.RoleStandard)
	member := suite.createTestUser("member", models.RoleStandard)
	project := suite.createTestProject("Project", creator.ID, member.ID)
	task := suite.createTestTask("Task", project.ID, creator.ID, nil)

	w := suite.serve(member, "PATCH", fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{
		"status": string(models.TaskStatusDone),
	})

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_NonMemberAssigneeRejected() {
	creator := suite.createTestUser("creator", models.RoleStandard)
	assignee := suite.createTestUser("assignee", models.RoleStandard)
	outsider := suite.createTestUser("outsider", models.RoleStandard)
	project := suite.createTestProject("Project", creator.ID, assignee.ID)
	task := suite.createTestTask("Task", project.ID, creator.ID, &assignee.ID)

	w := suite.serve(creator, "PATCH", fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{
		"assigned_to_id": outsider.ID,
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	// The prior assignment is untouched.
	var reloaded models.Task
	suite.Require().NoError(suite.db.First(&reloaded, task.ID).Error)
	suite.Require().NotNil(reloaded.AssignedToID)
	assert.Equal(suite.T(), assignee.ID, *reloaded.AssignedToID)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_ClearAssignee() {
	creator := suite.createTestUser("creator", models.RoleStandard)
	assignee := suite.createTestUser("assignee", models.RoleStandard)
	project := suite.createTestProject("Project", creator.ID, assignee.ID)
	task := suite.createTestTask("Task", project.ID, creator.ID, &assignee.ID)

	// Explicit null clears the assignment.
	w := suite.serve(creator, "PATCH", fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{
		"assigned_to_id": nil,
	})

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var reloaded models.Task
	suite.Require().NoError(suite.db.First(&reloaded, task.ID).Error)
	assert.Nil(suite.T(), reloaded.AssignedToID)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_MoveClearsStrandedAssignee() {
	creator := suite.createTestUser("creator", models.RoleStandard)
	assignee := suite.createTestUser("assignee", models.RoleStandard)
	source := suite.createTestProject("Source", creator.ID, assignee.ID)
	target := suite.createTestProject("Target", creator.ID)
	task := suite.createTestTask("Task", source.ID, creator.ID, &assignee.ID)

	w := suite.serve(creator, "PATCH", fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{
		"project_id": target.ID,
	})

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var reloaded models.Task
	suite.Require().NoError(suite.db.First(&reloaded, task.ID).Error)
	assert.Equal(suite.T(), target.ID, reloaded.ProjectID)
	assert.Nil(suite.T(), reloaded.AssignedToID)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask_AssigneeForbidden() {
	creator := suite.createTestUser("creator", models.RoleStandard)
	assignee := suite.createTestUser("assignee", models.RoleStandard)
	project := suite.createTestProject("Project", creator.ID, assignee.ID)
	task := suite.createTestTask("Task", project.ID, creator.ID, &assignee.ID)

	w := suite.serve(assignee, "DELETE", fmt.Sprintf("/api/tasks/%d", task.ID), nil)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask_Creator() {
	creator := suite.createTestUser("creator", models.RoleStandard)
	project := suite.createTestProject("Project", creator.ID)
	task := suite.createTestTask("Task", project.ID, creator.ID, nil)

	w := suite.serve(creator, "DELETE", fmt.Sprintf("/api/tasks/%d", task.ID), nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	err := suite.db.First(&models.Task{}, task.ID).Error
	assert.ErrorIs(suite.T(), err, gorm.ErrRecordNotFound)
}

func (suite *TaskHandlerTestSuite) TestStats() {
	member := suite.createTestUser("member", models.RoleStandard)
	project := suite.createTestProject("Project", member.ID)
	suite.createTestTask("One", project.ID, member.ID, nil)
	done := suite.createTestTask("Two", project.ID, member.ID, nil)
	suite.db.Model(done).Update("status", models.TaskStatusDone)
	overdue := suite.createTestTask("Three", project.ID, member.ID, nil)
	past := time.Now().AddDate(0, 0, -3)
	suite.db.Model(overdue).Update("due_date", past)

	w := suite.serve(member, "GET", "/api/tasks/stats", nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response dto.TaskStatsDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), int64(3), response.Total)
	assert.Equal(suite.T(), int64(1), response.Completed)
	assert.Equal(suite.T(), int64(2), response.Todo)
	assert.Equal(suite.T(), int64(1), response.Overdue)
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}

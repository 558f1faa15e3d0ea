// Package authz contains the permission rules for projects and tasks as
// pure decision functions. Every function takes already-loaded records and
// returns a Decision; nothing here touches the database.
package authz

import (
	"github.com/aokisa/project-tracker-api/internal/models"
)

// Reason tags a decision so callers can translate denials into the right
// response (permission denied, not-found masking, validation failure).
type Reason string

const (
	ReasonAdmin           Reason = "admin"
	ReasonCreator         Reason = "creator"
	ReasonMember          Reason = "member"
	ReasonAssignee        Reason = "assignee"
	ReasonAuthenticated   Reason = "authenticated"
	ReasonAnonymous       Reason = "anonymous"
	ReasonNotMember       Reason = "not_member"
	ReasonNotCreator      Reason = "not_creator"
	ReasonNoAccess        Reason = "no_access"
	ReasonInvalidAssignee Reason = "invalid_assignee"
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow(r Reason) Decision { return Decision{Allowed: true, Reason: r} }
func deny(r Reason) Decision  { return Decision{Allowed: false, Reason: r} }

// CanCreateProject permits any authenticated user.
func CanCreateProject(actor *models.User) Decision {
	if actor == nil {
		return deny(ReasonAnonymous)
	}
	return allow(ReasonAuthenticated)
}

// CanReadProject permits admins and project members. A denial here must be
// reported as not-found so non-members cannot probe for project existence.
func CanReadProject(actor *models.User, project *models.Project) Decision {
	if actor == nil {
		return deny(ReasonAnonymous)
	}
	if actor.IsAdmin() {
		return allow(ReasonAdmin)
	}
	if project.HasMember(actor.ID) {
		return allow(ReasonMember)
	}
	return deny(ReasonNotMember)
}

// CanManageProject permits admins and the project creator. Covers update,
// delete, and member management.
func CanManageProject(actor *models.User, project *models.Project) Decision {
	if actor == nil {
		return deny(ReasonAnonymous)
	}
	if actor.IsAdmin() {
		return allow(ReasonAdmin)
	}
	if project.CreatedByID == actor.ID {
		return allow(ReasonCreator)
	}
	return deny(ReasonNotCreator)
}

// CanCreateTask permits admins and members of the target project.
func CanCreateTask(actor *models.User, project *models.Project) Decision {
	if actor == nil {
		return deny(ReasonAnonymous)
	}
	if actor.IsAdmin() {
		return allow(ReasonAdmin)
	}
	if project.HasMember(actor.ID) {
		return allow(ReasonMember)
	}
	return deny(ReasonNotMember)
}

// CanReadTask permits admins, members of the task's project, the assignee,
// and the creator. The task's Project.Members must be preloaded. Denials are
// masked as not-found, same as project reads.
func CanReadTask(actor *models.User, task *models.Task) Decision {
	if actor == nil {
		return deny(ReasonAnonymous)
	}
	if actor.IsAdmin() {
		return allow(ReasonAdmin)
	}
	if task.Project.HasMember(actor.ID) {
		return allow(ReasonMember)
	}
	if task.AssignedToID != nil && *task.AssignedToID == actor.ID {
		return allow(ReasonAssignee)
	}
	if task.CreatedByID == actor.ID {
		return allow(ReasonCreator)
	}
	return deny(ReasonNoAccess)
}

// CanUpdateTask permits full-field updates by admins and the task creator.
func CanUpdateTask(actor *models.User, task *models.Task) Decision {
	if actor == nil {
		return deny(ReasonAnonymous)
	}
	if actor.IsAdmin() {
		return allow(ReasonAdmin)
	}
	if task.CreatedByID == actor.ID {
		return allow(ReasonCreator)
	}
	return deny(ReasonNotCreator)
}

// CanUpdateTaskStatus permits the assignee to change the status field. This
// is the partial-update path: when it applies instead of CanUpdateTask, all
// other fields in the request are ignored.
func CanUpdateTaskStatus(actor *models.User, task *models.Task) Decision {
	if actor == nil {
		return deny(ReasonAnonymous)
	}
	if task.AssignedToID != nil && *task.AssignedToID == actor.ID {
		return allow(ReasonAssignee)
	}
	return deny(ReasonNoAccess)
}

// CanDeleteTask permits admins and the task creator.
func CanDeleteTask(actor *models.User, task *models.Task) Decision {
	return CanUpdateTask(actor, task)
}

// CanAssignTo checks the reassignment target: the assignee must be a member
// of the task's (possibly new) project. The invalid-assignee reason is kept
// distinct so callers report it as a validation failure, not a permission
// denial.
func CanAssignTo(assignee *models.User, project *models.Project) Decision {
	if assignee == nil || !project.HasMember(assignee.ID) {
		return deny(ReasonInvalidAssignee)
	}
	return allow(ReasonMember)
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum/models"
	"momentum/utils"
)

func TestTaskDefaults(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	svc := NewTaskService(fx.db, fx.policy)

	t.Run("second active default conflicts", func(t *testing.T) {
		_, err := svc.Create(ctx, fx.owner, TaskInput{ProjectID: fx.project.ID, Name: "Another", Code: "ANOTHER", IsDefault: true})
		requireKind(t, err, utils.KindConflict)

		_, err = svc.CreateDefault(ctx, fx.owner, fx.project.ID)
		requireKind(t, err, utils.KindConflict)
	})

	t.Run("default task cannot be deleted", func(t *testing.T) {
		err := svc.Delete(ctx, fx.owner, fx.task.ID)
		requireKind(t, err, utils.KindInvalidState)
	})

	t.Run("deactivated default can be recreated", func(t *testing.T) {
		inactive := false
		_, err := svc.Update(ctx, fx.owner, fx.task.ID, TaskUpdate{IsActive: &inactive})
		require.NoError(t, err)

		task, err := svc.CreateDefault(ctx, fx.owner, fx.project.ID)
		require.NoError(t, err)
		assert.Equal(t, fx.task.ID, task.ID)
		assert.True(t, task.IsDefault)
		assert.True(t, task.IsActive)
	})

	t.Run("promoting a task checks the existing default", func(t *testing.T) {
		other, err := svc.Create(ctx, fx.owner, TaskInput{ProjectID: fx.project.ID, Name: "Design", Code: "DESIGN"})
		require.NoError(t, err)

		yes := true
		_, err = svc.Update(ctx, fx.owner, other.ID, TaskUpdate{IsDefault: &yes})
		requireKind(t, err, utils.KindConflict)
	})
}

func TestReplaceDeactivatedDefault(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	svc := NewTaskService(fx.db, fx.policy)

	inactive := false
	_, err := svc.Update(ctx, fx.owner, fx.task.ID, TaskUpdate{IsActive: &inactive})
	require.NoError(t, err)

	replacement, err := svc.Create(ctx, fx.owner, TaskInput{ProjectID: fx.project.ID, Name: "General", Code: "GENERAL", IsDefault: true})
	require.NoError(t, err)
	assert.NotEqual(t, fx.task.ID, replacement.ID)
	assert.True(t, replacement.IsDefault)
	assert.True(t, replacement.IsActive)

	active := true
	_, err = svc.Update(ctx, fx.owner, fx.task.ID, TaskUpdate{IsActive: &active})
	requireKind(t, err, utils.KindConflict)

	var defaults int64
	require.NoError(t, fx.db.Model(&models.Task{}).
		Where("project_id = ? AND is_default = ? AND is_active = ?", fx.project.ID, true, true).
		Count(&defaults).Error)
	assert.Equal(t, int64(1), defaults)
}

func TestTaskCRUD(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	svc := NewTaskService(fx.db, fx.policy)

	task, err := svc.Create(ctx, fx.owner, TaskInput{ProjectID: fx.project.ID, Name: "Backend", Code: "BE"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, fx.owner, TaskInput{ProjectID: fx.project.ID, Name: "Backend again", Code: "BE"})
	requireKind(t, err, utils.KindConflict)

	_, err = svc.Create(ctx, fx.stranger, TaskInput{ProjectID: fx.project.ID, Name: "Sneaky", Code: "SN"})
	requireKind(t, err, utils.KindForbidden)

	_, err = svc.Create(ctx, fx.owner, TaskInput{ProjectID: fx.project.ID, Name: "x", Code: ""})
	requireKind(t, err, utils.KindValidation)

	got, err := svc.Get(ctx, fx.worker, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Backend", got.Name)

	page, err := svc.ListByProject(ctx, fx.owner, fx.project.ID, TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.True(t, page.Items[0].IsDefault)

	employees, err := svc.AssignEmployees(ctx, fx.owner, task.ID, AssignEmployeesInput{EmployeeIDs: []string{fx.worker.ID, fx.worker.ID}})
	require.NoError(t, err)
	require.Len(t, employees, 1)

	tasks, err := svc.ListEmployeeTasks(ctx, fx.worker, fx.worker.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)

	require.NoError(t, svc.RemoveEmployees(ctx, fx.owner, task.ID, AssignEmployeesInput{EmployeeIDs: []string{fx.worker.ID}}))
	employees, err = svc.ListEmployees(ctx, fx.owner, task.ID)
	require.NoError(t, err)
	assert.Empty(t, employees)

	require.NoError(t, svc.Delete(ctx, fx.owner, task.ID))
	var stored models.Task
	require.NoError(t, fx.db.Where("id = ?", task.ID).Take(&stored).Error)
	assert.False(t, stored.IsActive)
}

func TestTaskAssignmentAcrossOrganizations(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	svc := NewTaskService(fx.db, fx.policy)

	otherOrg := &models.Organization{Name: "Other", Domain: "other.example", CreatedBy: fx.owner.ID, IsActive: true}
	require.NoError(t, fx.db.Create(otherOrg).Error)
	outsider := createEmployee(t, fx.db, otherOrg.ID, "outsider@other.example")

	_, err := svc.AssignEmployees(ctx, fx.owner, fx.task.ID, AssignEmployeesInput{EmployeeIDs: []string{outsider.ID}})
	requireKind(t, err, utils.KindInvalidState)

	_, err = svc.AssignEmployees(ctx, fx.owner, fx.task.ID, AssignEmployeesInput{EmployeeIDs: []string{"missing"}})
	requireKind(t, err, utils.KindNotFound)
}

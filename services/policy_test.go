package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum/models"
	"momentum/utils"
)

func TestCanManage(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	var nilAccount *models.Account
	cases := []struct {
		name  string
		actor models.Principal
		orgID string
		want  bool
	}{
		{"nil principal", nil, fx.org.ID, false},
		{"typed nil account", nilAccount, fx.org.ID, false},
		{"worker of the organization", fx.worker, fx.org.ID, false},
		{"admin", fx.admin, fx.org.ID, true},
		{"admin on missing organization", fx.admin, "missing", true},
		{"creator", fx.owner, fx.org.ID, true},
		{"other account", fx.stranger, fx.org.ID, false},
		{"creator on missing organization", fx.owner, "missing", false},
		{"empty organization id", fx.owner, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := fx.policy.CanManage(ctx, tc.actor, tc.orgID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestDerivedPolicies(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	ok, err := fx.policy.CanManageProject(ctx, fx.owner, fx.project.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fx.policy.CanManageTask(ctx, fx.owner, fx.task.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fx.policy.CanManageTask(ctx, fx.owner, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = fx.policy.CanManageEmployee(ctx, fx.stranger, fx.worker.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = fx.policy.CanActOnEmployee(ctx, fx.worker, fx.worker.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fx.policy.CanActOnEmployee(ctx, fx.worker, fx.peer.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = fx.policy.CanActOnEmployee(ctx, fx.owner, fx.peer.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	err = fx.policy.RequireManageProject(ctx, fx.stranger, fx.project.ID)
	requireKind(t, err, utils.KindForbidden)
}

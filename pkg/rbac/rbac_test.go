package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRolePermissions(t *testing.T) {
	assert.True(t, HasPermission(RoleHR, PermissionManageTemplate))
	assert.True(t, HasPermission(RoleHR, PermissionAssignTemplate))
	assert.False(t, HasPermission(RoleHR, PermissionCompleteOwnTodo))

	assert.True(t, HasPermission(RoleNewHire, PermissionCompleteOwnTodo))
	assert.False(t, HasPermission(RoleNewHire, PermissionManageTemplate))
	assert.False(t, HasPermission("ADMIN", PermissionReadTemplate))
}

func TestCheckPermission(t *testing.T) {
	assert.NoError(t, CheckPermission(RoleHR, PermissionReadTeamProgress))

	err := CheckPermission(RoleNewHire, PermissionAssignTemplate)
	var denied *PermissionDeniedError
	assert.True(t, errors.As(err, &denied))
	assert.Equal(t, RoleNewHire, denied.Role)
	assert.Equal(t, PermissionAssignTemplate, denied.Permission)
}

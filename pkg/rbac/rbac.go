package rbac

import "slices"

// 权限常量
const (
	// 模板与任务维护（HR）
	PermissionManageTemplate = "template:manage"
	PermissionReadTemplate   = "template:read"
	PermissionAssignTemplate = "template:assign"

	// Todo 与进度
	PermissionReadOwnTodo      = "todo:read_own"
	PermissionCompleteOwnTodo  = "todo:complete_own"
	PermissionManageTodo       = "todo:manage"
	PermissionReadTeamProgress = "progress:read_team"
	PermissionReadOwnProgress  = "progress:read_own"

	// 通知
	PermissionReadNotification = "notification:read"
)

// 角色常量，与 users.role 列保持一致
const (
	RoleHR      = "HR"
	RoleNewHire = "NEW_HIRE"
)

// 角色权限映射
var rolePermissions = map[string][]string{
	RoleHR: {
		PermissionManageTemplate,
		PermissionReadTemplate,
		PermissionAssignTemplate,
		PermissionManageTodo,
		PermissionReadTeamProgress,
		PermissionReadNotification,
	},
	RoleNewHire: {
		PermissionReadTemplate,
		PermissionReadOwnTodo,
		PermissionCompleteOwnTodo,
		PermissionReadOwnProgress,
		PermissionReadNotification,
	},
}

// HasPermission 检查角色是否有指定权限
func HasPermission(role string, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}
	return slices.Contains(permissions, permission)
}

// CheckPermission 检查角色是否有指定权限（返回错误而不是布尔值，便于处理）
func CheckPermission(role string, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError 表示权限不足的错误
type PermissionDeniedError struct {
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions: " + e.Permission
}

package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleSystemManager = "system_manager"
	RoleAdmin         = "admin"
	RoleAgent         = "agent"
)

func IsSystemManager(role string) bool { return role == RoleSystemManager }

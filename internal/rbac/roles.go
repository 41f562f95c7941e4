package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

func Valid(role string) bool { return role == RoleOperator || role == RoleViewer }

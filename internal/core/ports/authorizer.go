package ports

// Authorizer is the externally supplied capability check gating admin-only
// operations.
type Authorizer interface {
	IsPrivileged(caller string) bool
}

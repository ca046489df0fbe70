package contextkeys

type ContextKey string

const (
	// DBContextKey carries the *gorm.DB handle (connection pool or an open
	// transaction) through the gin context. Handlers must read the database
	// through it so tests can substitute a per-test transaction.
	DBContextKey ContextKey = "db"

	// UserIDContextKey and RoleContextKey carry the authenticated principal
	// set by the auth middleware.
	UserIDContextKey ContextKey = "userID"
	RoleContextKey   ContextKey = "role"
)

package contextkeys

type contextKey string

const (
	UserIDKey contextKey = "UserID"
	RoleKey   contextKey = "Role"
	TxIDKey   contextKey = "TxID"
)

package domain

type CtxKey string

const (
	KeySubject   CtxKey = "Subject"
	KeyRole      CtxKey = "Role"
	KeyRequestID CtxKey = "RequestID"
)

// RoleAdmin is the only role allowed on the scheduler's admin API.
const RoleAdmin = "admin"

package domain

// AccountKind distinguishes the two account tables sharing the access token store.
type AccountKind string

const (
	AccountKindUser  AccountKind = "user"
	AccountKindAdmin AccountKind = "admin"
)

// SuperAdminID is the admin allowed to bypass every capability check.
const SuperAdminID int64 = 1

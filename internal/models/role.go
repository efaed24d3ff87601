package models

// RoleID identifies a role. IDs are grouped in bands: 1000s are functional
// (contributor) roles, 5000 and above are administrative.
type RoleID uint64

const (
	RoleReporter RoleID = 1001
	RoleTriager  RoleID = 2001
	RoleFrontend RoleID = 3101
	RoleBackend  RoleID = 3201
	RoleDatabase RoleID = 3301
	RoleDevOps   RoleID = 3401
	RoleAdmin    RoleID = 5001
)

// adminBandFloor is exclusive: any role above it counts as Admin.
const adminBandFloor RoleID = 5000

// IsAdmin reports whether the role belongs to the administrative band.
func (r RoleID) IsAdmin() bool {
	return r > adminBandFloor
}

// AtLeast reports whether the role meets a minimum threshold.
func (r RoleID) AtLeast(min RoleID) bool {
	return r >= min
}

type Role struct {
	ID   RoleID `gorm:"primarykey;autoIncrement:false" json:"role_id"`
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"role_name"`
}

// UserRole is the join row between users and roles. The composite key keeps
// a role unique per user.
type UserRole struct {
	UserID uint64 `gorm:"primarykey;autoIncrement:false" json:"user_id"`
	RoleID RoleID `gorm:"primarykey;autoIncrement:false" json:"role_id"`
}

// DefaultRoles is the predefined role set.
func DefaultRoles() []Role {
	return []Role{
		{ID: RoleReporter, Name: "Reporter"},
		{ID: RoleTriager, Name: "Triager"},
		{ID: RoleFrontend, Name: "Frontend"},
		{ID: RoleBackend, Name: "Backend"},
		{ID: RoleDatabase, Name: "Database"},
		{ID: RoleDevOps, Name: "DevOps"},
		{ID: RoleAdmin, Name: "Admin"},
	}
}

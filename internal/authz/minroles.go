package authz

import "github.com/yukikurage/issue-tracker-api/internal/models"

// Resource names a family of endpoints in the minimum-role table.
type Resource string

const (
	ResourceProducts  Resource = "products"
	ResourceUsers     Resource = "users"
	ResourceIssues    Resource = "issues"
	ResourceUserRoles Resource = "userRoles"
	ResourceStatuses  Resource = "statuses"
	ResourcePriority  Resource = "priority"
	ResourceComments  Resource = "comments"
	ResourceTypes     Resource = "types"
	ResourceUploads   Resource = "uploads"
)

// Operation is the HTTP-verb equivalent of an action on a resource.
type Operation string

const (
	OpGet    Operation = "get"
	OpPost   Operation = "post"
	OpPut    Operation = "put"
	OpDelete Operation = "delete"
)

var minRoles = map[Resource]map[Operation]models.RoleID{
	ResourceProducts:  {OpGet: 1000, OpPost: 5000, OpPut: 5000, OpDelete: 5000},
	ResourceUsers:     {OpGet: 1000, OpPost: 5000, OpPut: 5000, OpDelete: 5000},
	ResourceIssues:    {OpGet: 1000, OpPost: 1000, OpPut: 1000, OpDelete: 5000},
	ResourceUserRoles: {OpGet: 1000},
	ResourceStatuses:  {OpGet: 1000},
	ResourcePriority:  {OpGet: 1000},
	ResourceComments:  {OpPost: 1000, OpDelete: 1000},
	ResourceTypes:     {OpGet: 1000},
	ResourceUploads:   {OpGet: 1000, OpPost: 1000, OpDelete: 1000},
}

// MinimumRoleFor returns the threshold a principal's best role must reach
// for the pair. ok is false for pairs missing from the table, which callers
// treat as closed.
func MinimumRoleFor(resource Resource, op Operation) (min models.RoleID, ok bool) {
	ops, ok := minRoles[resource]
	if !ok {
		return 0, false
	}
	min, ok = ops[op]
	return min, ok
}

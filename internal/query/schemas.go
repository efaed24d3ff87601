package query

// Keys are accepted in snake_case and in the camelCase spelling older
// clients send.

// Issues is the list schema for /api/issues.
var Issues = Schema{
	Table: "issues",
	Fields: map[string]Field{
		"issue_id":     {Column: "id", Kind: Int},
		"issueId":      {Column: "id", Kind: Int},
		"creator_id":   {Column: "creator_id", Kind: Int},
		"creatorId":    {Column: "creator_id", Kind: Int},
		"type_id":      {Column: "type_id", Kind: Int},
		"typeId":       {Column: "type_id", Kind: Int},
		"status_id":    {Column: "status_id", Kind: Int},
		"statusId":     {Column: "status_id", Kind: Int},
		"product_id":   {Column: "product_id", Kind: Int},
		"productId":    {Column: "product_id", Kind: Int},
		"priority_id":  {Column: "priority_id", Kind: Int},
		"priorityId":   {Column: "priority_id", Kind: Int},
		"resp_role_id": {Column: "resp_role_id", Kind: Int},
		"respRoleId":   {Column: "resp_role_id", Kind: Int},
	},
	Sortable: map[string]string{
		"issue_id":    "id",
		"issueId":     "id",
		"issue_name":  "issue_name",
		"issueName":   "issue_name",
		"created_at":  "created_at",
		"createdAt":   "created_at",
		"updated_at":  "updated_at",
		"updatedAt":   "updated_at",
		"closed_at":   "closed_at",
		"closedAt":    "closed_at",
		"status_id":   "status_id",
		"statusId":    "status_id",
		"priority_id": "priority_id",
		"priorityId":  "priority_id",
	},
	DefaultSort:   "created_at",
	OrGroup:       []string{"creator_id", "creatorId", "resp_role_id", "respRoleId"},
	SearchColumns: []string{"issue_name", "issue_desc"},
}

// Users is the list schema for /api/users.
var Users = Schema{
	Table: "users",
	Fields: map[string]Field{
		"user_id":    {Column: "id", Kind: Int},
		"userId":     {Column: "id", Kind: Int},
		"email":      {Column: "email", Kind: String},
		"first_name": {Column: "first_name", Kind: String},
		"firstName":  {Column: "first_name", Kind: String},
		"last_name":  {Column: "last_name", Kind: String},
		"lastName":   {Column: "last_name", Kind: String},
	},
	Sortable: map[string]string{
		"user_id":    "id",
		"userId":     "id",
		"email":      "email",
		"first_name": "first_name",
		"firstName":  "first_name",
		"last_name":  "last_name",
		"lastName":   "last_name",
		"created_at": "created_at",
		"createdAt":  "created_at",
	},
	DefaultSort:   "user_id",
	SearchColumns: []string{"first_name", "last_name", "email"},
}

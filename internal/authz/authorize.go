package authz

import (
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/models"
)

// Action is the closed set of operations the evaluator decides on.
type Action string

const (
	IssueList        Action = "issue.list"
	IssueView        Action = "issue.view"
	IssueCreate      Action = "issue.create"
	IssueUpdate      Action = "issue.update"
	IssueDelete      Action = "issue.delete"
	CommentCreate    Action = "comment.create"
	CommentDelete    Action = "comment.delete"
	AttachmentCreate Action = "attachment.create"
	AttachmentView   Action = "attachment.view"
	AttachmentDelete Action = "attachment.delete"
	UserList         Action = "user.list"
	UserView         Action = "user.view"
	UserCreate       Action = "user.create"
	UserUpdate       Action = "user.update"
	UserDelete       Action = "user.delete"
	ProductList      Action = "product.list"
	ProductCreate    Action = "product.create"
	ProductUpdate    Action = "product.update"
	ProductDelete    Action = "product.delete"
	LookupStatuses   Action = "lookup.statuses"
	LookupPriorities Action = "lookup.priority"
	LookupTypes      Action = "lookup.types"
	LookupRoles      Action = "lookup.roles"
)

// Snapshot is the ownership metadata of the target resource. For comments
// and attachments OwnerID is the comment author; RespRoleID is only
// meaningful for issues.
type Snapshot struct {
	OwnerID    uint64
	RespRoleID models.RoleID
}

type fineRule func(p Principal, s Snapshot) bool

type actionRule struct {
	resource Resource
	op       Operation
	fine     fineRule
}

func ownerOrAdmin(p Principal, s Snapshot) bool {
	return p.UserID == s.OwnerID || p.IsAdmin()
}

func ownerAdminOrAssignee(p Principal, s Snapshot) bool {
	return ownerOrAdmin(p, s) || p.HasRole(s.RespRoleID)
}

func ownerOnly(p Principal, s Snapshot) bool {
	return p.UserID == s.OwnerID
}

var actions = map[Action]actionRule{
	IssueList:        {resource: ResourceIssues, op: OpGet},
	IssueView:        {resource: ResourceIssues, op: OpGet, fine: ownerAdminOrAssignee},
	IssueCreate:      {resource: ResourceIssues, op: OpPost},
	IssueUpdate:      {resource: ResourceIssues, op: OpPut, fine: ownerAdminOrAssignee},
	IssueDelete:      {resource: ResourceIssues, op: OpDelete, fine: ownerOrAdmin},
	CommentCreate:    {resource: ResourceComments, op: OpPost},
	CommentDelete:    {resource: ResourceComments, op: OpDelete, fine: ownerOrAdmin},
	AttachmentCreate: {resource: ResourceUploads, op: OpPost, fine: ownerOnly},
	AttachmentView:   {resource: ResourceUploads, op: OpGet, fine: ownerAdminOrAssignee},
	AttachmentDelete: {resource: ResourceUploads, op: OpDelete, fine: ownerOrAdmin},
	UserList:         {resource: ResourceUsers, op: OpGet},
	UserView:         {resource: ResourceUsers, op: OpGet},
	UserCreate:       {resource: ResourceUsers, op: OpPost},
	UserUpdate:       {resource: ResourceUsers, op: OpPut},
	UserDelete:       {resource: ResourceUsers, op: OpDelete},
	ProductList:      {resource: ResourceProducts, op: OpGet},
	ProductCreate:    {resource: ResourceProducts, op: OpPost},
	ProductUpdate:    {resource: ResourceProducts, op: OpPut},
	ProductDelete:    {resource: ResourceProducts, op: OpDelete},
	LookupStatuses:   {resource: ResourceStatuses, op: OpGet},
	LookupPriorities: {resource: ResourcePriority, op: OpGet},
	LookupTypes:      {resource: ResourceTypes, op: OpGet},
	LookupRoles:      {resource: ResourceUserRoles, op: OpGet},
}

// Gate returns the coarse-gate pair for an action.
func Gate(action Action) (Resource, Operation, bool) {
	rule, ok := actions[action]
	return rule.resource, rule.op, ok
}

// Deny reasons.
const (
	ReasonUnauthenticated = "authentication required"
	ReasonUnknownAction   = "unknown action"
	ReasonInsufficient    = "insufficient role"
	ReasonReporterOnly    = "only reporters can create issues"
	ReasonNotOwner        = "not permitted on this resource"
	ReasonNoSnapshot      = "resource metadata unavailable"
)

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err converts a deny into an Unauthorized or Forbidden error.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonUnauthenticated {
		return apierrors.New(apierrors.KindUnauthorized, d.Reason)
	}
	return apierrors.New(apierrors.KindForbidden, d.Reason)
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Authorize decides whether p may perform action. Actions with an ownership
// rule need a snapshot of the target; a nil snapshot is denied. Authorize is
// pure: the same inputs always give the same decision.
func Authorize(p Principal, action Action, snapshot *Snapshot) Decision {
	if !p.Authenticated() {
		return deny(ReasonUnauthenticated)
	}
	rule, ok := actions[action]
	if !ok {
		return deny(ReasonUnknownAction)
	}
	if d := CoarseCheck(p, rule.resource, rule.op); !d.Allowed {
		return d
	}
	if action == IssueCreate && !p.HasRole(models.RoleReporter) {
		return deny(ReasonReporterOnly)
	}
	if rule.fine == nil {
		return allow()
	}
	if snapshot == nil {
		return deny(ReasonNoSnapshot)
	}
	if !rule.fine(p, *snapshot) {
		return deny(ReasonNotOwner)
	}
	return allow()
}

// CoarseCheck applies the minimum-role table alone.
func CoarseCheck(p Principal, resource Resource, op Operation) Decision {
	if !p.Authenticated() {
		return deny(ReasonUnauthenticated)
	}
	min, ok := MinimumRoleFor(resource, op)
	if !ok || !p.Meets(min) {
		return deny(ReasonInsufficient)
	}
	return allow()
}

package dto

import (
	"time"

	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/utils"
)

// IssueDTO represents an issue in API responses
type IssueDTO struct {
	ID          uint64            `json:"issue_id"`
	Name        string            `json:"issue_name"`
	Description string            `json:"issue_desc"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	ClosedAt    *time.Time        `json:"closed_at"`
	CreatorID   uint64            `json:"creator_id"`
	TypeID      uint64            `json:"type_id"`
	StatusID    models.StatusID   `json:"status_id"`
	Status      string            `json:"status"`
	ProductID   *uint64           `json:"product_id"`
	PriorityID  uint64            `json:"priority_id"`
	RespRoleID  models.RoleID     `json:"resp_role_id"`
	Creator     *UserSummaryDTO   `json:"creator,omitempty"`
	Type        *models.IssueType `json:"type,omitempty"`
	Priority    *models.Priority  `json:"priority,omitempty"`
	Product     *models.Product   `json:"product,omitempty"`
	RespRole    *RoleDTO          `json:"resp_role,omitempty"`
	Comments    []CommentDTO      `json:"comments,omitempty"`
}

// IssueListResponse represents a paginated list of issues
type IssueListResponse struct {
	Issues     []IssueDTO               `json:"issues"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// StatusHistoryDTO represents one status transition
type StatusHistoryDTO struct {
	ID         uint64          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	StatusID   models.StatusID `json:"status_id"`
	Status     string          `json:"status"`
	RespRoleID models.RoleID   `json:"resp_role_id"`
	User       UserSummaryDTO  `json:"user"`
}

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID        uint64          `json:"comment_id"`
	Text      string          `json:"comment_text"`
	CreatedAt time.Time       `json:"created_at"`
	IssueID   uint64          `json:"issue_id"`
	UserID    uint64          `json:"user_id"`
	User      *UserSummaryDTO `json:"user,omitempty"`
	Documents []DocumentDTO   `json:"documents"`
}

// DocumentDTO represents an attachment in API responses
type DocumentDTO struct {
	ID          uint64    `json:"document_id"`
	URL         string    `json:"document_url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CommentID   uint64    `json:"comment_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Conversion functions

// ToIssueDTO converts an Issue model to IssueDTO
func ToIssueDTO(issue models.Issue) IssueDTO {
	dto := IssueDTO{
		ID:          issue.ID,
		Name:        issue.Name,
		Description: issue.Description,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
		ClosedAt:    issue.ClosedAt,
		CreatorID:   issue.CreatorID,
		TypeID:      issue.TypeID,
		StatusID:    issue.StatusID,
		Status:      issue.StatusID.String(),
		ProductID:   issue.ProductID,
		PriorityID:  issue.PriorityID,
		RespRoleID:  issue.RespRoleID,
		Product:     issue.Product,
	}

	// Include relations if preloaded
	if issue.Creator.ID != 0 {
		creator := ToUserSummaryDTO(issue.Creator)
		dto.Creator = &creator
	}
	if issue.Type.ID != 0 {
		t := issue.Type
		dto.Type = &t
	}
	if issue.Priority.ID != 0 {
		p := issue.Priority
		dto.Priority = &p
	}
	if issue.RespRole.ID != 0 {
		role := ToRoleDTO(issue.RespRole)
		dto.RespRole = &role
	}
	if len(issue.Comments) > 0 {
		dto.Comments = make([]CommentDTO, len(issue.Comments))
		for i, comment := range issue.Comments {
			dto.Comments[i] = ToCommentDTO(comment)
		}
	}

	return dto
}

// ToIssueListResponse converts a page of issues to IssueListResponse
func ToIssueListResponse(issues []models.Issue, pagination utils.PaginationResponse) IssueListResponse {
	items := make([]IssueDTO, len(issues))
	for i, issue := range issues {
		items[i] = ToIssueDTO(issue)
	}
	return IssueListResponse{Issues: items, Pagination: pagination}
}

// ToStatusHistoryDTOs converts history rows in order
func ToStatusHistoryDTOs(rows []models.StatusHistory) []StatusHistoryDTO {
	out := make([]StatusHistoryDTO, len(rows))
	for i, row := range rows {
		out[i] = StatusHistoryDTO{
			ID:         row.ID,
			CreatedAt:  row.CreatedAt,
			StatusID:   row.StatusID,
			Status:     row.StatusID.String(),
			RespRoleID: row.RespRoleID,
			User:       ToUserSummaryDTO(row.User),
		}
	}
	return out
}

// ToCommentDTO converts a Comment model to CommentDTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	dto := CommentDTO{
		ID:        comment.ID,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
		IssueID:   comment.IssueID,
		UserID:    comment.UserID,
		Documents: ToDocumentDTOs(comment.Documents),
	}
	if comment.User.ID != 0 {
		user := ToUserSummaryDTO(comment.User)
		dto.User = &user
	}
	return dto
}

// ToDocumentDTOs converts attachment rows
func ToDocumentDTOs(docs []models.Document) []DocumentDTO {
	out := make([]DocumentDTO, len(docs))
	for i, doc := range docs {
		out[i] = DocumentDTO{
			ID:          doc.ID,
			URL:         doc.URL,
			ContentType: doc.ContentType,
			Size:        doc.Size,
			CommentID:   doc.CommentID,
			CreatedAt:   doc.CreatedAt,
		}
	}
	return out
}

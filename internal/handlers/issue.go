package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/issue-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/lifecycle"
	"github.com/yukikurage/issue-tracker-api/internal/middleware"
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/query"
	"github.com/yukikurage/issue-tracker-api/internal/services"
	"github.com/yukikurage/issue-tracker-api/internal/utils"
)

type IssueHandler struct {
	issueService *services.IssueService
}

func NewIssueHandler(issueService *services.IssueService) *IssueHandler {
	return &IssueHandler{
		issueService: issueService,
	}
}

// issueFields are the writable issue fields shared by create and update.
// status accepts a status name as an alternative to status_id.
type issueFields struct {
	Name        *string          `json:"issue_name"`
	Description *string          `json:"issue_desc"`
	TypeID      *uint64          `json:"type_id"`
	PriorityID  *uint64          `json:"priority_id"`
	ProductID   *uint64          `json:"product_id"`
	RespRoleID  *models.RoleID   `json:"resp_role_id"`
	StatusID    *models.StatusID `json:"status_id"`
	Status      *string          `json:"status"`
}

// An unknown name resolves to the zero StatusID so the lifecycle rejects it
// after the Closed guard has run.
func (f issueFields) status() *models.StatusID {
	if f.StatusID != nil || f.Status == nil {
		return f.StatusID
	}
	id, _ := models.ParseStatus(*f.Status)
	return &id
}

// ListIssues returns the issues visible to the current user, filtered by
// the query string
func (h *IssueHandler) ListIssues(c *gin.Context) {
	issues, q, total, err := h.issueService.List(c.Request.Context(), middleware.GetPrincipal(c), query.FromValues(c.Request.URL.Query()))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToIssueListResponse(issues, utils.NewPaginationResponse(q, total)))
}

// GetIssue returns a specific issue by ID
func (h *IssueHandler) GetIssue(c *gin.Context) {
	issue, err := h.issueService.Get(c.Request.Context(), middleware.GetPrincipal(c), middleware.ParamID(c))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToIssueDTO(*issue))
}

// CreateIssue creates a new issue owned by the current user
func (h *IssueHandler) CreateIssue(c *gin.Context) {
	var req issueFields
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	status := req.status()

	input := services.CreateIssueInput{
		ProductID:  req.ProductID,
		StatusID:   status,
		RespRoleID: req.RespRoleID,
	}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.TypeID != nil {
		input.TypeID = *req.TypeID
	}
	if req.PriorityID != nil {
		input.PriorityID = *req.PriorityID
	}

	issue, err := h.issueService.Create(c.Request.Context(), middleware.GetPrincipal(c), input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToIssueDTO(*issue))
}

// UpdateIssue applies a partial update; omitted fields are left unchanged
func (h *IssueHandler) UpdateIssue(c *gin.Context) {
	var req issueFields
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	status := req.status()

	issue, err := h.issueService.Update(c.Request.Context(), middleware.GetPrincipal(c), middleware.ParamID(c), lifecycle.Change{
		Name:        req.Name,
		Description: req.Description,
		TypeID:      req.TypeID,
		PriorityID:  req.PriorityID,
		ProductID:   req.ProductID,
		RespRoleID:  req.RespRoleID,
		StatusID:    status,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToIssueDTO(*issue))
}

// DeleteIssue deletes an issue with its comments and attachments
func (h *IssueHandler) DeleteIssue(c *gin.Context) {
	if err := h.issueService.Delete(c.Request.Context(), middleware.GetPrincipal(c), middleware.ParamID(c)); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

// GetHistory returns the status history of an issue, oldest first
func (h *IssueHandler) GetHistory(c *gin.Context) {
	history, err := h.issueService.History(c.Request.Context(), middleware.GetPrincipal(c), middleware.ParamID(c))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": dto.ToStatusHistoryDTOs(history)})
}

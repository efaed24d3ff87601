package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/issue-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/middleware"
	"github.com/yukikurage/issue-tracker-api/internal/services"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// CreateComment adds a comment by the current user to an issue
func (h *CommentHandler) CreateComment(c *gin.Context) {
	type CreateCommentRequest struct {
		IssueID uint64 `json:"issue_id" binding:"required"`
		Text    string `json:"comment_text" binding:"required"`
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), middleware.GetPrincipal(c), services.CreateCommentInput{
		IssueID: req.IssueID,
		Text:    req.Text,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// GetComment returns a comment with its attachments
func (h *CommentHandler) GetComment(c *gin.Context) {
	comment, err := h.commentService.Get(c.Request.Context(), middleware.GetPrincipal(c), middleware.ParamID(c))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCommentDTO(*comment))
}

// DeleteComment deletes a comment and its attachments
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	if err := h.commentService.Delete(c.Request.Context(), middleware.GetPrincipal(c), middleware.ParamID(c)); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

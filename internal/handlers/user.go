package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/issue-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/middleware"
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/query"
	"github.com/yukikurage/issue-tracker-api/internal/services"
	"github.com/yukikurage/issue-tracker-api/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers returns users filtered by the query string
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, q, total, err := h.userService.List(c.Request.Context(), middleware.GetPrincipal(c), query.FromValues(c.Request.URL.Query()))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserListResponse(users, utils.NewPaginationResponse(q, total)))
}

// GetUser returns a user by ID
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), middleware.GetPrincipal(c), middleware.ParamID(c))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// CreateUser registers a user with roles
func (h *UserHandler) CreateUser(c *gin.Context) {
	type CreateUserRequest struct {
		FirstName string          `json:"first_name" binding:"required"`
		LastName  string          `json:"last_name" binding:"required"`
		Email     string          `json:"email" binding:"required"`
		Password  string          `json:"password"`
		RoleIDs   []models.RoleID `json:"role_ids"`
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.Create(c.Request.Context(), middleware.GetPrincipal(c), services.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		RoleIDs:   req.RoleIDs,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// UpdateUser edits a user; role_ids, when present, replaces the role set
func (h *UserHandler) UpdateUser(c *gin.Context) {
	type UpdateUserRequest struct {
		FirstName *string          `json:"first_name"`
		LastName  *string          `json:"last_name"`
		Email     *string          `json:"email"`
		Password  *string          `json:"password"`
		RoleIDs   *[]models.RoleID `json:"role_ids"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	}
	if req.RoleIDs != nil {
		input.RoleIDs = *req.RoleIDs
		if input.RoleIDs == nil {
			input.RoleIDs = []models.RoleID{}
		}
	}

	user, err := h.userService.Update(c.Request.Context(), middleware.GetPrincipal(c), middleware.ParamID(c), input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser deletes a user
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), middleware.GetPrincipal(c), middleware.ParamID(c)); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/i3m/tenant-guard/internal/api/response"
	"github.com/i3m/tenant-guard/internal/core/domain"
	"github.com/i3m/tenant-guard/internal/core/ports"
)

// UserHandler handles account administration.
type UserHandler struct {
	authService ports.AuthService
}

func NewUserHandler(authService ports.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

type createUserRequest struct {
	Email      string `json:"email"      validate:"required,email"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password"   validate:"required,min=8"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Department string `json:"department,omitempty"`
	Role       string `json:"role"       validate:"required,role"`
	TenantID   string `json:"tenantId,omitempty"`
}

// Create creates a new user account.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-Tenant-ID  header    string             true  "Tenant id"
// @Param        body         body      createUserRequest  true  "User details"
// @Success      201          {object}  response.Envelope{data=domain.User}
// @Failure      400          {object}  response.Envelope
// @Failure      403          {object}  response.Envelope
// @Failure      409          {object}  response.Envelope
// @Router       /v1/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.CreateUser(c.Request().Context(), ports.NewUserInput{
		Email:      req.Email,
		Username:   req.Username,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Department: req.Department,
		Role:       domain.Role(req.Role),
		TenantID:   req.TenantID,
	})
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusCreated, user)
}

package handlers

import (
	"marketplace/internal/middleware"
	"marketplace/internal/models"
	"marketplace/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles account administration. Every route is admin only.
type UserHandler struct {
	service  *services.UserService
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the user routes behind an admin guard.
func (h *UserHandler) RegisterRoutes(router fiber.Router, guard middleware.Guard) {
	userRoutes := router.Group("/users", guard(models.RoleAdmin))
	userRoutes.Get("/", h.HandleListUsers)
	userRoutes.Post("/", h.HandleCreateUser)
	userRoutes.Delete("/:id", h.HandleDeleteUser)
	userRoutes.Patch("/:id", h.HandleUpdateRole)
}

// HandleListUsers returns every account.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve users", err)
	}
	return c.JSON(users)
}

// CreateUserRequest is the admin variant of RegisterRequest; any role is allowed.
type CreateUserRequest struct {
	Name     string      `json:"name" validate:"required,max=100"`
	Email    string      `json:"email" validate:"required,email,max=255"`
	Password string      `json:"password" validate:"required,min=6,max=72"`
	Role     models.Role `json:"role" validate:"required,oneof=admin seller shopper"`
}

// HandleCreateUser creates an account with any role.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if ok, err := validateBody(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.service.CreateUser(c.UserContext(), services.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return respondError(c, "Could not create user", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"userId":  user.ID,
	})
}

// HandleDeleteUser removes an account other than the caller's.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	claim, err := currentClaim(c)
	if err != nil {
		return respondError(c, "Could not delete user", err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, "Could not delete user", err)
	}

	if err := h.service.DeleteUser(c.UserContext(), claim.SubjectID, id); err != nil {
		return respondError(c, "Could not delete user", err)
	}
	return c.JSON(fiber.Map{
		"message": "User deleted successfully",
	})
}

// UpdateRoleRequest represents the request body for a role change.
type UpdateRoleRequest struct {
	Role models.Role `json:"role" validate:"required"`
}

// HandleUpdateRole promotes a user to admin.
func (h *UserHandler) HandleUpdateRole(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, "Could not update user", err)
	}
	var req UpdateRoleRequest
	if ok, err := validateBody(c, h.validate, &req); !ok {
		return err
	}

	if err := h.service.UpdateRole(c.UserContext(), id, req.Role); err != nil {
		return respondError(c, "Could not update user", err)
	}
	return c.JSON(fiber.Map{
		"message": "User role updated successfully",
	})
}

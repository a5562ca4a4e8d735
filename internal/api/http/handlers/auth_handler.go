package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/credential-auth/internal/api/dto"
	"github.com/spec-kit/credential-auth/internal/auth"
	"github.com/spec-kit/credential-auth/internal/service"
	apperrors "github.com/spec-kit/credential-auth/pkg/util"
)

// AuthHandler exposes the credential endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError(map[string]string{"body": "invalid payload"})
	}
	if err := dto.Check(req); err != nil {
		return err
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewAuthData(session.Account, session.Token),
	})
}

// Register handles POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError(map[string]string{"body": "invalid payload"})
	}
	if err := dto.Check(req); err != nil {
		return err
	}

	session, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		RoleID:    req.RoleID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    dto.NewAuthData(session.Account, session.Token),
	})
}

// Me handles GET /me. The auth middleware has already resolved the token.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("not authenticated")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewAccountView(principal.Account),
	})
}

// Logout handles POST /logout, revoking the caller's own token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("not authenticated")
	}

	if err := h.auth.Logout(c.UserContext(), principal.Account.ID, principal.Token); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "logged out",
	})
}

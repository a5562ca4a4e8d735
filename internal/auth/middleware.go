package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/credential-auth/internal/domain"
	apperrors "github.com/spec-kit/credential-auth/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller: the resolved account plus
// the raw bearer it presented, so logout can revoke exactly that token.
type Principal struct {
	Account *domain.Account
	Token   string
}

// IdentityResolver resolves a presented bearer token to an account. The
// auth service satisfies it.
type IdentityResolver interface {
	WhoAmI(ctx context.Context, rawToken string) (*domain.Account, error)
}

// Middleware validates bearer tokens and loads principals. Resolution
// happens once per request; handlers read the result from locals.
type Middleware struct {
	resolver IdentityResolver
}

// NewMiddleware constructs middleware.
func NewMiddleware(resolver IdentityResolver) *Middleware {
	return &Middleware{resolver: resolver}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthenticated("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthenticated("invalid authorization header")
	}

	account, err := m.resolver.WhoAmI(c.UserContext(), parts[1])
	if err != nil {
		return err
	}

	c.Locals(principalKey, &Principal{Account: account, Token: parts[1]})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

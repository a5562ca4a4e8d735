package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/credential-auth/internal/auth"
	"github.com/spec-kit/credential-auth/internal/config"
	"github.com/spec-kit/credential-auth/internal/domain"
	"github.com/spec-kit/credential-auth/internal/events"
	"github.com/spec-kit/credential-auth/internal/repository"
	apperrors "github.com/spec-kit/credential-auth/pkg/util"
)

// Session pairs an authenticated account with its freshly issued bearer
// token. The raw token appears here and nowhere else.
type Session struct {
	Account *domain.Account
	Token   string
}

// RegisterInput carries the already-validated registration fields.
type RegisterInput struct {
	RoleID    int64
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AuthService coordinates login, registration, identity lookup and logout.
type AuthService struct {
	accounts   repository.AccountRepository
	roles      repository.RoleRepository
	tokens     auth.TokenStore
	dispatcher events.Dispatcher
	bcryptCost int
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	AccountRepo repository.AccountRepository
	RoleRepo    repository.RoleRepository
	TokenStore  auth.TokenStore
	Dispatcher  events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		accounts:   deps.AccountRepo,
		roles:      deps.RoleRepo,
		tokens:     deps.TokenStore,
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// NormalizeEmail is applied before every lookup and insert so the unique
// index and the login path agree on a single representation.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password return the same error value.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.publish(ctx, events.EventLoginFailed, 0, email, nil)
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, err
	}

	if !account.Active() {
		s.publish(ctx, events.EventLoginFailed, account.ID, email, nil)
		return nil, apperrors.NewAccountInactive()
	}

	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		s.publish(ctx, events.EventLoginFailed, account.ID, email, nil)
		return nil, apperrors.NewInvalidCredentials()
	}

	raw, meta, err := s.tokens.Issue(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventLoginSucceeded, account.ID, email, events.LoginSucceededPayload{TokenID: meta.ID})
	return &Session{Account: account, Token: raw}, nil
}

// Register creates an account and logs it in. The duplicate-email race is
// settled by the store's unique index; its violation surfaces as the same
// field-level failure as the pre-check.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	input.Email = NormalizeEmail(input.Email)

	if _, err := s.roles.GetByID(ctx, input.RoleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError(map[string]string{"id_rol": "role does not exist"})
		}
		return nil, err
	}

	if _, err := s.accounts.GetByEmail(ctx, input.Email); err == nil {
		return nil, emailTakenError()
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		RoleID:       input.RoleID,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: hash,
		Status:       domain.AccountStatusActive,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, emailTakenError()
		}
		return nil, err
	}

	// reload with role joined
	account, err = s.accounts.GetByID(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	raw, _, err := s.tokens.Issue(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventAccountRegistered, account.ID, account.Email, events.AccountRegisteredPayload{RoleID: account.RoleID})
	return &Session{Account: account, Token: raw}, nil
}

// WhoAmI resolves a presented bearer to its account, role included.
func (s *AuthService) WhoAmI(ctx context.Context, rawToken string) (*domain.Account, error) {
	accountID, err := s.tokens.Resolve(ctx, rawToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			return nil, apperrors.NewUnauthenticated("invalid or expired token")
		}
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthenticated("invalid or expired token")
		}
		return nil, err
	}
	return account, nil
}

// Logout revokes the presented bearer. Revoking an already-revoked token is
// indistinguishable from success.
func (s *AuthService) Logout(ctx context.Context, accountID int64, rawToken string) error {
	if err := s.tokens.Revoke(ctx, rawToken); err != nil {
		return err
	}

	tokenID := ""
	if id, _, err := auth.SplitToken(rawToken); err == nil {
		tokenID = id
	}
	s.publish(ctx, events.EventLoggedOut, accountID, "", events.LoggedOutPayload{TokenID: tokenID})
	return nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, accountID int64, email string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		AccountID: accountID,
		Email:     email,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

func emailTakenError() error {
	return apperrors.NewValidationError(map[string]string{"email": "email already taken"})
}

package dto

import "github.com/spec-kit/credential-auth/internal/domain"

// LoginRequest payload for login. JSON field names follow the published
// endpoint contract.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	RoleID               int64  `json:"id_rol" validate:"required"`
	FirstName            string `json:"nombre" validate:"required,max=100"`
	LastName             string `json:"apellido" validate:"required,max=100"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// RoleView is the serialized role.
type RoleView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AccountView is the sanitized account representation. There is no
// password field; the hash never leaves the service.
type AccountView struct {
	ID        int64     `json:"id"`
	RoleID    int64     `json:"role_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Avatar    string    `json:"avatar"`
	Status    string    `json:"status"`
	Role      *RoleView `json:"role,omitempty"`
}

// AuthData wraps the account and token returned by login and register.
type AuthData struct {
	Account   AccountView `json:"usuario"`
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
}

// NewAccountView maps a domain account to its sanitized view.
func NewAccountView(account *domain.Account) AccountView {
	view := AccountView{
		ID:        account.ID,
		RoleID:    account.RoleID,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Email:     account.Email,
		Phone:     account.Phone,
		Address:   account.Address,
		Avatar:    account.Avatar,
		Status:    string(account.Status),
	}
	if account.Role != nil {
		view.Role = &RoleView{
			ID:          account.Role.ID,
			Name:        account.Role.Name,
			Description: account.Role.Description,
		}
	}
	return view
}

// NewAuthData builds the login/register response payload.
func NewAuthData(account *domain.Account, token string) AuthData {
	return AuthData{
		Account:   NewAccountView(account),
		Token:     token,
		TokenType: "Bearer",
	}
}

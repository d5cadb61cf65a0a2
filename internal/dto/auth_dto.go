package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegisterRequest struct {
	Email           string `json:"email"            validate:"required,email,max=254"`
	FullName        string `json:"full_name"        validate:"required,min=2,max=200"`
	Identification  string `json:"identification"   validate:"omitempty,max=50"`
	Position        string `json:"position"         validate:"omitempty,max=100"`
	Phone           string `json:"phone"            validate:"omitempty,max=20"`
	Password        string `json:"password"         validate:"required,min=6"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token           string `json:"token"            validate:"required"`
	Password        string `json:"password"         validate:"required,min=6"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	Password        string `json:"password"         validate:"required,min=6"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	FullName       string  `json:"full_name"`
	Identification *string `json:"identification,omitempty"`
	Position       string  `json:"position,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	Active         bool    `json:"active"`
	CreatedAt      string  `json:"created_at"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // seconds
	User         UserResponse `json:"user"`
}

// RegisterResponse reports the new account; EmailQueued is false when the
// welcome email could not be enqueued (the account still exists).
type RegisterResponse struct {
	User        UserResponse `json:"user"`
	EmailQueued bool         `json:"email_queued"`
}

package form

// LoginForm backs the sign-in screen.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterForm backs the sign-up screen.
type RegisterForm struct {
	Username        string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// ForgotPasswordForm requests a reset email.
type ForgotPasswordForm struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordForm sets a new password from an emailed token.
type ResetPasswordForm struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// CreateURLForm backs the create-short-URL modal. Access control is edited
// separately and merged into the request at submit time.
type CreateURLForm struct {
	OriginalURL   string `json:"originalUrl" validate:"required,url,max=2048"`
	Description   string `json:"description" validate:"max=255"`
	Password      string `json:"password" validate:"omitempty,min=4,max=64"`
	MaxUsage      int    `json:"maxUsage" validate:"min=0"`
	AvailableDays int    `json:"availableDays" validate:"omitempty,min=1,max=365"`
}

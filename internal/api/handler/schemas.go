package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type registerRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=50"`
	LastName  string `json:"last_name"  validate:"required,min=2,max=50"`
	Username  string `json:"username"   validate:"required,min=3,max=30"`
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=6,max=72"`
}

type loginRequest struct {
	UsernameOrEmail string `json:"username_or_email" validate:"required"`
	Password        string `json:"password"          validate:"required"`
}

type loginUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        loginUser `json:"user"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"        validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=6,max=72"`
}

// --- Users ---

type userResponse struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	IsAdmin    bool      `json:"is_admin"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type updateProfileRequest struct {
	FirstName string `json:"first_name" validate:"omitempty,min=2,max=50"`
	LastName  string `json:"last_name"  validate:"omitempty,min=2,max=50"`
	Username  string `json:"username"   validate:"omitempty,min=3,max=30"`
	Email     string `json:"email"      validate:"omitempty,email"`
}

type updateProfileResponse struct {
	Message        string `json:"message"`
	LogoutRequired bool   `json:"logout_required"`
}

// --- Portfolios ---

type createPortfolioRequest struct {
	Title       string `json:"title"       validate:"required,max=255"`
	Description string `json:"description" validate:"max=255"`
	Detail      string `json:"detail"`
	Link        string `json:"link"        validate:"omitempty,max=255,url"`
}

type updatePortfolioRequest struct {
	Title       *string `json:"title"       validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	Detail      *string `json:"detail"`
	Link        *string `json:"link"        validate:"omitempty,max=255,url"`
}

type portfolioResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Detail      string    `json:"detail"`
	Link        string    `json:"link"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type portfolioOwner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type portfolioDetailResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Detail      string         `json:"detail"`
	Link        string         `json:"link"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	User        portfolioOwner `json:"user"`
}

// --- Admin ---

type adminCreateUserRequest struct {
	registerRequest
	IsAdmin    bool  `json:"is_admin"`
	IsVerified *bool `json:"is_verified"`
}

type adminUpdateUserRequest struct {
	FirstName  *string `json:"first_name" validate:"omitempty,min=2,max=50"`
	LastName   *string `json:"last_name"  validate:"omitempty,min=2,max=50"`
	Username   *string `json:"username"   validate:"omitempty,min=3,max=30"`
	Email      *string `json:"email"      validate:"omitempty,email"`
	IsAdmin    *bool   `json:"is_admin"`
	IsVerified *bool   `json:"is_verified"`
}

package auth

// LoginRequest captures the member credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthUser is the normalized profile of an authenticated member.
type AuthUser struct {
	ID                 string  `json:"id"`
	Email              string  `json:"email"`
	FirstName          *string `json:"first_name,omitempty"`
	LastName           *string `json:"last_name,omitempty"`
	PharmacyName       *string `json:"pharmacy_name,omitempty"`
	SubscriptionStatus *string `json:"subscription_status,omitempty"`
}

// LoginResponse contains the tokens and profile produced by a successful login.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	User         *AuthUser `json:"user"`
}

// LoginOptions tunes a single login attempt.
type LoginOptions struct {
	UpdateLastLogin bool
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenPayload captures the member profile available when minting a JWT.
type AccessTokenPayload struct {
	MemberID           string
	Email              string
	FirstName          string
	LastName           string
	PharmacyName       string
	SubscriptionStatus string
	JTI                string
}

// AccessTokenClaims represents the typed JWT issued to members.
type AccessTokenClaims struct {
	MemberID           string `json:"member_id"`
	Email              string `json:"email"`
	FirstName          string `json:"first_name,omitempty"`
	LastName           string `json:"last_name,omitempty"`
	PharmacyName       string `json:"pharmacy_name,omitempty"`
	SubscriptionStatus string `json:"subscription_status,omitempty"`
	jwt.RegisteredClaims
}

// Payload rebuilds the minting payload from parsed claims, e.g. when rotating a session.
func (c *AccessTokenClaims) Payload() AccessTokenPayload {
	return AccessTokenPayload{
		MemberID:           c.MemberID,
		Email:              c.Email,
		FirstName:          c.FirstName,
		LastName:           c.LastName,
		PharmacyName:       c.PharmacyName,
		SubscriptionStatus: c.SubscriptionStatus,
		JTI:                c.ID,
	}
}

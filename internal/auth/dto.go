package auth

import "github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/users"

// GoogleSignInRequest carries the ID token from Google Identity Services.
type GoogleSignInRequest struct {
	Credential string `json:"credential" validate:"required"`
}

// SignInResponse is returned by a successful identity exchange.
type SignInResponse struct {
	Token     string         `json:"token"`
	ExpiresIn int64          `json:"expiresIn"`
	User      *users.UserDTO `json:"user"`
}

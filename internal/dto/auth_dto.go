package dto

import "github.com/noah-isme/fcs-go-api/internal/session"

// LoginRequest carries the operator credential for the authentication gate.
type LoginRequest struct {
	Name      string `json:"name"`
	AccessKey string `json:"access_key" validate:"required"`
}

// LoginResponse returns the minted token and the granted identity.
type LoginResponse struct {
	Token    string           `json:"token"`
	Identity session.Identity `json:"identity"`
	Status   session.Status   `json:"status"`
}

// UnlockRequest carries the candidate unlock secret for the lock gate.
type UnlockRequest struct {
	UnlockKey string `json:"unlock_key" validate:"required"`
}

// AdminAuthRequest carries the candidate secret for the admin capability.
type AdminAuthRequest struct {
	AccessKey string `json:"access_key" validate:"required"`
}

package model

import "time"

// User roles
const (
	RoleVillager = "villager"
	RoleDoctor   = "doctor"
	RoleAdmin    = "admin"
)

// User is the directory entry kept in the shared "users" collection. It is
// written on every login, logout, registration and profile edit; accounts are
// never hard-deleted, only flipped inactive.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FullName       string     `json:"fullName"`
	PhoneNumber    string     `json:"phoneNumber"`
	Role           string     `json:"role"`
	IsActive       bool       `json:"isActive"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	LastLogout     *time.Time `json:"lastLogout,omitempty"`
	Village        string     `json:"village,omitempty"`
	Specialization string     `json:"specialization,omitempty"`
	LicenseNumber  string     `json:"licenseNumber,omitempty"`
	Gender         string     `json:"gender,omitempty"`
	DateOfBirth    string     `json:"dateOfBirth,omitempty"`
	Address        string     `json:"address,omitempty"`
	MedicalHistory string     `json:"medicalHistory,omitempty"`
}

// RegisteredUser is the registration-list entry. Unlike the directory entry it
// carries the bcrypt password hash and is the authority for credentials.
type RegisteredUser struct {
	User
	PasswordHash string `json:"passwordHash"`
}

// Key returns the identity used for de-duplication across the two user
// collections: the id when present, the email otherwise.
func (u *User) Key() string {
	if u.ID != "" {
		return u.ID
	}
	return u.Email
}

type RegisterRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	FullName       string `json:"fullName" binding:"required"`
	PhoneNumber    string `json:"phoneNumber" binding:"required"`
	Role           string `json:"role" binding:"required,oneof=villager doctor admin"`
	Village        string `json:"village"`
	Specialization string `json:"specialization"`
	LicenseNumber  string `json:"licenseNumber"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FullName       *string `json:"fullName"`
	PhoneNumber    *string `json:"phoneNumber"`
	Village        *string `json:"village"`
	Specialization *string `json:"specialization"`
	LicenseNumber  *string `json:"licenseNumber"`
	Gender         *string `json:"gender"`
	DateOfBirth    *string `json:"dateOfBirth"`
	Address        *string `json:"address"`
	MedicalHistory *string `json:"medicalHistory"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *User  `json:"user"`
}

type TokenClaims struct {
	UserID string
	Email  string
	Role   string
}

package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/swasthgram/health-api/internal/event"
	"github.com/swasthgram/health-api/internal/model"
	"github.com/swasthgram/health-api/internal/store"
	"github.com/swasthgram/health-api/pkg/auth"
	apperrors "github.com/swasthgram/health-api/pkg/errors"
	"github.com/swasthgram/health-api/pkg/security"
)

// Service owns the two user collections: the registration list (credentials
// authority) and the shared directory that the admin views read. Every login,
// logout, registration and profile edit re-syncs the directory entry and
// publishes users_updated.
type Service struct {
	collections *store.Collections
	bus         *event.Bus
	hasher      security.PasswordHasher
	jwtSvc      auth.JWTService
	logger      zerolog.Logger
}

func NewService(collections *store.Collections, bus *event.Bus, hasher security.PasswordHasher, jwtSvc auth.JWTService, logger zerolog.Logger) *Service {
	return &Service{
		collections: collections,
		bus:         bus,
		hasher:      hasher,
		jwtSvc:      jwtSvc,
		logger:      logger,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	if err := validateRoleFields(req); err != nil {
		return nil, err
	}

	registered := s.collections.RegisteredUsers(ctx)
	for _, u := range registered {
		if u.Email == req.Email {
			return nil, apperrors.Conflict("user with this email already exists", nil)
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest("invalid password", err)
	}

	now := time.Now()
	newUser := model.RegisteredUser{
		User: model.User{
			ID:             uuid.New().String(),
			Email:          req.Email,
			FullName:       req.FullName,
			PhoneNumber:    req.PhoneNumber,
			Role:           req.Role,
			IsActive:       true,
			CreatedAt:      now,
			LastLogin:      &now,
			Village:        req.Village,
			Specialization: req.Specialization,
			LicenseNumber:  req.LicenseNumber,
		},
		PasswordHash: hash,
	}

	if err := s.collections.WriteRegisteredUsers(ctx, append(registered, newUser)); err != nil {
		return nil, fmt.Errorf("failed to store registration: %w", err)
	}

	s.syncDirectory(ctx, newUser.User, true)

	return s.issueTokens(&newUser.User)
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	registered := s.collections.RegisteredUsers(ctx)

	var found *model.RegisteredUser
	for i := range registered {
		if registered[i].Email == req.Email {
			found = &registered[i]
			break
		}
	}
	if found == nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("unknown email"))
	}

	if err := s.hasher.Compare(found.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("password mismatch"))
	}

	now := time.Now()
	found.IsActive = true
	found.LastLogin = &now
	if err := s.collections.WriteRegisteredUsers(ctx, registered); err != nil {
		s.logger.Warn().Err(err).Msg("failed to update registration list on login")
	}

	s.syncDirectory(ctx, found.User, true)

	return s.issueTokens(&found.User)
}

// Logout flips the directory entry inactive. Accounts are never hard-deleted.
func (s *Service) Logout(ctx context.Context, userID string) {
	users := s.collections.Users(ctx)
	now := time.Now()
	for i := range users {
		if users[i].ID == userID {
			users[i].IsActive = false
			users[i].LastLogout = &now
		}
	}
	if err := s.collections.WriteUsers(ctx, users); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to mark user logged out")
		return
	}
	s.bus.Publish(event.SignalUsersUpdated, event.Detail{"userId": userID, "reason": "logout"})
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	u, err := s.Get(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(u)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, req *model.UpdateProfileRequest) (*model.User, error) {
	registered := s.collections.RegisteredUsers(ctx)

	var updated *model.User
	for i := range registered {
		if registered[i].ID != userID {
			continue
		}
		applyProfileUpdates(&registered[i].User, req)
		updated = &registered[i].User
		break
	}
	if updated == nil {
		return nil, apperrors.NotFound("user", nil)
	}

	if err := s.collections.WriteRegisteredUsers(ctx, registered); err != nil {
		return nil, fmt.Errorf("failed to update registration list: %w", err)
	}

	s.syncDirectory(ctx, *updated, true)

	return updated, nil
}

// Get resolves a user from the directory first, falling back to the
// registration list.
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	for _, u := range s.collections.Users(ctx) {
		if u.ID == userID {
			return &u, nil
		}
	}
	for _, r := range s.collections.RegisteredUsers(ctx) {
		if r.ID == userID {
			u := r.User
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

// List returns the directory, for the admin surface.
func (s *Service) List(ctx context.Context) []model.User {
	return s.collections.Users(ctx)
}

// MarkActive flags a user's directory entry active; submitting a report
// implies an active session.
func (s *Service) MarkActive(ctx context.Context, userID string) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return
	}
	s.syncDirectory(ctx, *u, true)
}

// syncDirectory upserts the shared directory entry, matched by id-or-email,
// and publishes users_updated.
func (s *Service) syncDirectory(ctx context.Context, u model.User, active bool) {
	users := s.collections.Users(ctx)
	now := time.Now()

	idx := -1
	for i := range users {
		if users[i].ID == u.ID || users[i].Email == u.Email {
			idx = i
			break
		}
	}

	u.IsActive = active
	u.LastLogin = &now
	if idx >= 0 {
		createdAt := users[idx].CreatedAt
		if !createdAt.IsZero() {
			u.CreatedAt = createdAt
		}
		users[idx] = u
	} else {
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		users = append(users, u)
	}

	if err := s.collections.WriteUsers(ctx, users); err != nil {
		s.logger.Warn().Err(err).Str("user_id", u.ID).Msg("failed to sync user directory")
		return
	}
	s.bus.Publish(event.SignalUsersUpdated, event.Detail{"userId": u.ID})
}

func (s *Service) issueTokens(u *model.User) (*model.TokenResponse, error) {
	access, err := s.jwtSvc.GenerateAccessToken(u)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwtSvc.GenerateRefreshToken(u)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtSvc.AccessExpiry().Seconds()),
		User:         u,
	}, nil
}

func validateRoleFields(req *model.RegisterRequest) error {
	switch req.Role {
	case model.RoleDoctor:
		if req.Specialization == "" || req.LicenseNumber == "" {
			return apperrors.BadRequest("specialization and license number are required for doctors", nil)
		}
	case model.RoleVillager:
		if req.Village == "" {
			return apperrors.BadRequest("village is required for villagers", nil)
		}
	}
	return nil
}

func applyProfileUpdates(u *model.User, req *model.UpdateProfileRequest) {
	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = *req.PhoneNumber
	}
	if req.Village != nil {
		u.Village = *req.Village
	}
	if req.Specialization != nil {
		u.Specialization = *req.Specialization
	}
	if req.LicenseNumber != nil {
		u.LicenseNumber = *req.LicenseNumber
	}
	if req.Gender != nil {
		u.Gender = *req.Gender
	}
	if req.DateOfBirth != nil {
		u.DateOfBirth = *req.DateOfBirth
	}
	if req.Address != nil {
		u.Address = *req.Address
	}
	if req.MedicalHistory != nil {
		u.MedicalHistory = *req.MedicalHistory
	}
}

package user

import (
	"context"
	"fmt"
	"time"

	"github.com/swasthgram/health-api/internal/model"
)

// SeedDemoUsers registers the three well-known demo accounts with the given
// password. Accounts whose email is already registered are left untouched, so
// repeated startups are safe.
func (s *Service) SeedDemoUsers(ctx context.Context, password string) error {
	now := time.Now()
	demo := []model.User{
		{
			ID:          "1",
			Email:       "villager@test.com",
			FullName:    "राम कुमार",
			PhoneNumber: "+91-9876543210",
			Role:        model.RoleVillager,
			Village:     "Rampur",
			CreatedAt:   now,
		},
		{
			ID:             "2",
			Email:          "doctor@test.com",
			FullName:       "Dr. Priya Sharma",
			PhoneNumber:    "+91-9876543211",
			Role:           model.RoleDoctor,
			Specialization: "General Medicine",
			LicenseNumber:  "MED12345",
			CreatedAt:      now,
		},
		{
			ID:          "3",
			Email:       "admin@test.com",
			FullName:    "Admin User",
			PhoneNumber: "+91-9876543212",
			Role:        model.RoleAdmin,
			CreatedAt:   now,
		},
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}

	registered := s.collections.RegisteredUsers(ctx)
	existing := make(map[string]bool, len(registered))
	for _, r := range registered {
		existing[r.Email] = true
	}

	added := 0
	for _, u := range demo {
		if existing[u.Email] {
			continue
		}
		registered = append(registered, model.RegisteredUser{User: u, PasswordHash: hash})
		added++
	}
	if added == 0 {
		return nil
	}

	// Directory entries appear on first login, like any other registration.
	if err := s.collections.WriteRegisteredUsers(ctx, registered); err != nil {
		return fmt.Errorf("failed to store demo accounts: %w", err)
	}
	s.logger.Info().Int("added", added).Msg("seeded demo accounts")
	return nil
}

package user

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/swasthgram/health-api/internal/event"
	"github.com/swasthgram/health-api/internal/model"
	"github.com/swasthgram/health-api/internal/store"
	"github.com/swasthgram/health-api/pkg/auth"
	"github.com/swasthgram/health-api/pkg/security"
)

func newTestService() (*Service, *store.Collections, *event.Bus) {
	collections := store.NewCollections(store.NewMemoryStore(), zerolog.Nop())
	bus := event.NewBus(nil)
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 2 * time.Hour,
	})
	return NewService(collections, bus, security.NewBcryptHasher(bcrypt.MinCost), jwtSvc, zerolog.Nop()), collections, bus
}

func villagerRequest(email string) *model.RegisterRequest {
	return &model.RegisterRequest{
		Email:    email,
		Password: "secret123",
		FullName: "Anita Sharma",
		Role:     model.RoleVillager,
		Village:  "Rampur",
	}
}

func TestRegisterIssuesTokensAndSyncsDirectory(t *testing.T) {
	svc, c, _ := newTestService()
	ctx := context.Background()

	tokens, err := svc.Register(ctx, villagerRequest("anita@example.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	require.NotNil(t, tokens.User)
	assert.Equal(t, model.RoleVillager, tokens.User.Role)

	registered := c.RegisteredUsers(ctx)
	require.Len(t, registered, 1)
	assert.NotEqual(t, "secret123", registered[0].PasswordHash)

	directory := c.Users(ctx)
	require.Len(t, directory, 1)
	assert.Equal(t, "anita@example.com", directory[0].Email)
	assert.True(t, directory[0].IsActive)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, villagerRequest("anita@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, villagerRequest("anita@example.com"))
	assert.Error(t, err)
}

func TestRegisterDoctorRequiresCredentials(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{
		Email:    "rao@example.com",
		Password: "secret123",
		FullName: "Rao",
		Role:     model.RoleDoctor,
	})
	assert.Error(t, err)

	_, err = svc.Register(ctx, &model.RegisterRequest{
		Email:          "rao@example.com",
		Password:       "secret123",
		FullName:       "Rao",
		Role:           model.RoleDoctor,
		Specialization: "General Medicine",
		LicenseNumber:  "MH-12345",
	})
	assert.NoError(t, err)
}

func TestRegisterVillagerRequiresVillage(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	req := villagerRequest("anita@example.com")
	req.Village = ""
	_, err := svc.Register(ctx, req)
	assert.Error(t, err)
}

func TestLoginVerifiesPassword(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, villagerRequest("anita@example.com"))
	require.NoError(t, err)

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "anita@example.com", Password: "wrong"})
	assert.Error(t, err)

	tokens, err := svc.Login(ctx, &model.LoginRequest{Email: "anita@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestLoginUnknownEmailFails(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Login(context.Background(), &model.LoginRequest{Email: "nobody@example.com", Password: "x"})
	assert.Error(t, err)
}

func TestLogoutDeactivatesButKeepsAccount(t *testing.T) {
	svc, c, bus := newTestService()
	ctx := context.Background()

	tokens, err := svc.Register(ctx, villagerRequest("anita@example.com"))
	require.NoError(t, err)

	published := false
	bus.Subscribe(event.SignalUsersUpdated, func(string, event.Detail) { published = true })

	svc.Logout(ctx, tokens.User.ID)

	directory := c.Users(ctx)
	require.Len(t, directory, 1)
	assert.False(t, directory[0].IsActive)
	assert.NotNil(t, directory[0].LastLogout)
	assert.True(t, published)

	// Credentials survive; logging back in works.
	_, err = svc.Login(ctx, &model.LoginRequest{Email: "anita@example.com", Password: "secret123"})
	assert.NoError(t, err)
}

func TestRefreshIssuesNewTokens(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	tokens, err := svc.Register(ctx, villagerRequest("anita@example.com"))
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, tokens.User.ID, refreshed.User.ID)

	_, err = svc.Refresh(ctx, "not-a-token")
	assert.Error(t, err)
}

func TestUpdateProfilePatchesOnlyGivenFields(t *testing.T) {
	svc, c, _ := newTestService()
	ctx := context.Background()

	tokens, err := svc.Register(ctx, villagerRequest("anita@example.com"))
	require.NoError(t, err)

	phone := "9876543210"
	updated, err := svc.UpdateProfile(ctx, tokens.User.ID, &model.UpdateProfileRequest{PhoneNumber: &phone})
	require.NoError(t, err)
	assert.Equal(t, "9876543210", updated.PhoneNumber)
	assert.Equal(t, "Anita Sharma", updated.FullName)
	assert.Equal(t, "Rampur", updated.Village)

	directory := c.Users(ctx)
	require.Len(t, directory, 1)
	assert.Equal(t, "9876543210", directory[0].PhoneNumber)
}

func TestSyncDirectoryUpsertsByIDOrEmail(t *testing.T) {
	svc, c, _ := newTestService()
	ctx := context.Background()

	// A directory entry with no id but a matching email gets replaced, not
	// duplicated.
	require.NoError(t, c.WriteUsers(ctx, []model.User{{Email: "anita@example.com", Role: model.RoleVillager}}))

	_, err := svc.Register(ctx, villagerRequest("anita@example.com"))
	require.NoError(t, err)

	directory := c.Users(ctx)
	require.Len(t, directory, 1)
	assert.NotEmpty(t, directory[0].ID)
}

func TestGetFallsBackToRegistrations(t *testing.T) {
	svc, c, _ := newTestService()
	ctx := context.Background()

	tokens, err := svc.Register(ctx, villagerRequest("anita@example.com"))
	require.NoError(t, err)

	// Wipe the directory; the registration list still resolves the user.
	require.NoError(t, c.WriteUsers(ctx, nil))

	u, err := svc.Get(ctx, tokens.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "anita@example.com", u.Email)
}

func TestSeedDemoUsers(t *testing.T) {
	svc, c, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.SeedDemoUsers(ctx, "demopass123"))
	require.Len(t, c.RegisteredUsers(ctx), 3)

	// Seeding again adds nothing.
	require.NoError(t, svc.SeedDemoUsers(ctx, "demopass123"))
	assert.Len(t, c.RegisteredUsers(ctx), 3)

	// Demo accounts stay out of the directory until they log in.
	assert.Empty(t, c.Users(ctx))

	tokens, err := svc.Login(ctx, &model.LoginRequest{Email: "doctor@test.com", Password: "demopass123"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, tokens.User.Role)
	assert.Len(t, c.Users(ctx), 1)
}

func TestSeedDemoUsersKeepsExistingRegistration(t *testing.T) {
	svc, c, _ := newTestService()
	ctx := context.Background()

	req := villagerRequest("villager@test.com")
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	require.NoError(t, svc.SeedDemoUsers(ctx, "demopass123"))
	assert.Len(t, c.RegisteredUsers(ctx), 3)

	// The real registration wins; the demo password does not apply to it.
	_, err = svc.Login(ctx, &model.LoginRequest{Email: "villager@test.com", Password: "secret123"})
	assert.NoError(t, err)
}

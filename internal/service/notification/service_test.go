package notification

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swasthgram/health-api/internal/model"
	"github.com/swasthgram/health-api/internal/store"
)

func newTestService() (*Service, *store.Collections) {
	collections := store.NewCollections(store.NewMemoryStore(), zerolog.Nop())
	return NewService(collections, nil, zerolog.Nop(), nil), collections
}

func seedUsers(t *testing.T, c *store.Collections, users []model.User, registered []model.RegisteredUser) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.WriteUsers(ctx, users))
	require.NoError(t, c.WriteRegisteredUsers(ctx, registered))
}

func TestSendUserNotificationPersistsNewestFirst(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.SendUserNotification(ctx, "u1", "First", "first message", model.NotificationTypeSystem, nil)
	time.Sleep(2 * time.Millisecond)
	svc.SendUserNotification(ctx, "u1", "Second", "second message", model.NotificationTypeSystem, nil)

	ns := svc.List(ctx, "u1")
	require.Len(t, ns, 2)
	assert.Equal(t, "Second", ns[0].Title)
	assert.Equal(t, "First", ns[1].Title)
	assert.False(t, ns[0].Read)
	assert.NotNil(t, ns[0].Data)
}

func TestSendUserNotificationEmitsToSubscriber(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	var got []model.AppNotification
	unsub := svc.Subscribe("u1", model.RoleVillager, func(n model.AppNotification) {
		got = append(got, n)
	})
	defer unsub()

	svc.SendUserNotification(ctx, "u1", "Hello", "msg", model.NotificationTypeSystem, nil)
	svc.SendUserNotification(ctx, "u2", "Other", "msg", model.NotificationTypeSystem, nil)

	require.Len(t, got, 1)
	assert.Equal(t, "Hello", got[0].Title)
}

func TestRoleFanoutUnionsAndDedupes(t *testing.T) {
	svc, c := newTestService()
	ctx := context.Background()

	// d1 appears in both collections and must receive exactly one copy.
	seedUsers(t, c,
		[]model.User{
			{ID: "d1", Email: "rao@example.com", Role: model.RoleDoctor},
			{ID: "v1", Email: "anita@example.com", Role: model.RoleVillager},
		},
		[]model.RegisteredUser{
			{User: model.User{ID: "d1", Email: "rao@example.com", Role: model.RoleDoctor}},
			{User: model.User{ID: "d2", Email: "mehta@example.com", Role: model.RoleDoctor}},
		},
	)

	svc.SendRoleNotification(ctx, model.RoleDoctor, "New Health Report", "msg", model.NotificationTypeNewReport, nil)

	assert.Len(t, svc.List(ctx, "d1"), 1)
	assert.Len(t, svc.List(ctx, "d2"), 1)
	assert.Empty(t, svc.List(ctx, "v1"))
}

func TestRoleFanoutDedupesByEmailWhenIDMissing(t *testing.T) {
	svc, c := newTestService()
	ctx := context.Background()

	seedUsers(t, c,
		[]model.User{{Email: "rao@example.com", Role: model.RoleDoctor}},
		[]model.RegisteredUser{{User: model.User{Email: "rao@example.com", Role: model.RoleDoctor}}},
	)

	svc.SendRoleNotification(ctx, model.RoleDoctor, "Title", "msg", model.NotificationTypeSystem, nil)

	// The email serves as the address when the id is absent.
	assert.Len(t, svc.List(ctx, "rao@example.com"), 1)
}

func TestRoleFanoutZeroTargetsFallsBackToLiveEmit(t *testing.T) {
	svc, c := newTestService()
	ctx := context.Background()

	seedUsers(t, c, nil, nil)

	var got []model.AppNotification
	unsub := svc.Subscribe("", model.RoleAdmin, func(n model.AppNotification) {
		got = append(got, n)
	})
	defer unsub()

	svc.SendRoleNotification(ctx, model.RoleAdmin, "Title", "msg", model.NotificationTypeSystem, nil)

	require.Len(t, got, 1)
	assert.Equal(t, model.RoleAdmin, got[0].UserID)
	// Nothing persisted anywhere under the role address.
	assert.Empty(t, svc.List(ctx, model.RoleAdmin))
}

func TestMarkReadAndClearAll(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.SendUserNotification(ctx, "u1", "A", "msg", model.NotificationTypeSystem, nil)
	ns := svc.List(ctx, "u1")
	require.Len(t, ns, 1)

	require.NoError(t, svc.MarkRead(ctx, "u1", ns[0].ID))
	assert.True(t, svc.List(ctx, "u1")[0].Read)

	svc.SendUserNotification(ctx, "u1", "B", "msg", model.NotificationTypeSystem, nil)
	require.NoError(t, svc.MarkAllRead(ctx, "u1"))
	for _, n := range svc.List(ctx, "u1") {
		assert.True(t, n.Read)
	}

	require.NoError(t, svc.ClearAll(ctx, "u1"))
	assert.Empty(t, svc.List(ctx, "u1"))
}

func TestSummarizeSymptoms(t *testing.T) {
	assert.Equal(t, "fever", summarizeSymptoms("fever"))
	assert.Equal(t, "fever, cough", summarizeSymptoms("fever, cough"))
	assert.Equal(t, "fever, cough...", summarizeSymptoms("fever, cough, headache"))
}

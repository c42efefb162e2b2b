package consultation

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swasthgram/health-api/internal/event"
	"github.com/swasthgram/health-api/internal/model"
	"github.com/swasthgram/health-api/internal/service/notification"
	"github.com/swasthgram/health-api/internal/store"
)

var (
	villager = &model.User{ID: "v1", FullName: "Anita Sharma", Role: model.RoleVillager}
	doctor   = &model.User{ID: "d1", FullName: "Rao", Role: model.RoleDoctor}
	admin    = &model.User{ID: "a1", FullName: "Admin", Role: model.RoleAdmin}
)

func newTestService(t *testing.T) (*Service, *store.Collections, *event.Bus) {
	t.Helper()
	collections := store.NewCollections(store.NewMemoryStore(), zerolog.Nop())
	bus := event.NewBus(nil)
	notifSvc := notification.NewService(collections, nil, zerolog.Nop(), nil)
	return NewService(collections, bus, notifSvc, zerolog.Nop()), collections, bus
}

func seedConsultation(t *testing.T, c *store.Collections) model.Consultation {
	t.Helper()
	ctx := context.Background()
	cons := model.Consultation{
		ID:          model.ConsultationID("r1", "d1"),
		ReportID:    "r1",
		DoctorID:    "d1",
		DoctorName:  "Rao",
		PatientID:   "v1",
		PatientName: "Anita Sharma",
		Status:      model.ConsultationStatusActive,
		StartedAt:   time.Now(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, c.WriteConsultations(ctx, store.ConsultationsKey("v1"), []model.Consultation{cons}))
	require.NoError(t, c.WriteConsultations(ctx, store.DoctorConsultationsKey("d1"), []model.Consultation{cons}))
	return cons
}

func TestListForVillagerFiltersHiddenReports(t *testing.T) {
	svc, c, _ := newTestService(t)
	ctx := context.Background()

	seedConsultation(t, c)
	assert.Len(t, svc.ListForVillager(ctx, "v1"), 1)

	require.NoError(t, c.WriteHiddenIDs(ctx, store.HiddenReportsKey("Villager", "v1"), []string{"r1"}))
	assert.Empty(t, svc.ListForVillager(ctx, "v1"))

	// The doctor's view ignores the villager's hidden list.
	assert.Len(t, svc.ListForDoctor(ctx, "d1"), 1)
}

func TestGetResolvesFromCallerSide(t *testing.T) {
	svc, c, _ := newTestService(t)
	ctx := context.Background()

	cons := seedConsultation(t, c)

	got, err := svc.Get(ctx, cons.ID, villager)
	require.NoError(t, err)
	assert.Equal(t, cons.ID, got.ID)

	got, err = svc.Get(ctx, cons.ID, doctor)
	require.NoError(t, err)
	assert.Equal(t, cons.ID, got.ID)

	stranger := &model.User{ID: "v2", Role: model.RoleVillager}
	_, err = svc.Get(ctx, cons.ID, stranger)
	assert.Error(t, err)
}

func TestAdminGetScansAllCollections(t *testing.T) {
	svc, c, _ := newTestService(t)
	ctx := context.Background()

	cons := seedConsultation(t, c)
	require.NoError(t, c.WriteUsers(ctx, []model.User{*villager, *doctor, *admin}))

	got, err := svc.Get(ctx, cons.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, cons.ID, got.ID)
}

func TestSendMessageAppendsAndUpdatesBothMirrors(t *testing.T) {
	svc, c, _ := newTestService(t)
	ctx := context.Background()

	cons := seedConsultation(t, c)

	msg, err := svc.SendMessage(ctx, cons.ID, villager, &model.SendMessageRequest{Content: "Thank you doctor"})
	require.NoError(t, err)
	assert.Equal(t, "v1", msg.SenderID)
	assert.Equal(t, model.RoleVillager, msg.Role)

	msgs, err := svc.Messages(ctx, cons.ID, villager)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Thank you doctor", msgs[0].Content)

	for _, key := range []string{store.ConsultationsKey("v1"), store.DoctorConsultationsKey("d1")} {
		list := c.Consultations(ctx, key)
		require.Len(t, list, 1)
		require.NotNil(t, list[0].LastMessage)
		assert.Equal(t, "Thank you doctor", list[0].LastMessage.Content)
		assert.Equal(t, model.RoleVillager, list[0].LastMessage.Sender)
	}
}

func TestSendMessageNotifiesCounterpart(t *testing.T) {
	svc, c, _ := newTestService(t)
	ctx := context.Background()

	cons := seedConsultation(t, c)
	notifSvc := svc.notifSvc

	_, err := svc.SendMessage(ctx, cons.ID, villager, &model.SendMessageRequest{Content: "Hello"})
	require.NoError(t, err)

	doctorNs := notifSvc.List(ctx, "d1")
	require.Len(t, doctorNs, 1)
	assert.Equal(t, "New Message", doctorNs[0].Title)
	assert.Equal(t, "Anita Sharma sent you a message.", doctorNs[0].Message)
	assert.Empty(t, notifSvc.List(ctx, "v1"))

	_, err = svc.SendMessage(ctx, cons.ID, doctor, &model.SendMessageRequest{Content: "Hi Anita"})
	require.NoError(t, err)

	villagerNs := notifSvc.List(ctx, "v1")
	require.Len(t, villagerNs, 1)
	assert.Equal(t, "Dr. Rao sent you a message.", villagerNs[0].Message)
}

func TestSendMessagePublishesConsultationsUpdated(t *testing.T) {
	svc, c, bus := newTestService(t)
	ctx := context.Background()

	cons := seedConsultation(t, c)

	published := false
	bus.Subscribe(event.SignalConsultationsUpdated, func(_ string, detail event.Detail) {
		published = true
		assert.Equal(t, cons.ID, detail["consultationId"])
	})

	_, err := svc.SendMessage(ctx, cons.ID, villager, &model.SendMessageRequest{Content: "ping"})
	require.NoError(t, err)
	assert.True(t, published)
}

func TestSendMessageUnknownConsultationFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.SendMessage(context.Background(), "missing", villager, &model.SendMessageRequest{Content: "x"})
	assert.Error(t, err)
}

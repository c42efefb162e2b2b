package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swasthgram/health-api/internal/model"
)

func newTestCollections() (*Collections, Store) {
	s := NewMemoryStore()
	return NewCollections(s, zerolog.Nop()), s
}

func TestCollectionsMissingKeyIsEmpty(t *testing.T) {
	c, _ := newTestCollections()
	ctx := context.Background()

	assert.Empty(t, c.Reports(ctx, KeyAllReports))
	assert.Empty(t, c.Users(ctx))
	assert.Empty(t, c.Notifications(ctx, "u1"))
}

func TestCollectionsMalformedValueIsEmpty(t *testing.T) {
	c, s := newTestCollections()
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, KeyAllReports, "{not json"))
	assert.Empty(t, c.Reports(ctx, KeyAllReports))

	// A malformed value never blocks a fresh write.
	require.NoError(t, c.WriteReports(ctx, KeyAllReports, []model.HealthReport{{ID: "r1"}}))
	reports := c.Reports(ctx, KeyAllReports)
	require.Len(t, reports, 1)
	assert.Equal(t, "r1", reports[0].ID)
}

func TestCollectionsNilListMarshalsAsEmptyArray(t *testing.T) {
	c, s := newTestCollections()
	ctx := context.Background()

	require.NoError(t, c.WriteReports(ctx, KeyAllReports, nil))
	raw, err := s.Read(ctx, KeyAllReports)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestCollectionsReportsRoundTrip(t *testing.T) {
	c, _ := newTestCollections()
	ctx := context.Background()

	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	in := []model.HealthReport{{
		ID:        "r1",
		UserID:    "v1",
		Symptoms:  "fever, cough",
		Urgency:   model.UrgencyHigh,
		Status:    model.ReportStatusPending,
		CreatedAt: created,
		Responses: []model.DoctorResponse{},
	}}
	require.NoError(t, c.WriteReports(ctx, ReportsKey("v1"), in))

	out := c.Reports(ctx, ReportsKey("v1"))
	require.Len(t, out, 1)
	assert.Equal(t, "r1", out[0].ID)
	assert.True(t, out[0].CreatedAt.Equal(created))
	assert.NotNil(t, out[0].Responses)
}

func TestCollectionsHiddenIDs(t *testing.T) {
	c, _ := newTestCollections()
	ctx := context.Background()

	key := HiddenReportsKey("Villager", "v1")
	assert.Equal(t, "hiddenReports_Villager_v1", key)

	require.NoError(t, c.WriteHiddenIDs(ctx, key, []string{"r1", "r2"}))
	assert.Equal(t, []string{"r1", "r2"}, c.HiddenIDs(ctx, key))
}

func TestWatermarkMissingIsZero(t *testing.T) {
	c, _ := newTestCollections()
	ctx := context.Background()

	assert.True(t, c.Watermark(ctx, DoctorCheckKey("d1")).IsZero())
}

func TestWatermarkMalformedIsZero(t *testing.T) {
	c, s := newTestCollections()
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, PatientCheckKey("v1"), "yesterday"))
	assert.True(t, c.Watermark(ctx, PatientCheckKey("v1")).IsZero())
}

func TestWatermarkRoundTrip(t *testing.T) {
	c, _ := newTestCollections()
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, c.SetWatermark(ctx, DoctorCheckKey("d1"), now))
	got := c.Watermark(ctx, DoctorCheckKey("d1"))
	assert.True(t, got.Equal(now))
}

func TestMemoryStoreLastWriterWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "k", "a"))
	require.NoError(t, s.Write(ctx, "k", "b"))
	v, err := s.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Read(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

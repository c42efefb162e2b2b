package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/swasthgram/health-api/internal/model"
)

// Collections is the typed layer over the raw store. Reads follow the
// "never crash the view" policy: a missing key or a value that fails to parse
// behaves as an empty collection and is only logged. Timestamps round-trip as
// RFC3339 strings and are re-hydrated into time.Time on every read.
type Collections struct {
	store  Store
	logger zerolog.Logger
}

func NewCollections(s Store, logger zerolog.Logger) *Collections {
	return &Collections{store: s, logger: logger}
}

// Store exposes the underlying raw store.
func (c *Collections) Store() Store {
	return c.store
}

func readList[T any](c *Collections, ctx context.Context, key string) []T {
	raw, err := c.store.Read(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("store read failed, treating as empty")
		return nil
	}

	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("stored collection failed to parse, treating as empty")
		return nil
	}
	return out
}

func writeList[T any](c *Collections, ctx context.Context, key string, list []T) error {
	if list == nil {
		list = []T{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.store.Write(ctx, key, string(raw))
}

func (c *Collections) Reports(ctx context.Context, key string) []model.HealthReport {
	return readList[model.HealthReport](c, ctx, key)
}

func (c *Collections) WriteReports(ctx context.Context, key string, reports []model.HealthReport) error {
	return writeList(c, ctx, key, reports)
}

func (c *Collections) Users(ctx context.Context) []model.User {
	return readList[model.User](c, ctx, KeyUsers)
}

func (c *Collections) WriteUsers(ctx context.Context, users []model.User) error {
	return writeList(c, ctx, KeyUsers, users)
}

func (c *Collections) RegisteredUsers(ctx context.Context) []model.RegisteredUser {
	return readList[model.RegisteredUser](c, ctx, KeyRegisteredUsers)
}

func (c *Collections) WriteRegisteredUsers(ctx context.Context, users []model.RegisteredUser) error {
	return writeList(c, ctx, KeyRegisteredUsers, users)
}

func (c *Collections) Consultations(ctx context.Context, key string) []model.Consultation {
	return readList[model.Consultation](c, ctx, key)
}

func (c *Collections) WriteConsultations(ctx context.Context, key string, cons []model.Consultation) error {
	return writeList(c, ctx, key, cons)
}

func (c *Collections) Messages(ctx context.Context, consultationID string) []model.Message {
	return readList[model.Message](c, ctx, MessagesKey(consultationID))
}

func (c *Collections) WriteMessages(ctx context.Context, consultationID string, msgs []model.Message) error {
	return writeList(c, ctx, MessagesKey(consultationID), msgs)
}

func (c *Collections) Notifications(ctx context.Context, userID string) []model.AppNotification {
	return readList[model.AppNotification](c, ctx, NotificationsKey(userID))
}

func (c *Collections) WriteNotifications(ctx context.Context, userID string, ns []model.AppNotification) error {
	return writeList(c, ctx, NotificationsKey(userID), ns)
}

func (c *Collections) HiddenIDs(ctx context.Context, key string) []string {
	return readList[string](c, ctx, key)
}

func (c *Collections) WriteHiddenIDs(ctx context.Context, key string, ids []string) error {
	return writeList(c, ctx, key, ids)
}

// Watermark reads a "last checked" timestamp. A missing or malformed value is
// the zero time, which makes every item look new.
func (c *Collections) Watermark(ctx context.Context, key string) time.Time {
	raw, err := c.store.Read(ctx, key)
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("watermark failed to parse, treating as zero")
		return time.Time{}
	}
	return t
}

func (c *Collections) SetWatermark(ctx context.Context, key string, t time.Time) error {
	return c.store.Write(ctx, key, t.Format(time.RFC3339Nano))
}

package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/swasthgram/health-api/internal/email"
	"github.com/swasthgram/health-api/internal/model"
	"github.com/swasthgram/health-api/internal/store"
	"github.com/swasthgram/health-api/pkg/metrics"
)

// Subscriber receives live in-process notifications.
type Subscriber func(n model.AppNotification)

type subscription struct {
	userID string
	role   string
	fn     Subscriber
}

// Service fans notifications out to per-user persisted lists and to live
// in-process subscribers. Persistence is best-effort: a store write failure is
// logged and the notification is still emitted.
type Service struct {
	collections *store.Collections
	emailSvc    email.Service
	logger      zerolog.Logger
	metrics     *metrics.Metrics

	mu      sync.Mutex
	nextID  int
	subs    map[int]subscription
	monitor *monitor
}

func NewService(collections *store.Collections, emailSvc email.Service, logger zerolog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		collections: collections,
		emailSvc:    emailSvc,
		logger:      logger,
		metrics:     m,
		subs:        make(map[int]subscription),
	}
}

// Subscribe registers a live listener. A subscriber is matched when the
// notification is addressed to its user id or to its role as a broadcast
// address. Returns an unsubscribe func.
func (s *Service) Subscribe(userID, role string, fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = subscription{userID: userID, role: role, fn: fn}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Service) emit(n model.AppNotification) {
	s.mu.Lock()
	targets := make([]Subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.userID == n.UserID || sub.role == n.UserID {
			targets = append(targets, sub.fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range targets {
		fn(n)
	}
}

// SendUserNotification persists a notification into the addressed user's list
// and emits it to live subscribers. It always succeeds; a failed write is only
// logged.
func (s *Service) SendUserNotification(ctx context.Context, userID, title, message, typ string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	n := model.AppNotification{
		ID:        fmt.Sprintf("%s-%d", userID, time.Now().UnixMilli()),
		Title:     title,
		Message:   message,
		Type:      typ,
		Timestamp: time.Now(),
		Read:      false,
		UserID:    userID,
		Data:      data,
	}

	existing := s.collections.Notifications(ctx, userID)
	next := append([]model.AppNotification{n}, existing...)
	if err := s.collections.WriteNotifications(ctx, userID, next); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to persist notification")
	}
	if s.metrics != nil {
		s.metrics.NotificationsSent.WithLabelValues(typ, "true").Inc()
	}

	if typ == model.NotificationTypeEmergency {
		s.echoEmail(ctx, userID, title, message)
	}

	s.emit(n)
}

// SendRoleNotification resolves every known user with the target role by
// unioning the directory and registration collections, de-duplicated by
// id-or-email, and sends one persisted notification per match. With zero
// matches it falls back to a single role-addressed notification emitted only
// to live subscribers, never persisted: users who are offline and absent from
// both collections simply never receive it.
func (s *Service) SendRoleNotification(ctx context.Context, role, title, message, typ string, data map[string]interface{}) {
	targets := s.resolveRole(ctx, role)
	if s.metrics != nil {
		s.metrics.NotificationFanout.Observe(float64(len(targets)))
	}

	if len(targets) == 0 {
		if data == nil {
			data = map[string]interface{}{}
		}
		n := model.AppNotification{
			ID:        fmt.Sprintf("%s-%d", role, time.Now().UnixMilli()),
			Title:     title,
			Message:   message,
			Type:      typ,
			Timestamp: time.Now(),
			Read:      false,
			UserID:    role,
			Data:      data,
		}
		if s.metrics != nil {
			s.metrics.NotificationsSent.WithLabelValues(typ, "false").Inc()
		}
		s.emit(n)
		return
	}

	for _, target := range targets {
		s.SendUserNotification(ctx, target, title, message, typ, data)
	}
}

// resolveRole unions the two user collections and dedupes by id-else-email.
func (s *Service) resolveRole(ctx context.Context, role string) []string {
	users := s.collections.Users(ctx)
	registered := s.collections.RegisteredUsers(ctx)

	combined := make([]model.User, 0, len(users)+len(registered))
	combined = append(combined, users...)
	for _, r := range registered {
		combined = append(combined, r.User)
	}

	seen := make(map[string]bool)
	var targets []string
	for _, u := range combined {
		key := u.Key()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if u.Role != role {
			continue
		}
		targets = append(targets, key)
	}
	return targets
}

// List returns the user's persisted notifications, newest first.
func (s *Service) List(ctx context.Context, userID string) []model.AppNotification {
	return s.collections.Notifications(ctx, userID)
}

// MarkRead flips the read flag on one notification.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	ns := s.collections.Notifications(ctx, userID)
	for i := range ns {
		if ns[i].ID == notificationID {
			ns[i].Read = true
		}
	}
	return s.collections.WriteNotifications(ctx, userID, ns)
}

// MarkAllRead flips the read flag on every notification.
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	ns := s.collections.Notifications(ctx, userID)
	for i := range ns {
		ns[i].Read = true
	}
	return s.collections.WriteNotifications(ctx, userID, ns)
}

// ClearAll removes every persisted notification for the user. This is the only
// way notifications leave the store.
func (s *Service) ClearAll(ctx context.Context, userID string) error {
	return s.collections.WriteNotifications(ctx, userID, []model.AppNotification{})
}

// echoEmail mirrors an emergency notification to the user's mailbox,
// best-effort.
func (s *Service) echoEmail(ctx context.Context, userID, subject, body string) {
	if s.emailSvc == nil {
		return
	}
	for _, u := range s.collections.Users(ctx) {
		if u.ID == userID && u.Email != "" {
			if err := s.emailSvc.SendCustom(ctx, u.Email, subject, body); err != nil {
				s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to echo notification over email")
			}
			return
		}
	}
}

// summarizeSymptoms keeps the first two comma-separated symptoms.
func summarizeSymptoms(symptoms string) string {
	parts := strings.Split(symptoms, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) > 2 {
		return strings.Join(parts[:2], ", ") + "..."
	}
	return strings.Join(parts, ", ")
}

package consultation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/swasthgram/health-api/internal/event"
	"github.com/swasthgram/health-api/internal/model"
	"github.com/swasthgram/health-api/internal/service/notification"
	"github.com/swasthgram/health-api/internal/store"
	apperrors "github.com/swasthgram/health-api/pkg/errors"
)

// Service serves consultation lists and the per-consultation chat. It never
// creates consultations itself; those materialize when a villager appoints a
// doctor.
type Service struct {
	collections *store.Collections
	bus         *event.Bus
	notifSvc    *notification.Service
	logger      zerolog.Logger
}

func NewService(collections *store.Collections, bus *event.Bus, notifSvc *notification.Service, logger zerolog.Logger) *Service {
	return &Service{
		collections: collections,
		bus:         bus,
		notifSvc:    notifSvc,
		logger:      logger,
	}
}

// ListForVillager returns the villager's consultations, minus any whose source
// report the villager has hidden.
func (s *Service) ListForVillager(ctx context.Context, villagerID string) []model.Consultation {
	cons := s.collections.Consultations(ctx, store.ConsultationsKey(villagerID))
	hidden := s.collections.HiddenIDs(ctx, store.HiddenReportsKey("Villager", villagerID))
	if len(hidden) == 0 {
		return cons
	}
	out := make([]model.Consultation, 0, len(cons))
	for _, c := range cons {
		if !contains(hidden, c.ReportID) {
			out = append(out, c)
		}
	}
	return out
}

// ListForDoctor returns the doctor's consultation collection as stored.
func (s *Service) ListForDoctor(ctx context.Context, doctorID string) []model.Consultation {
	return s.collections.Consultations(ctx, store.DoctorConsultationsKey(doctorID))
}

// Get locates a consultation from the caller's side of the mirror, so a
// stranger to the consultation sees not-found rather than forbidden.
func (s *Service) Get(ctx context.Context, consultationID string, caller *model.User) (*model.Consultation, error) {
	key := store.ConsultationsKey(caller.ID)
	if caller.Role == model.RoleDoctor {
		key = store.DoctorConsultationsKey(caller.ID)
	}
	for _, c := range s.collections.Consultations(ctx, key) {
		if c.ID == consultationID {
			found := c
			return &found, nil
		}
	}
	if caller.Role == model.RoleAdmin {
		if c := s.findAnywhere(ctx, consultationID); c != nil {
			return c, nil
		}
	}
	return nil, apperrors.NotFound("consultation", nil)
}

// Messages returns the chat history, oldest first.
func (s *Service) Messages(ctx context.Context, consultationID string, caller *model.User) ([]model.Message, error) {
	if _, err := s.Get(ctx, consultationID, caller); err != nil {
		return nil, err
	}
	msgs := s.collections.Messages(ctx, consultationID)
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

// SendMessage appends a chat message, refreshes the lastMessage summary on both
// sides of the consultation mirror and notifies the counterpart.
func (s *Service) SendMessage(ctx context.Context, consultationID string, sender *model.User, req *model.SendMessageRequest) (*model.Message, error) {
	cons, err := s.Get(ctx, consultationID, sender)
	if err != nil {
		return nil, err
	}

	msg := model.Message{
		ID:             uuid.New().String(),
		ConsultationID: consultationID,
		SenderID:       sender.ID,
		SenderName:     sender.FullName,
		Role:           sender.Role,
		Content:        req.Content,
		Timestamp:      time.Now(),
	}

	msgs := s.collections.Messages(ctx, consultationID)
	if err := s.collections.WriteMessages(ctx, consultationID, append(msgs, msg)); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	s.touchLastMessage(ctx, cons, msg)

	s.bus.Publish(event.SignalConsultationsUpdated, event.Detail{
		"consultationId": consultationID, "senderId": sender.ID,
	})

	recipient := cons.PatientID
	title := "New Message"
	body := fmt.Sprintf("Dr. %s sent you a message.", sender.FullName)
	if sender.ID == cons.PatientID {
		recipient = cons.DoctorID
		body = fmt.Sprintf("%s sent you a message.", sender.FullName)
	}
	if recipient != "" && recipient != sender.ID {
		s.notifSvc.SendUserNotification(ctx, recipient, title, body,
			model.NotificationTypeConsultation,
			map[string]interface{}{
				"consultationId": consultationID,
				"reportId":       cons.ReportID,
				"senderId":       sender.ID,
				"preview":        req.Content,
			})
	}

	return &msg, nil
}

// touchLastMessage updates the summary on the patient's and the doctor's copy
// of the consultation. Either side may be missing; each is best-effort.
func (s *Service) touchLastMessage(ctx context.Context, cons *model.Consultation, msg model.Message) {
	last := &model.LastMessage{
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		Sender:    msg.Role,
	}
	for _, key := range []string{store.ConsultationsKey(cons.PatientID), store.DoctorConsultationsKey(cons.DoctorID)} {
		list := s.collections.Consultations(ctx, key)
		changed := false
		for i := range list {
			if list[i].ID == cons.ID {
				list[i].LastMessage = last
				list[i].UpdatedAt = msg.Timestamp
				list[i].Status = model.ConsultationStatusActive
				changed = true
			}
		}
		if !changed {
			continue
		}
		if err := s.collections.WriteConsultations(ctx, key, list); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to update consultation summary")
		}
	}
}

// findAnywhere scans every user's consultation collections. Only the admin
// surface pays this cost.
func (s *Service) findAnywhere(ctx context.Context, consultationID string) *model.Consultation {
	for _, u := range s.collections.Users(ctx) {
		key := store.ConsultationsKey(u.ID)
		if u.Role == model.RoleDoctor {
			key = store.DoctorConsultationsKey(u.ID)
		}
		for _, c := range s.collections.Consultations(ctx, key) {
			if c.ID == consultationID {
				found := c
				return &found
			}
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

package model

import "time"

// Notification types
const (
	NotificationTypeEmergency    = "emergency"
	NotificationTypeNewReport    = "new_report"
	NotificationTypeConsultation = "consultation"
	NotificationTypeSystem       = "system"
)

// AppNotification is persisted into the addressed user's notification list and
// removed only by an explicit clear. UserID is either a concrete user id or a
// role string used as a broadcast address for live subscribers.
type AppNotification struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Read      bool                   `json:"read"`
	UserID    string                 `json:"userId"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

package model

import (
	"fmt"
	"time"
)

// Consultation statuses
const (
	ConsultationStatusActive    = "active"
	ConsultationStatusScheduled = "scheduled"
	ConsultationStatusCompleted = "completed"
)

// LastMessage is the summary shown in consultation lists.
type LastMessage struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
}

// Consultation is materialized when a villager appoints a doctor from a
// report's responses. The id is deterministic so re-appointing the same doctor
// for the same report collapses to one record. Each consultation is mirrored
// into both the patient's and the doctor's own collections.
type Consultation struct {
	ID          string           `json:"id"`
	ReportID    string           `json:"reportId"`
	DoctorID    string           `json:"doctorId"`
	DoctorName  string           `json:"doctorName"`
	PatientID   string           `json:"patientId"`
	PatientName string           `json:"patientName,omitempty"`
	Status      string           `json:"status"`
	StartedAt   time.Time        `json:"startedAt"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	LastMessage *LastMessage     `json:"lastMessage,omitempty"`
	Responses   []DoctorResponse `json:"resps,omitempty"`
}

// ConsultationID builds the deterministic consultation id for a report/doctor
// pair.
func ConsultationID(reportID, doctorID string) string {
	return fmt.Sprintf("consultation_%s_%s", reportID, doctorID)
}

// Message is one chat entry, append-only per consultation.
type Message struct {
	ID             string    `json:"id"`
	ConsultationID string    `json:"consultationId"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

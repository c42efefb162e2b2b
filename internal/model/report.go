package model

import "time"

// Report urgency levels
const (
	UrgencyLow       = "low"
	UrgencyMedium    = "medium"
	UrgencyHigh      = "high"
	UrgencyEmergency = "emergency"
)

// Report statuses
const (
	ReportStatusPending  = "pending"
	ReportStatusReviewed = "reviewed"
	ReportStatusActive   = "active"
	ReportStatusResolved = "resolved"
)

// Location is an optional geocoded position attached to a report.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
	Text      string  `json:"text,omitempty"`
}

// DoctorResponse is appended to a report's response list and never mutated or
// removed afterwards.
type DoctorResponse struct {
	ID           string     `json:"id"`
	DoctorID     string     `json:"doctorId"`
	DoctorName   string     `json:"doctorName"`
	Advice       string     `json:"advice"`
	Prescription string     `json:"prescription,omitempty"`
	FollowUpDate *time.Time `json:"followUpDate,omitempty"`
	RespondedAt  time.Time  `json:"respondedAt"`
}

// HealthReport lives in two places at once: the global "allReports" collection
// and the owner's "reports_<userId>" collection. Every write site updates both;
// the mirroring is not transactional and the copies can diverge.
type HealthReport struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"userId"`
	UserName           string           `json:"userName,omitempty"`
	Symptoms           string           `json:"symptoms"`
	Description        string           `json:"description,omitempty"`
	Urgency            string           `json:"urgency"`
	Status             string           `json:"status"`
	Location           *Location        `json:"location,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	Responses          []DoctorResponse `json:"responses"`
	AssignedDoctorID   string           `json:"assignedDoctorId,omitempty"`
	AssignedDoctorName string           `json:"assignedDoctorName,omitempty"`
}

// HasResponses reports whether any doctor has responded yet.
func (r *HealthReport) HasResponses() bool {
	return len(r.Responses) > 0
}

type SubmitReportRequest struct {
	Symptoms     string  `json:"symptoms" binding:"required"`
	Description  string  `json:"description"`
	Urgency      string  `json:"urgency" binding:"required,urgency"`
	LocationText string  `json:"locationText"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type RespondRequest struct {
	Advice       string `json:"advice" binding:"required"`
	Prescription string `json:"prescription"`
	FollowUpDays int    `json:"followUpDays" binding:"omitempty,min=0,max=365"`
}

type AppointRequest struct {
	DoctorID string `json:"doctorId" binding:"required"`
}

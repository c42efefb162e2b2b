package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/swasthgram/health-api/internal/model"
	"github.com/swasthgram/health-api/internal/store"
)

// DefaultMonitorInterval is how often monitoring scans run.
const DefaultMonitorInterval = 10 * time.Second

type monitor struct {
	cancel context.CancelFunc
}

// StartMonitoring installs a single repeating scan for the given role. Calling
// it while a monitor is already running is a no-op. Doctors are scanned for
// fresh unanswered reports, villagers for fresh responses on their own
// reports.
func (s *Service) StartMonitoring(ctx context.Context, role, userID string, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.monitor != nil {
		return
	}
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	s.monitor = &monitor{cancel: cancel}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				switch role {
				case model.RoleDoctor:
					s.CheckForNewReports(ctx, userID)
				case model.RoleVillager:
					if userID != "" {
						s.CheckForReportUpdates(ctx, userID)
					}
				}
			}
		}
	}()
}

// StopMonitoring removes the repeating scan.
func (s *Service) StopMonitoring() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.monitor != nil {
		s.monitor.cancel()
		s.monitor = nil
	}
}

// CheckForNewReports scans the global report collection for reports created
// after the doctor's watermark that have no responses yet. With a doctor id
// only reports assigned to that doctor match; without one every unanswered
// report matches and the notification is broadcast to the doctor role (legacy
// behaviour). The watermark then advances to now, so a report scanned once is
// never re-notified. A report arriving during the scan races the watermark
// write; that window is accepted.
func (s *Service) CheckForNewReports(ctx context.Context, doctorID string) {
	if s.metrics != nil {
		s.metrics.MonitorScans.WithLabelValues(model.RoleDoctor).Inc()
	}

	reports := s.collections.Reports(ctx, store.KeyAllReports)
	checkKey := store.DoctorCheckKey(doctorID)
	lastCheck := s.collections.Watermark(ctx, checkKey)

	for _, report := range reports {
		if !report.CreatedAt.After(lastCheck) {
			continue
		}
		if report.HasResponses() {
			continue
		}
		if doctorID != "" && report.AssignedDoctorID != doctorID {
			continue
		}

		title := "New Health Report"
		typ := model.NotificationTypeNewReport
		if report.Urgency == model.UrgencyEmergency {
			title = "Emergency Health Report!"
			typ = model.NotificationTypeEmergency
		}

		reporter := report.UserName
		if reporter == "" {
			reporter = "A villager"
		}
		message := fmt.Sprintf("%s reported: %s", reporter, summarizeSymptoms(report.Symptoms))
		data := map[string]interface{}{
			"reportId":  report.ID,
			"patientId": report.UserID,
			"urgency":   report.Urgency,
		}

		if doctorID != "" {
			s.SendUserNotification(ctx, doctorID, title, message, typ, data)
		} else {
			s.SendRoleNotification(ctx, model.RoleDoctor, title, message, typ, data)
		}
		if s.metrics != nil {
			s.metrics.MonitorItemsNotified.WithLabelValues(model.RoleDoctor).Inc()
		}
	}

	if err := s.collections.SetWatermark(ctx, checkKey, time.Now()); err != nil {
		s.logger.Warn().Err(err).Str("key", checkKey).Msg("failed to advance doctor watermark")
	}
}

// CheckForReportUpdates scans the patient's own reports for doctor responses
// newer than the patient's watermark and notifies once per new response, then
// advances the watermark.
func (s *Service) CheckForReportUpdates(ctx context.Context, patientID string) {
	if s.metrics != nil {
		s.metrics.MonitorScans.WithLabelValues(model.RoleVillager).Inc()
	}

	reports := s.collections.Reports(ctx, store.KeyAllReports)
	checkKey := store.PatientCheckKey(patientID)
	lastCheck := s.collections.Watermark(ctx, checkKey)

	for _, report := range reports {
		if report.UserID != patientID {
			continue
		}
		for _, resp := range report.Responses {
			if !resp.RespondedAt.After(lastCheck) {
				continue
			}

			doctorName := resp.DoctorName
			if doctorName == "" {
				doctorName = "Doctor"
			}
			advice := resp.Advice
			if advice == "" {
				advice = "New update"
			}

			s.SendUserNotification(ctx, patientID,
				"Doctor Response",
				fmt.Sprintf("Dr. %s: %s", doctorName, advice),
				model.NotificationTypeConsultation,
				map[string]interface{}{
					"reportId":      report.ID,
					"doctorName":    doctorName,
					"advicePreview": resp.Advice,
					"responseId":    resp.ID,
				})
			if s.metrics != nil {
				s.metrics.MonitorItemsNotified.WithLabelValues(model.RoleVillager).Inc()
			}
		}
	}

	if err := s.collections.SetWatermark(ctx, checkKey, time.Now()); err != nil {
		s.logger.Warn().Err(err).Str("key", checkKey).Msg("failed to advance patient watermark")
	}
}

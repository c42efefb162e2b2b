package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/swasthgram/health-api/internal/event"
	"github.com/swasthgram/health-api/internal/geo"
	"github.com/swasthgram/health-api/internal/model"
	"github.com/swasthgram/health-api/internal/service/notification"
	"github.com/swasthgram/health-api/internal/service/user"
	"github.com/swasthgram/health-api/internal/store"
	apperrors "github.com/swasthgram/health-api/pkg/errors"
)

// Service drives the report lifecycle: pending -> reviewed -> (resolved).
// Reports are mirrored between the global collection and the owner's personal
// collection on every write; the mirroring is deliberately not transactional.
type Service struct {
	collections *store.Collections
	bus         *event.Bus
	notifSvc    *notification.Service
	userSvc     *user.Service
	geoClient   *geo.Client
	logger      zerolog.Logger
}

func NewService(collections *store.Collections, bus *event.Bus, notifSvc *notification.Service, userSvc *user.Service, geoClient *geo.Client, logger zerolog.Logger) *Service {
	return &Service{
		collections: collections,
		bus:         bus,
		notifSvc:    notifSvc,
		userSvc:     userSvc,
		geoClient:   geoClient,
		logger:      logger,
	}
}

// Submit creates a report in pending state and prepends it to both the global
// and the owner's collections. Geocoding is best-effort; a failure means no
// location, never a failed submission.
func (s *Service) Submit(ctx context.Context, owner *model.User, req *model.SubmitReportRequest) (*model.HealthReport, error) {
	report := model.HealthReport{
		ID:          uuid.New().String(),
		UserID:      owner.ID,
		UserName:    owner.FullName,
		Symptoms:    req.Symptoms,
		Description: req.Description,
		Urgency:     req.Urgency,
		Status:      model.ReportStatusPending,
		CreatedAt:   time.Now(),
		Responses:   []model.DoctorResponse{},
	}
	report.Location = s.resolveLocation(ctx, req)

	ownReports := s.collections.Reports(ctx, store.ReportsKey(owner.ID))
	if err := s.collections.WriteReports(ctx, store.ReportsKey(owner.ID), prepend(report, ownReports)); err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	allReports := s.collections.Reports(ctx, store.KeyAllReports)
	if err := s.collections.WriteReports(ctx, store.KeyAllReports, prepend(report, allReports)); err != nil {
		return nil, fmt.Errorf("failed to store report in global collection: %w", err)
	}

	s.bus.Publish(event.SignalAllReportsUpdated, event.Detail{"reason": "new_report", "reportId": report.ID})

	// Submitting a report implies an active session.
	s.userSvc.MarkActive(ctx, owner.ID)

	typ := model.NotificationTypeNewReport
	if req.Urgency == model.UrgencyEmergency {
		typ = model.NotificationTypeEmergency
	}
	message := fmt.Sprintf("%s has submitted a %s priority health report.", owner.FullName, req.Urgency)
	data := map[string]interface{}{
		"reportId":  report.ID,
		"patientId": owner.ID,
		"urgency":   req.Urgency,
	}
	s.notifSvc.SendRoleNotification(ctx, model.RoleAdmin, "New Health Report", message, typ, data)
	s.notifSvc.SendRoleNotification(ctx, model.RoleDoctor, "New Health Report", message, typ, data)

	return &report, nil
}

// Respond appends a doctor response and moves the report to reviewed. Once a
// doctor is appointed, submissions by any other doctor are rejected with no
// partial write.
func (s *Service) Respond(ctx context.Context, reportID string, doctor *model.User, req *model.RespondRequest) (*model.HealthReport, error) {
	allReports := s.collections.Reports(ctx, store.KeyAllReports)
	target := findReport(allReports, reportID)
	if target == nil {
		return nil, apperrors.NotFound("report", nil)
	}
	if target.AssignedDoctorID != "" && target.AssignedDoctorID != doctor.ID {
		return nil, apperrors.Forbidden("another doctor is already appointed to this report", nil)
	}

	now := time.Now()
	resp := model.DoctorResponse{
		ID:           fmt.Sprintf("response_%s_%s_%d", reportID, doctor.ID, now.UnixMilli()),
		DoctorID:     doctor.ID,
		DoctorName:   doctor.FullName,
		Advice:       req.Advice,
		Prescription: req.Prescription,
		RespondedAt:  now,
	}
	if req.FollowUpDays > 0 {
		followUp := now.AddDate(0, 0, req.FollowUpDays)
		resp.FollowUpDate = &followUp
	}

	appendResp := func(r model.HealthReport) model.HealthReport {
		if r.ID != reportID {
			return r
		}
		r.Status = model.ReportStatusReviewed
		r.Responses = append(r.Responses, resp)
		return r
	}

	for i := range allReports {
		allReports[i] = appendResp(allReports[i])
	}
	if err := s.collections.WriteReports(ctx, store.KeyAllReports, allReports); err != nil {
		return nil, fmt.Errorf("failed to update global reports: %w", err)
	}

	ownerKey := store.ReportsKey(target.UserID)
	ownReports := s.collections.Reports(ctx, ownerKey)
	for i := range ownReports {
		ownReports[i] = appendResp(ownReports[i])
	}
	if err := s.collections.WriteReports(ctx, ownerKey, ownReports); err != nil {
		s.logger.Warn().Err(err).Str("report_id", reportID).Msg("failed to mirror response into owner reports")
	}

	s.bus.Publish(event.SignalAllReportsUpdated, event.Detail{"reason": "doctor_response", "reportId": reportID})

	s.syncConsultationsWithResponse(ctx, target.UserID, doctor.ID, reportID, resp)
	s.bus.Publish(event.SignalConsultationsUpdated, event.Detail{
		"userId": target.UserID, "doctorId": doctor.ID, "reportId": reportID,
	})

	// Only the villager and the admins hear about it, never other doctors.
	s.notifSvc.SendUserNotification(ctx, target.UserID,
		"Doctor Response",
		fmt.Sprintf("Dr. %s responded to your health report.", doctor.FullName),
		model.NotificationTypeConsultation,
		map[string]interface{}{
			"reportId":      reportID,
			"doctorId":      doctor.ID,
			"doctorName":    doctor.FullName,
			"advicePreview": req.Advice,
			"responseId":    resp.ID,
		})
	s.notifSvc.SendRoleNotification(ctx, model.RoleAdmin,
		"Doctor Responded",
		fmt.Sprintf("Dr. %s responded to %s's report.", doctor.FullName, target.UserName),
		model.NotificationTypeConsultation,
		map[string]interface{}{
			"reportId":  reportID,
			"patientId": target.UserID,
			"doctorId":  doctor.ID,
		})

	// Advance the patient watermark so the monitoring scan does not duplicate
	// the notification just sent.
	if err := s.collections.SetWatermark(ctx, store.PatientCheckKey(target.UserID), time.Now()); err != nil {
		s.logger.Warn().Err(err).Str("patient_id", target.UserID).Msg("failed to advance patient watermark")
	}

	updated := findReport(s.collections.Reports(ctx, store.KeyAllReports), reportID)
	if updated == nil {
		return nil, apperrors.NotFound("report", nil)
	}
	return updated, nil
}

// syncConsultationsWithResponse pushes a fresh response into any existing
// consultations for the report, on both the doctor's and the patient's side.
func (s *Service) syncConsultationsWithResponse(ctx context.Context, patientID, doctorID, reportID string, resp model.DoctorResponse) {
	apply := func(c model.Consultation) model.Consultation {
		if c.ReportID != reportID {
			return c
		}
		c.Status = model.ConsultationStatusActive
		c.UpdatedAt = time.Now()
		c.LastMessage = &model.LastMessage{
			Content:   resp.Advice,
			Timestamp: resp.RespondedAt,
			Sender:    model.RoleDoctor,
		}
		c.Responses = append(c.Responses, resp)
		return c
	}

	for _, key := range []string{store.DoctorConsultationsKey(doctorID), store.ConsultationsKey(patientID)} {
		cons := s.collections.Consultations(ctx, key)
		for i := range cons {
			cons[i] = apply(cons[i])
		}
		if err := s.collections.WriteConsultations(ctx, key, cons); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to sync consultations with response")
		}
	}
}

// Appoint lets the report's owner choose one responding doctor. It sets the
// assignment fields and, as a side effect, materializes the consultation with
// its deterministic id into both parties' collections and seeds the chat with
// the chosen response. Appointing the same doctor twice collapses into a
// single consultation.
func (s *Service) Appoint(ctx context.Context, reportID string, owner *model.User, doctorID string) (*model.Consultation, error) {
	allReports := s.collections.Reports(ctx, store.KeyAllReports)
	target := findReport(allReports, reportID)
	if target == nil {
		return nil, apperrors.NotFound("report", nil)
	}
	if target.UserID != owner.ID {
		return nil, apperrors.Forbidden("only the report owner can appoint a doctor", nil)
	}

	var chosen *model.DoctorResponse
	for i := range target.Responses {
		if target.Responses[i].DoctorID == doctorID {
			chosen = &target.Responses[i]
			break
		}
	}
	if chosen == nil {
		return nil, apperrors.BadRequest("doctor has not responded to this report", nil)
	}

	assign := func(r model.HealthReport) model.HealthReport {
		if r.ID != reportID {
			return r
		}
		r.Status = model.ReportStatusReviewed
		r.AssignedDoctorID = chosen.DoctorID
		r.AssignedDoctorName = chosen.DoctorName
		return r
	}

	for i := range allReports {
		allReports[i] = assign(allReports[i])
	}
	if err := s.collections.WriteReports(ctx, store.KeyAllReports, allReports); err != nil {
		return nil, fmt.Errorf("failed to update global reports: %w", err)
	}

	ownerKey := store.ReportsKey(owner.ID)
	ownReports := s.collections.Reports(ctx, ownerKey)
	for i := range ownReports {
		ownReports[i] = assign(ownReports[i])
	}
	if err := s.collections.WriteReports(ctx, ownerKey, ownReports); err != nil {
		s.logger.Warn().Err(err).Str("report_id", reportID).Msg("failed to mirror assignment into owner reports")
	}

	s.bus.Publish(event.SignalAllReportsUpdated, event.Detail{
		"reason": "appoint_doctor", "reportId": reportID, "doctorId": doctorID,
	})

	now := time.Now()
	consultation := model.Consultation{
		ID:          model.ConsultationID(reportID, doctorID),
		ReportID:    reportID,
		DoctorID:    chosen.DoctorID,
		DoctorName:  chosen.DoctorName,
		PatientID:   owner.ID,
		PatientName: owner.FullName,
		Status:      model.ConsultationStatusActive,
		StartedAt:   now,
		CreatedAt:   now,
		UpdatedAt:   chosen.RespondedAt,
		LastMessage: &model.LastMessage{
			Content:   chosen.Advice,
			Timestamp: chosen.RespondedAt,
			Sender:    model.RoleDoctor,
		},
		Responses: []model.DoctorResponse{*chosen},
	}

	// Consultations only materialize while the source report is still visible
	// to its owner.
	if s.reportVisibleToOwner(ctx, owner.ID, reportID) {
		for _, key := range []string{store.ConsultationsKey(owner.ID), store.DoctorConsultationsKey(doctorID)} {
			existing := s.collections.Consultations(ctx, key)
			deduped := existing[:0]
			for _, c := range existing {
				if c.ID != consultation.ID {
					deduped = append(deduped, c)
				}
			}
			next := append([]model.Consultation{consultation}, deduped...)
			if err := s.collections.WriteConsultations(ctx, key, next); err != nil {
				s.logger.Warn().Err(err).Str("key", key).Msg("failed to store consultation")
			}
		}
	}

	s.bus.Publish(event.SignalConsultationsUpdated, event.Detail{
		"userId": owner.ID, "reportId": reportID, "doctorId": doctorID,
	})

	seed := model.Message{
		ID:             uuid.New().String(),
		ConsultationID: consultation.ID,
		SenderID:       chosen.DoctorID,
		SenderName:     chosen.DoctorName,
		Role:           model.RoleDoctor,
		Content:        chosen.Advice,
		Timestamp:      chosen.RespondedAt,
	}
	if err := s.collections.WriteMessages(ctx, consultation.ID, []model.Message{seed}); err != nil {
		s.logger.Warn().Err(err).Str("consultation_id", consultation.ID).Msg("failed to seed consultation messages")
	}

	data := map[string]interface{}{
		"reportId":  reportID,
		"patientId": owner.ID,
		"doctorId":  chosen.DoctorID,
	}
	s.notifSvc.SendUserNotification(ctx, chosen.DoctorID,
		"Appointment Assigned",
		fmt.Sprintf("%s appointed you to their case (Report #%s).", owner.FullName, reportID),
		model.NotificationTypeSystem, data)
	s.notifSvc.SendRoleNotification(ctx, model.RoleAdmin,
		"Appointment Assigned",
		fmt.Sprintf("%s appointed Dr. %s to Report #%s.", owner.FullName, chosen.DoctorName, reportID),
		model.NotificationTypeSystem, data)
	s.notifSvc.SendRoleNotification(ctx, model.RoleDoctor,
		"Appointment Assigned",
		fmt.Sprintf("%s appointed Dr. %s to Report #%s.", owner.FullName, chosen.DoctorName, reportID),
		model.NotificationTypeSystem, data)

	return &consultation, nil
}

// SoftDelete hides a report from the villager's own view and cascades the
// removal of linked consultations and their messages. The report itself stays
// in the global collection and remains visible to admins and other doctors.
func (s *Service) SoftDelete(ctx context.Context, reportID, villagerID string) error {
	hiddenKey := store.HiddenReportsKey("Villager", villagerID)
	hidden := s.collections.HiddenIDs(ctx, hiddenKey)
	if !contains(hidden, reportID) {
		hidden = append(hidden, reportID)
	}
	if err := s.collections.WriteHiddenIDs(ctx, hiddenKey, hidden); err != nil {
		return fmt.Errorf("failed to hide report: %w", err)
	}

	consKey := store.ConsultationsKey(villagerID)
	cons := s.collections.Consultations(ctx, consKey)
	var removed []model.Consultation
	remaining := cons[:0]
	for _, c := range cons {
		if c.ReportID == reportID {
			removed = append(removed, c)
		} else {
			remaining = append(remaining, c)
		}
	}
	if err := s.collections.WriteConsultations(ctx, consKey, remaining); err != nil {
		s.logger.Warn().Err(err).Str("key", consKey).Msg("failed to remove consultations on soft delete")
	}

	for _, c := range removed {
		if err := s.collections.Store().Delete(ctx, store.MessagesKey(c.ID)); err != nil {
			s.logger.Warn().Err(err).Str("consultation_id", c.ID).Msg("failed to delete consultation messages")
		}
		if c.DoctorID == "" {
			continue
		}
		docKey := store.DoctorConsultationsKey(c.DoctorID)
		docCons := s.collections.Consultations(ctx, docKey)
		docRemaining := docCons[:0]
		for _, dc := range docCons {
			if dc.ID != c.ID {
				docRemaining = append(docRemaining, dc)
			}
		}
		if err := s.collections.WriteConsultations(ctx, docKey, docRemaining); err != nil {
			s.logger.Warn().Err(err).Str("key", docKey).Msg("failed to remove doctor consultation on soft delete")
		}
	}

	s.bus.Publish(event.SignalConsultationsUpdated, event.Detail{"userId": villagerID, "reportId": reportID})
	return nil
}

// DeleteAppointment clears the doctor's assignment on a report and hides the
// report from that doctor's own view. The report itself is untouched and only
// the patient and the admins are told.
func (s *Service) DeleteAppointment(ctx context.Context, reportID string, doctor *model.User) error {
	allReports := s.collections.Reports(ctx, store.KeyAllReports)
	target := findReport(allReports, reportID)
	if target == nil {
		return apperrors.NotFound("report", nil)
	}

	unassign := func(r model.HealthReport) model.HealthReport {
		if r.ID != reportID || r.AssignedDoctorID != doctor.ID {
			return r
		}
		r.AssignedDoctorID = ""
		r.AssignedDoctorName = ""
		return r
	}

	for i := range allReports {
		allReports[i] = unassign(allReports[i])
	}
	if err := s.collections.WriteReports(ctx, store.KeyAllReports, allReports); err != nil {
		return fmt.Errorf("failed to update global reports: %w", err)
	}

	ownerKey := store.ReportsKey(target.UserID)
	ownReports := s.collections.Reports(ctx, ownerKey)
	for i := range ownReports {
		ownReports[i] = unassign(ownReports[i])
	}
	if err := s.collections.WriteReports(ctx, ownerKey, ownReports); err != nil {
		s.logger.Warn().Err(err).Str("report_id", reportID).Msg("failed to mirror unassignment into owner reports")
	}

	hiddenKey := store.HiddenReportsKey("Doctor", doctor.ID)
	hidden := s.collections.HiddenIDs(ctx, hiddenKey)
	if !contains(hidden, reportID) {
		hidden = append(hidden, reportID)
		if err := s.collections.WriteHiddenIDs(ctx, hiddenKey, hidden); err != nil {
			s.logger.Warn().Err(err).Str("key", hiddenKey).Msg("failed to hide report from doctor view")
		}
	}

	s.bus.Publish(event.SignalAllReportsUpdated, event.Detail{"reason": "appointment_deleted", "reportId": reportID})

	s.notifSvc.SendUserNotification(ctx, target.UserID,
		"Appointment Deleted",
		fmt.Sprintf("Dr. %s removed their appointment for your report.", doctor.FullName),
		model.NotificationTypeSystem,
		map[string]interface{}{
			"reportId":   reportID,
			"doctorId":   doctor.ID,
			"doctorName": doctor.FullName,
		})
	s.notifSvc.SendRoleNotification(ctx, model.RoleAdmin,
		"Appointment Deleted",
		fmt.Sprintf("Dr. %s removed their appointment for %s's report.", doctor.FullName, target.UserName),
		model.NotificationTypeSystem,
		map[string]interface{}{
			"reportId":  reportID,
			"patientId": target.UserID,
			"doctorId":  doctor.ID,
		})

	return nil
}

// ListForVillager returns the villager's own reports minus the hidden ones.
func (s *Service) ListForVillager(ctx context.Context, villagerID string) []model.HealthReport {
	reports := s.collections.Reports(ctx, store.ReportsKey(villagerID))
	hidden := s.collections.HiddenIDs(ctx, store.HiddenReportsKey("Villager", villagerID))
	return filterHidden(reports, hidden)
}

// ListForDoctor returns the global collection minus the doctor's own hidden
// list.
func (s *Service) ListForDoctor(ctx context.Context, doctorID string) []model.HealthReport {
	reports := s.collections.Reports(ctx, store.KeyAllReports)
	hidden := s.collections.HiddenIDs(ctx, store.HiddenReportsKey("Doctor", doctorID))
	return filterHidden(reports, hidden)
}

// ListAll returns the unfiltered global collection, for the admin surface.
func (s *Service) ListAll(ctx context.Context) []model.HealthReport {
	return s.collections.Reports(ctx, store.KeyAllReports)
}

func (s *Service) Get(ctx context.Context, reportID string) (*model.HealthReport, error) {
	r := findReport(s.collections.Reports(ctx, store.KeyAllReports), reportID)
	if r == nil {
		return nil, apperrors.NotFound("report", nil)
	}
	return r, nil
}

func (s *Service) reportVisibleToOwner(ctx context.Context, ownerID, reportID string) bool {
	reports := s.collections.Reports(ctx, store.ReportsKey(ownerID))
	hidden := s.collections.HiddenIDs(ctx, store.HiddenReportsKey("Villager", ownerID))
	for _, r := range filterHidden(reports, hidden) {
		if r.ID == reportID {
			return true
		}
	}
	return false
}

func (s *Service) resolveLocation(ctx context.Context, req *model.SubmitReportRequest) *model.Location {
	if s.geoClient == nil {
		return nil
	}
	if req.LocationText != "" {
		loc, err := s.geoClient.Search(ctx, req.LocationText)
		if err != nil {
			s.logger.Warn().Err(err).Msg("geocoding failed, submitting report without location")
			return nil
		}
		return loc
	}
	if req.Latitude != 0 || req.Longitude != 0 {
		loc, err := s.geoClient.Reverse(ctx, req.Latitude, req.Longitude)
		if err != nil {
			s.logger.Warn().Err(err).Msg("reverse geocoding failed, keeping raw coordinates")
			return &model.Location{Latitude: req.Latitude, Longitude: req.Longitude}
		}
		return loc
	}
	return nil
}

func findReport(reports []model.HealthReport, id string) *model.HealthReport {
	for i := range reports {
		if reports[i].ID == id {
			r := reports[i]
			return &r
		}
	}
	return nil
}

func filterHidden(reports []model.HealthReport, hidden []string) []model.HealthReport {
	if len(hidden) == 0 {
		return reports
	}
	out := make([]model.HealthReport, 0, len(reports))
	for _, r := range reports {
		if !contains(hidden, r.ID) {
			out = append(out, r)
		}
	}
	return out
}

func prepend(r model.HealthReport, list []model.HealthReport) []model.HealthReport {
	return append([]model.HealthReport{r}, list...)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

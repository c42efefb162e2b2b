package store

import "fmt"

// Canonical storage keys. The per-user keys embed the owner's id; every write
// site is responsible for updating all mirrors of a record.
const (
	KeyAllReports      = "allReports"
	KeyUsers           = "users"
	KeyRegisteredUsers = "villageHealthRegisteredUsers"
)

func ReportsKey(userID string) string {
	return fmt.Sprintf("reports_%s", userID)
}

func ConsultationsKey(userID string) string {
	return fmt.Sprintf("consultations_%s", userID)
}

func DoctorConsultationsKey(doctorID string) string {
	return fmt.Sprintf("consultations_doctor_%s", doctorID)
}

func MessagesKey(consultationID string) string {
	return fmt.Sprintf("messages_%s", consultationID)
}

func NotificationsKey(userID string) string {
	return fmt.Sprintf("notifications_%s", userID)
}

// HiddenReportsKey names the per-(role,user) soft-delete list. The role segment
// is capitalized ("Villager", "Doctor") for compatibility with existing data.
func HiddenReportsKey(role, userID string) string {
	return fmt.Sprintf("hiddenReports_%s_%s", role, userID)
}

func DoctorCheckKey(doctorID string) string {
	if doctorID == "" {
		return "lastNotificationCheck"
	}
	return fmt.Sprintf("lastDoctorNotificationCheck_%s", doctorID)
}

func PatientCheckKey(patientID string) string {
	return fmt.Sprintf("lastPatientNotificationCheck_%s", patientID)
}

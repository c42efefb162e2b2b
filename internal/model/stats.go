package model

// SystemStats is the admin dashboard summary computed over the shared store.
type SystemStats struct {
	TotalUsers         int            `json:"total_users"`
	ActiveUsers        int            `json:"active_users"`
	UsersByRole        map[string]int `json:"users_by_role"`
	TotalReports       int            `json:"total_reports"`
	ReportsByStatus    map[string]int `json:"reports_by_status"`
	ReportsByUrgency   map[string]int `json:"reports_by_urgency"`
	AssignedReports    int            `json:"assigned_reports"`
	TotalConsultations int            `json:"total_consultations"`
}

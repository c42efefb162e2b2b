package admin

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/swasthgram/health-api/internal/model"
	"github.com/swasthgram/health-api/internal/store"
)

// Service computes dashboard summaries over the shared store. Admins observe;
// they never mutate reports or consultations.
type Service struct {
	collections *store.Collections
	logger      zerolog.Logger
}

func NewService(collections *store.Collections, logger zerolog.Logger) *Service {
	return &Service{collections: collections, logger: logger}
}

// Stats aggregates users, reports and consultations in one pass each.
func (s *Service) Stats(ctx context.Context) *model.SystemStats {
	stats := &model.SystemStats{
		UsersByRole:      make(map[string]int),
		ReportsByStatus:  make(map[string]int),
		ReportsByUrgency: make(map[string]int),
	}

	users := s.collections.Users(ctx)
	stats.TotalUsers = len(users)
	for _, u := range users {
		stats.UsersByRole[u.Role]++
		if u.IsActive {
			stats.ActiveUsers++
		}
	}

	reports := s.collections.Reports(ctx, store.KeyAllReports)
	stats.TotalReports = len(reports)
	for _, r := range reports {
		stats.ReportsByStatus[r.Status]++
		stats.ReportsByUrgency[r.Urgency]++
		if r.AssignedDoctorID != "" {
			stats.AssignedReports++
		}
	}

	// Consultations are counted from the doctor side of the mirror so nothing
	// is double-counted.
	for _, u := range users {
		if u.Role != model.RoleDoctor {
			continue
		}
		stats.TotalConsultations += len(s.collections.Consultations(ctx, store.DoctorConsultationsKey(u.ID)))
	}

	return stats
}

package workflow

import (
	"strings"

	"github.com/prefect-field/jobtrack/internal/db/models"
)

// ProjectForRole returns the jobs visible to the given role and user in input order.
// The result is always a new, non-nil slice; an unknown role or blank user id sees nothing.
func ProjectForRole(jobs []models.Job, role models.UserRole, userID string) []models.Job {
	out := make([]models.Job, 0, len(jobs))
	for _, job := range jobs {
		if CanView(job, role, userID) {
			out = append(out, job)
		}
	}
	return out
}

// CanView is the ownership predicate behind ProjectForRole
func CanView(job models.Job, role models.UserRole, userID string) bool {
	id := strings.TrimSpace(userID)
	if id == "" {
		return false
	}
	switch role {
	case models.UserRoleAdmin:
		return true
	case models.UserRoleContractor:
		return strings.TrimSpace(job.AssignedContractor) == id
	case models.UserRoleTechnician:
		return strings.TrimSpace(job.AssignedTech) == id
	}
	return false
}

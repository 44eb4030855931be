package workflow

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/prefect-field/jobtrack/internal/db/models"
)

// DateLayout is the calendar date format accepted for completion dates
const DateLayout = "2006-01-02"

// CompletionForm carries the raw close-out form values as the worker submitted them
type CompletionForm struct {
	CustomerName   string `json:"customer_name"`
	ContactName    string `json:"contact_name"`
	WorkPerformed  string `json:"work_performed"`
	CompletionDate string `json:"completion_date"`
	TravelTime     string `json:"travel_time"`
	LabourTime     string `json:"labour_time"`
	NoteCount      string `json:"note_count"`
	// Status is whatever the form's status selector held. It is ignored.
	Status    string                `json:"status,omitempty"`
	Checklist models.Checklist      `json:"checklist"`
	Signature string                `json:"signature"`
	Machines  []models.MachineUsage `json:"machines"`
}

// CompletionPayload is a validated close-out ready to be written onto a job
type CompletionPayload struct {
	CustomerName     string
	ContactName      string
	WorkPerformed    string
	CompletionDate   time.Time
	TravelTime       float64
	LabourTime       float64
	NoteCount        int
	Checklist        models.Checklist
	Signature        string
	Machines         []models.MachineUsage
	Status           models.JobStatus
	ContractorStatus string
}

// BuildCompletionPayload validates form against the machine catalog.
// Duplicate machine ids are dropped, keeping the first entry.
func BuildCompletionPayload(form CompletionForm, _ models.Job, available []models.Machine) (CompletionPayload, error) {
	required := []struct {
		field string
		value string
	}{
		{"customer_name", form.CustomerName},
		{"contact_name", form.ContactName},
		{"work_performed", form.WorkPerformed},
		{"completion_date", form.CompletionDate},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return CompletionPayload{}, NewValidationError(r.field, "is required")
		}
	}

	completionDate, err := parseCompletionDate(form.CompletionDate)
	if err != nil {
		return CompletionPayload{}, err
	}
	travel, err := parseHours("travel_time", form.TravelTime)
	if err != nil {
		return CompletionPayload{}, err
	}
	labour, err := parseHours("labour_time", form.LabourTime)
	if err != nil {
		return CompletionPayload{}, err
	}
	notes, err := parseCount("note_count", form.NoteCount)
	if err != nil {
		return CompletionPayload{}, err
	}
	machines, err := buildMachines(form.Machines, available)
	if err != nil {
		return CompletionPayload{}, err
	}

	return CompletionPayload{
		CustomerName:     strings.TrimSpace(form.CustomerName),
		ContactName:      strings.TrimSpace(form.ContactName),
		WorkPerformed:    strings.TrimSpace(form.WorkPerformed),
		CompletionDate:   completionDate,
		TravelTime:       travel,
		LabourTime:       labour,
		NoteCount:        notes,
		Checklist:        form.Checklist,
		Signature:        form.Signature,
		Machines:         machines,
		Status:           models.JobStatusCompletedPendingApproval,
		ContractorStatus: models.JobStatusCompletedPendingApproval.ContractorStatus(),
	}, nil
}

// Apply replaces the job's completion fields with the payload. Machines are rebuilt from the payload.
func (p CompletionPayload) Apply(job *models.Job) {
	date := p.CompletionDate
	job.CustomerName = p.CustomerName
	job.ContactName = p.ContactName
	job.WorkPerformed = p.WorkPerformed
	job.CompletionDate = &date
	job.TravelTime = p.TravelTime
	job.LabourTime = p.LabourTime
	job.NoteCount = p.NoteCount
	job.Checklist = p.Checklist
	job.Signature = p.Signature
	job.Machines = append([]models.MachineUsage{}, p.Machines...)
}

// Complete decides a completion submission. The returned result always lands on Completed - Pending Approval.
func Complete(job models.Job, actor Actor, _ CompletionPayload, opts Options) (Result, error) {
	if err := CanComplete(job, actor); err != nil {
		return Result{}, err
	}

	return Result{
		Status:           models.JobStatusCompletedPendingApproval,
		ContractorStatus: models.JobStatusCompletedPendingApproval.ContractorStatus(),
		Timestamp:        opts.now(),
	}, nil
}

// CanComplete checks that actor may close out job in its current status
func CanComplete(job models.Job, actor Actor) error {
	if actor.Role != models.UserRoleAdmin && !IsAssignee(job, actor) {
		return fmt.Errorf("%w: only the assigned worker or an admin may complete job %d", ErrForbidden, job.ID)
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("%w: job %d is already %s", ErrInvalidTransition, job.ID, job.Status)
	}
	return nil
}

func parseCompletionDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, NewValidationError("completion_date", fmt.Sprintf("%q is not a YYYY-MM-DD date", raw))
}

func parseHours(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, NewValidationError(field, fmt.Sprintf("%q is not a number", raw))
	}
	if v < 0 {
		return 0, NewValidationError(field, "must not be negative")
	}
	return v, nil
}

func parseCount(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewValidationError(field, fmt.Sprintf("%q is not a whole number", raw))
	}
	if v < 0 {
		return 0, NewValidationError(field, "must not be negative")
	}
	return v, nil
}

func buildMachines(entries []models.MachineUsage, available []models.Machine) ([]models.MachineUsage, error) {
	known := make(map[string]struct{}, len(available))
	for _, m := range available {
		known[strings.TrimSpace(m.MachineID)] = struct{}{}
	}

	out := make([]models.MachineUsage, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, entry := range entries {
		id := strings.TrimSpace(entry.MachineID)
		if id == "" {
			return nil, NewValidationError("machines", fmt.Sprintf("entry %d has no machine id", i+1))
		}
		if _, ok := known[id]; !ok {
			return nil, NewValidationError("machines", fmt.Sprintf("unknown machine %q", id))
		}
		// Machine already added
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, models.MachineUsage{MachineID: id, Notes: entry.Notes, PartsUsed: entry.PartsUsed})
	}
	return out, nil
}

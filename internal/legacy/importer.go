package legacy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/db/repos"
	"github.com/prefect-field/jobtrack/internal/logger"
)

// Importer writes a legacy dataset through the repositories
type Importer struct {
	users    *repos.UserRepository
	jobs     *repos.JobRepository
	machines *repos.MachineRepository

	// Location is the zone legacy timestamps were written in. Defaults to time.Local.
	Location *time.Location
	// DryRun converts and validates every record but writes nothing
	DryRun bool
}

// Report summarizes an import
type Report struct {
	Users    int
	Machines int
	Jobs     int
	// Skipped names every record that was not written and why
	Skipped []string
}

func (r *Report) skip(kind string, idx int, err error) {
	msg := fmt.Sprintf("%s[%d]: %v", kind, idx, err)
	r.Skipped = append(r.Skipped, msg)
	logger.Warnf("skipping legacy record %s", msg)
}

// NewImporter creates an Importer
func NewImporter(users *repos.UserRepository, jobs *repos.JobRepository, machines *repos.MachineRepository) *Importer {
	return &Importer{
		users:    users,
		jobs:     jobs,
		machines: machines,
		Location: time.Local,
	}
}

// Import writes users first so job assignments can be remapped from legacy user ids
// to the ids the users get in the new store.
// Records that cannot be converted are skipped and listed in the report; a store failure stops the import.
func (i *Importer) Import(ctx context.Context, ds *Dataset) (*Report, error) {
	report := &Report{}

	userIDs, err := i.importUsers(ctx, ds.Users, report)
	if err != nil {
		return report, err
	}
	if err := i.importMachines(ctx, ds.Machines, report); err != nil {
		return report, err
	}
	if err := i.importJobs(ctx, ds.Jobs, userIDs, report); err != nil {
		return report, err
	}

	logger.InfoWithFields("legacy import finished", map[string]interface{}{
		"users":    report.Users,
		"machines": report.Machines,
		"jobs":     report.Jobs,
		"skipped":  len(report.Skipped),
		"dry_run":  i.DryRun,
	})
	return report, nil
}

func (i *Importer) importUsers(ctx context.Context, records []Record, report *Report) (map[string]string, error) {
	userIDs := make(map[string]string, len(records))
	for idx, rec := range records {
		user, err := ToUser(rec)
		if err != nil {
			report.skip("users", idx, err)
			continue
		}
		legacyID := rec.String("id")

		if i.DryRun {
			report.Users++
			continue
		}

		err = i.users.CreateUser(ctx, user)
		if errors.Is(err, repos.ErrUsernameTaken) {
			existing, getErr := i.users.GetUserByUsername(ctx, user.Username)
			if getErr != nil {
				return nil, fmt.Errorf("failed to look up existing user %s: %w", user.Username, getErr)
			}
			if legacyID != "" {
				userIDs[legacyID] = existing.UserID()
			}
			report.skip("users", idx, fmt.Errorf("username %s already exists, jobs are mapped to it", user.Username))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", user.Username, err)
		}
		if legacyID != "" {
			userIDs[legacyID] = user.UserID()
		}
		report.Users++
	}
	return userIDs, nil
}

func (i *Importer) importMachines(ctx context.Context, records []Record, report *Report) error {
	for idx, rec := range records {
		machine, err := ToMachine(rec)
		if err != nil {
			report.skip("machines", idx, err)
			continue
		}
		if i.DryRun {
			report.Machines++
			continue
		}

		err = i.machines.Create(ctx, machine)
		if errors.Is(err, repos.ErrMachineExists) {
			report.skip("machines", idx, err)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create machine %s: %w", machine.MachineID, err)
		}
		report.Machines++
	}
	return nil
}

func (i *Importer) importJobs(ctx context.Context, records []Record, userIDs map[string]string, report *Report) error {
	for idx, rec := range records {
		job, err := ToJob(rec, i.Location)
		if err != nil {
			report.skip("jobs", idx, err)
			continue
		}
		job.AssignedContractor = remap(job.AssignedContractor, userIDs)
		job.AssignedTech = remap(job.AssignedTech, userIDs)

		if err := job.Validate(); err != nil {
			report.skip("jobs", idx, err)
			continue
		}
		if i.DryRun {
			report.Jobs++
			continue
		}

		if err := i.jobs.Create(ctx, job); err != nil {
			return fmt.Errorf("failed to create job %s: %w", job.WorkOrder, err)
		}
		report.Jobs++
	}
	return nil
}

// remap swaps a legacy user id for the new one. Ids of users not in the file are kept.
func remap(id string, userIDs map[string]string) string {
	if newID, ok := userIDs[id]; ok {
		return newID
	}
	return id
}

// ToUser converts a legacy user. The plaintext password is hashed.
func ToUser(rec Record) (*models.User, error) {
	username := rec.String("username")
	if username == "" {
		return nil, fmt.Errorf("username is missing")
	}
	role, err := models.ParseUserRole(rec.String("role"))
	if err != nil {
		return nil, err
	}
	password := rec.String("password")
	if password == "" {
		return nil, fmt.Errorf("user %s has no password", username)
	}

	user := &models.User{
		Username: username,
		Name:     rec.String("name"),
		Role:     role,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	return user, nil
}

// ToMachine converts a legacy catalog entry. Entries without machine_id use their id.
func ToMachine(rec Record) (*models.Machine, error) {
	machineID := rec.String("machine_id")
	if machineID == "" {
		machineID = rec.String("id")
	}
	machine := &models.Machine{
		MachineID:   machineID,
		MachineType: rec.String("machine_type"),
		ModelName:   rec.String("model"),
	}
	if err := machine.Validate(); err != nil {
		return nil, err
	}
	return machine, nil
}

// ToJob converts a legacy job, reading timestamps in loc
func ToJob(rec Record, loc *time.Location) (*models.Job, error) {
	status, err := parseStatus(rec.String("status"))
	if err != nil {
		return nil, err
	}
	role := models.UserRoleUnknown
	if raw := rec.String("role"); raw != "" {
		if role, err = models.ParseUserRole(raw); err != nil {
			return nil, err
		}
	}

	job := &models.Job{
		WorkOrder:          rec.String("work_order"),
		CustomerName:       rec.String("customer_name"),
		CustomerAddress:    rec.String("customer_address"),
		ContactName:        rec.String("contact_name"),
		WorkRequired:       rec.String("work_required"),
		Role:               role,
		AssignedContractor: rec.String("assigned_contractor"),
		AssignedTech:       rec.String("assigned_tech"),
		Contractor:         rec.String("contractor"),
		Status:             status,
		ContractorStatus:   status.ContractorStatus(),
		WorkPerformed:      rec.String("work_performed"),
		Signature:          rec.String("signature"),
	}

	if job.TravelTime, err = rec.Float("travel_time"); err != nil {
		return nil, err
	}
	if job.LabourTime, err = rec.Float("labour_time"); err != nil {
		return nil, err
	}
	if job.NoteCount, err = rec.Int("note_count"); err != nil {
		return nil, err
	}

	for key, dst := range map[string]**time.Time{
		"required_date":    &job.RequiredDate,
		"status_timestamp": &job.StatusTimestamp,
		"onsite_time":      &job.OnsiteTime,
		"completion_date":  &job.CompletionDate,
	} {
		if *dst, err = rec.Time(key, loc); err != nil {
			return nil, err
		}
	}

	checklist := rec.nested("checklist")
	job.Checklist = models.Checklist{
		NoMissingScrews:      checklist.Bool("no_missing_screws"),
		SoftwareUpdated:      checklist.Bool("software_updated"),
		Tested:               checklist.Bool("tested"),
		ApprovedByManagement: checklist.Bool("approved_by_management"),
	}

	job.Machines = toMachineUsage(rec["machines"])
	return job, nil
}

// toMachineUsage accepts both the old list of machine ids and the later list of objects
func toMachineUsage(v interface{}) []models.MachineUsage {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	usage := make([]models.MachineUsage, 0, len(items))
	for _, item := range items {
		switch m := item.(type) {
		case string:
			if id := strings.TrimSpace(m); id != "" {
				usage = append(usage, models.MachineUsage{MachineID: id})
			}
		case float64:
			usage = append(usage, models.MachineUsage{MachineID: Record{"id": m}.String("id")})
		case map[string]interface{}:
			rec := canonicalize(m)
			id := rec.String("machine_id")
			if id == "" {
				id = rec.String("id")
			}
			if id == "" {
				continue
			}
			usage = append(usage, models.MachineUsage{
				MachineID: id,
				Notes:     rec.String("notes"),
				PartsUsed: rec.String("parts_used"),
			})
		}
	}
	return usage
}

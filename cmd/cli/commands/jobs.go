package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/types"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

// jobRequestFlags maps flag names onto the JobRequest fields they set
var jobRequestFlags = []struct {
	name  string
	usage string
	set   func(req *types.JobRequest, v string) error
}{
	{"work-order", "Work order number", func(r *types.JobRequest, v string) error { r.WorkOrder = v; return nil }},
	{"customer", "Customer name", func(r *types.JobRequest, v string) error { r.CustomerName = v; return nil }},
	{"address", "Customer address", func(r *types.JobRequest, v string) error { r.CustomerAddress = v; return nil }},
	{"contact", "Contact name", func(r *types.JobRequest, v string) error { r.ContactName = v; return nil }},
	{"work-required", "Description of the work", func(r *types.JobRequest, v string) error { r.WorkRequired = v; return nil }},
	{"contractor-id", "User id of the assigned contractor", func(r *types.JobRequest, v string) error { r.AssignedContractor = v; return nil }},
	{"tech-id", "User id of the assigned technician", func(r *types.JobRequest, v string) error { r.AssignedTech = v; return nil }},
	{"contractor", "Contracting company", func(r *types.JobRequest, v string) error { r.Contractor = v; return nil }},
	{"role", "Role doing the work (contractor or technician)", func(r *types.JobRequest, v string) error {
		if v == "" {
			r.Role = models.UserRoleUnknown
			return nil
		}
		role, err := models.ParseUserRole(v)
		if err != nil {
			return err
		}
		r.Role = role
		return nil
	}},
	{"required-date", "Date the work is due (YYYY-MM-DD)", func(r *types.JobRequest, v string) error {
		if v == "" {
			r.RequiredDate = nil
			return nil
		}
		d, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return fmt.Errorf("invalid required-date %q: %w", v, err)
		}
		r.RequiredDate = &d
		return nil
	}},
}

func addJobRequestFlags(cmd *cobra.Command) {
	for _, f := range jobRequestFlags {
		cmd.Flags().String(f.name, "", f.usage)
	}
}

// applyJobRequestFlags copies the flags the user set onto req
func applyJobRequestFlags(cmd *cobra.Command, req *types.JobRequest) error {
	for _, f := range jobRequestFlags {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		v, _ := cmd.Flags().GetString(f.name)
		if err := f.set(req, strings.TrimSpace(v)); err != nil {
			return err
		}
	}
	return nil
}

func newJobsCmd() *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage jobs",
	}

	jobsCmd.AddCommand(
		newListJobsCmd(),
		newGetJobCmd(),
		newCreateJobCmd(),
		newUpdateJobCmd(),
		newDeleteJobCmd(),
		newTransitionCmd("advance", "Move a job you are assigned to on to its next status", apiClientAdvance),
		newTransitionCmd("approve", "Approve a completed job (admin)", apiClientApprove),
		newTransitionCmd("reject", "Reject a completed job (admin)", apiClientReject),
		newCompleteJobCmd(),
	)
	return jobsCmd
}

func newListJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the jobs visible to you",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetString("status")

			var filter models.JobStatus
			if status != "" {
				var err error
				if filter, err = models.ParseJobStatus(status); err != nil {
					return err
				}
			}

			jobs, err := apiClient.GetJobs(context.Background())
			if err != nil {
				return fmt.Errorf("error fetching jobs: %w", err)
			}

			if filter != models.JobStatusUnknown {
				filtered := make([]models.Job, 0, len(jobs))
				for _, job := range jobs {
					if job.Status == filter {
						filtered = append(filtered, job)
					}
				}
				jobs = filtered
			}
			return printJSON(cmd, jobs)
		},
	}
	cmd.Flags().String("status", "", `Only show jobs with this status, e.g. "In Progress"`)
	return cmd
}

func newGetJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a specific job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := getID(cmd)
			if err != nil {
				return err
			}
			job, err := apiClient.GetJob(context.Background(), id)
			if err != nil {
				return fmt.Errorf("error fetching job: %w", err)
			}
			return printJSON(cmd, job)
		},
	}
	addIDFlag(cmd, "job")
	return cmd
}

func newCreateJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a job (admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req types.JobRequest
			if err := applyJobRequestFlags(cmd, &req); err != nil {
				return err
			}
			job, err := apiClient.CreateJob(context.Background(), req)
			if err != nil {
				return fmt.Errorf("error creating job: %w", err)
			}
			return printJSON(cmd, job)
		},
	}
	addJobRequestFlags(cmd)
	_ = cmd.MarkFlagRequired("work-order")
	_ = cmd.MarkFlagRequired("customer")
	return cmd
}

func newUpdateJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change a job's details or assignment (admin)",
		Long:  "Only the flags given are changed. The other fields keep their current values.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := getID(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()

			current, err := apiClient.GetJob(ctx, id)
			if err != nil {
				return fmt.Errorf("error fetching job: %w", err)
			}
			req := types.JobRequestFrom(current)
			if err := applyJobRequestFlags(cmd, &req); err != nil {
				return err
			}

			job, err := apiClient.UpdateJob(ctx, id, req)
			if err != nil {
				return fmt.Errorf("error updating job: %w", err)
			}
			return printJSON(cmd, job)
		},
	}
	addIDFlag(cmd, "job")
	addJobRequestFlags(cmd)
	return cmd
}

func newDeleteJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a job (admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := getID(cmd)
			if err != nil {
				return err
			}
			if err := apiClient.DeleteJob(context.Background(), id); err != nil {
				return fmt.Errorf("error deleting job: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %d deleted\n", id)
			return nil
		},
	}
	addIDFlag(cmd, "job")
	return cmd
}

type transitionFunc func(ctx context.Context, id uint) (models.Job, error)

func apiClientAdvance(ctx context.Context, id uint) (models.Job, error) {
	return apiClient.AdvanceJob(ctx, id)
}

func apiClientApprove(ctx context.Context, id uint) (models.Job, error) {
	return apiClient.ApproveJob(ctx, id)
}

func apiClientReject(ctx context.Context, id uint) (models.Job, error) {
	return apiClient.RejectJob(ctx, id)
}

func newTransitionCmd(use, short string, do transitionFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := getID(cmd)
			if err != nil {
				return err
			}
			job, err := do(context.Background(), id)
			if err != nil {
				return fmt.Errorf("error running %s on job %d: %w", use, id, err)
			}
			return printJSON(cmd, job)
		},
	}
	addIDFlag(cmd, "job")
	return cmd
}

func newCompleteJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Submit the completion form for a job",
		Long: `Submit the close-out form. Customer and contact default to the job's current values.
Machines are given as --machine ID or --machine "ID|parts used|notes" and can be repeated.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := getID(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()

			job, err := apiClient.GetJob(ctx, id)
			if err != nil {
				return fmt.Errorf("error fetching job: %w", err)
			}

			form := completionFormFromFlags(cmd, job)
			updated, err := apiClient.SubmitCompletion(ctx, id, form)
			if err != nil {
				return fmt.Errorf("error submitting completion: %w", err)
			}
			return printJSON(cmd, updated)
		},
	}
	addIDFlag(cmd, "job")

	f := cmd.Flags()
	f.String("customer", "", "Customer name (defaults to the job's)")
	f.String("contact", "", "Contact name (defaults to the job's)")
	f.String("work-performed", "", "Description of the work performed")
	f.String("completion-date", time.Now().Format(time.DateOnly), "Date the work was completed (YYYY-MM-DD)")
	f.String("travel", "", "Travel time in hours")
	f.String("labour", "", "Labour time in hours")
	f.String("notes", "", "Number of notes left")
	f.String("signature", "", "Signature data")
	f.StringArray("machine", nil, `Machine worked on, "ID" or "ID|parts used|notes"`)
	f.Bool("no-missing-screws", false, "Checklist: no missing screws")
	f.Bool("software-updated", false, "Checklist: software updated")
	f.Bool("tested", false, "Checklist: tested")
	f.Bool("approved-by-management", false, "Checklist: approved by management")
	_ = cmd.MarkFlagRequired("work-performed")
	return cmd
}

// completionFormFromFlags builds the form. Validation happens on the server.
func completionFormFromFlags(cmd *cobra.Command, job models.Job) workflow.CompletionForm {
	f := cmd.Flags()
	get := func(name string) string {
		v, _ := f.GetString(name)
		return v
	}
	flag := func(name string) bool {
		v, _ := f.GetBool(name)
		return v
	}

	form := workflow.CompletionForm{
		CustomerName:   job.CustomerName,
		ContactName:    job.ContactName,
		WorkPerformed:  get("work-performed"),
		CompletionDate: get("completion-date"),
		TravelTime:     get("travel"),
		LabourTime:     get("labour"),
		NoteCount:      get("notes"),
		Signature:      get("signature"),
		Checklist: models.Checklist{
			NoMissingScrews:      flag("no-missing-screws"),
			SoftwareUpdated:      flag("software-updated"),
			Tested:               flag("tested"),
			ApprovedByManagement: flag("approved-by-management"),
		},
	}
	if f.Changed("customer") {
		form.CustomerName = get("customer")
	}
	if f.Changed("contact") {
		form.ContactName = get("contact")
	}

	machines, _ := f.GetStringArray("machine")
	for _, raw := range machines {
		parts := strings.SplitN(raw, "|", 3)
		usage := models.MachineUsage{MachineID: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			usage.PartsUsed = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			usage.Notes = strings.TrimSpace(parts[2])
		}
		form.Machines = append(form.Machines, usage)
	}
	return form
}

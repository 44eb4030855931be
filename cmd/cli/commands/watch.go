package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/prefect-field/jobtrack/internal/config"
	"github.com/prefect-field/jobtrack/internal/constants"
	"github.com/prefect-field/jobtrack/internal/dashboard"
	"github.com/prefect-field/jobtrack/internal/db/models"
)

// onsiteLayout is how onsite times were always shown to workers
const onsiteLayout = "02/01/2006, 15:04:05"

var statusColors = map[models.JobStatus]*color.Color{
	models.JobStatusPending:                  color.New(color.FgYellow),
	models.JobStatusInProgress:               color.New(color.FgCyan),
	models.JobStatusCompletedPendingApproval: color.New(color.FgMagenta),
	models.JobStatusApproved:                 color.New(color.FgGreen),
	models.JobStatusRejected:                 color.New(color.FgRed),
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show your dashboard and redraw it whenever your jobs change",
		Long: `Polls the API and prints the jobs visible to the logged in user each time they change.
Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := tokenUser(token)
			if err != nil {
				return err
			}

			interval, err := pollInterval(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session := dashboard.NewSession(apiClient, user, dashboard.PollConfig{
				Interval: interval,
				Timeout:  timeout,
			})
			defer session.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching jobs for %s (%s), refreshing every %s\n", user.Username, user.Role, interval)

			// The poller only reports changes from an empty view, so an empty
			// dashboard is drawn here. A non-empty one is drawn by the first poll.
			initial, err := session.Refresh(ctx)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Could not load jobs: %v\n", err)
			} else if len(initial) == 0 {
				renderDashboard(out, initial, time.Now())
			}

			h := session.Watch(ctx, func(jobs []models.Job) {
				renderDashboard(out, jobs, time.Now())
			})
			<-h.Done()
			return nil
		},
	}
	cmd.Flags().Duration("interval", 0, "Refresh interval (env: "+constants.EnvPollInterval+", default 3s)")
	return cmd
}

// pollInterval resolves the interval: flag > env var > default
func pollInterval(cmd *cobra.Command) (time.Duration, error) {
	if cmd.Flags().Changed("interval") {
		return cmd.Flags().GetDuration("interval")
	}
	raw := config.GetEnv(constants.EnvPollInterval, "")
	if raw == "" {
		return dashboard.DefaultInterval, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", constants.EnvPollInterval, err)
	}
	return d, nil
}

// renderDashboard prints the job table. Times are shown in the local zone.
func renderDashboard(out io.Writer, jobs []models.Job, now time.Time) {
	fmt.Fprintf(out, "\n%s  %d job(s)\n", now.Local().Format(time.DateTime), len(jobs))
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWORK ORDER\tCUSTOMER\tCONTRACTOR STATUS\tONSITE\tSTATUS")
	for _, job := range jobs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			job.ID,
			job.WorkOrder,
			job.CustomerName,
			job.ContractorStatus,
			onsiteDisplay(job.OnsiteTime, now),
			statusDisplay(job.Status),
		)
	}
	_ = tw.Flush()
}

func onsiteDisplay(t *time.Time, now time.Time) string {
	if t == nil {
		return "N/A"
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format(onsiteLayout), humanize.RelTime(*t, now, "ago", "from now"))
}

// statusDisplay colors the status. It is the last column so escape codes do not shift the others.
func statusDisplay(s models.JobStatus) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(s.String())
	}
	return s.String()
}

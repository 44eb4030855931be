package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/prefect-field/jobtrack/internal/constants"
	"github.com/prefect-field/jobtrack/pkg/api/v1/client"
	"github.com/prefect-field/jobtrack/pkg/api/v1/routes"
)

// flag names
const (
	flagServerAddress = "server-address"
	flagToken         = "token"
	flagTimeout       = "timeout"
	flagID            = "id"
)

var (
	// apiClient is the shared API client instance. Tests replace it with a mock.
	apiClient client.Client
	// serverAddress holds the target API server address. Flag parsing sets this.
	serverAddress string
	// token is the session token sent with every request
	token string
	// timeout bounds each request
	timeout time.Duration
)

// initClient initializes the API client
func initClient() error {
	opts := client.DefaultOptions()
	opts.BaseURL = serverAddress
	opts.Token = token
	opts.Timeout = timeout

	c, err := client.NewClient(opts)
	if err != nil {
		return err
	}
	apiClient = c
	return nil
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jobtrack",
		Short: "jobtrack CLI - manage field jobs through the jobtrack API",
		Long: `jobtrack is a command line tool for admins, contractors and technicians.
Log in once, export the printed token as JOBTRACK_TOKEN, then list, advance and complete jobs
or watch your dashboard refresh as jobs change.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A missing .env file is fine
			_ = godotenv.Load()

			// Precedence: flag > env var > default
			if !cmd.Flags().Changed(flagServerAddress) {
				if envAddr := os.Getenv(constants.EnvServerAddress); envAddr != "" {
					serverAddress = envAddr
				}
			}
			if !cmd.Flags().Changed(flagToken) {
				if envToken := os.Getenv(constants.EnvToken); envToken != "" {
					token = envToken
				}
			}

			if serverAddress == "" {
				return fmt.Errorf("server address cannot be empty")
			}
			if apiClient != nil {
				return nil
			}
			return initClient()
		},
	}

	root.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", routes.DefaultBaseURL, "Address of the jobtrack API server (env: "+constants.EnvServerAddress+")")
	root.PersistentFlags().StringVarP(&token, flagToken, "t", "", "Session token from 'jobtrack login' (env: "+constants.EnvToken+")")
	root.PersistentFlags().DurationVar(&timeout, flagTimeout, client.DefaultTimeout, "API request timeout")

	root.AddCommand(newLoginCmd())
	root.AddCommand(newJobsCmd())
	root.AddCommand(newUsersCmd())
	root.AddCommand(newMachinesCmd())
	root.AddCommand(newWatchCmd())

	return root
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

// printJSON pretty prints v to the command's output
func printJSON(cmd *cobra.Command, v interface{}) error {
	prettyJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(prettyJSON))
	return nil
}

// addIDFlag adds the required numeric --id flag
func addIDFlag(cmd *cobra.Command, what string) {
	cmd.Flags().StringP(flagID, "i", "", "ID of the "+what)
	_ = cmd.MarkFlagRequired(flagID)
}

// getID reads the --id flag
func getID(cmd *cobra.Command) (uint, error) {
	raw, _ := cmd.Flags().GetString(flagID)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive number", raw)
	}
	return uint(id), nil
}

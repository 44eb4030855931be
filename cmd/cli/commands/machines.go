package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prefect-field/jobtrack/internal/types"
)

func newMachinesCmd() *cobra.Command {
	machinesCmd := &cobra.Command{
		Use:   "machines",
		Short: "Browse and extend the machine catalog",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the machine catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			machines, err := apiClient.GetMachines(context.Background())
			if err != nil {
				return fmt.Errorf("error fetching machines: %w", err)
			}
			return printJSON(cmd, machines)
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Add a machine to the catalog (admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			machineID, _ := cmd.Flags().GetString("machine-id")
			machineType, _ := cmd.Flags().GetString("type")
			model, _ := cmd.Flags().GetString("model")

			machine, err := apiClient.CreateMachine(context.Background(), types.CreateMachineRequest{
				MachineID:   machineID,
				MachineType: machineType,
				Model:       model,
			})
			if err != nil {
				return fmt.Errorf("error creating machine: %w", err)
			}
			return printJSON(cmd, machine)
		},
	}
	create.Flags().String("machine-id", "", "Catalog id of the machine")
	create.Flags().String("type", "", "Machine type")
	create.Flags().String("model", "", "Model name")
	_ = create.MarkFlagRequired("machine-id")

	machinesCmd.AddCommand(list, create)
	return machinesCmd
}

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/types"
)

func newUsersCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users (admin)",
	}
	userCmd.AddCommand(newListUsersCmd(), newGetUserCmd(), newCreateUserCmd(), newDeleteUserCmd())
	return userCmd
}

func newListUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Long:  `List all users with optional filtering by username.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, _ := cmd.Flags().GetString("username")
			page, _ := cmd.Flags().GetInt("page")

			users, err := apiClient.GetUsers(context.Background(), username, page)
			if err != nil {
				return fmt.Errorf("error fetching users: %w", err)
			}
			return printJSON(cmd, users)
		},
	}
	cmd.Flags().StringP("username", "u", "", "returns the user with the given username")
	cmd.Flags().IntP("page", "g", 1, "Page number for pagination")
	return cmd
}

func newGetUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := getID(cmd)
			if err != nil {
				return err
			}
			user, err := apiClient.GetUserByID(context.Background(), id)
			if err != nil {
				return fmt.Errorf("error fetching user: %w", err)
			}
			return printJSON(cmd, user)
		},
	}
	addIDFlag(cmd, "user")
	return cmd
}

func newCreateUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long:  "Create a user with the given username, password and role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, _ := cmd.Flags().GetString("username")
			name, _ := cmd.Flags().GetString("name")
			password, _ := cmd.Flags().GetString("password")
			roleName, _ := cmd.Flags().GetString("role")

			role, err := models.ParseUserRole(roleName)
			if err != nil {
				return err
			}

			response, err := apiClient.CreateUser(context.Background(), types.CreateUserRequest{
				Username: username,
				Name:     name,
				Password: password,
				Role:     role,
			})
			if err != nil {
				return fmt.Errorf("error creating a user: %w", err)
			}
			return printJSON(cmd, response)
		},
	}
	cmd.Flags().StringP("username", "u", "", "username of the user to be created")
	cmd.Flags().StringP("name", "n", "", "display name")
	cmd.Flags().StringP("password", "p", "", "initial password")
	cmd.Flags().StringP("role", "r", "", "admin, contractor or technician")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newDeleteUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := getID(cmd)
			if err != nil {
				return err
			}
			if err := apiClient.DeleteUser(context.Background(), id); err != nil {
				return fmt.Errorf("error deleting user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %d deleted\n", id)
			return nil
		},
	}
	addIDFlag(cmd, "user")
	return cmd
}

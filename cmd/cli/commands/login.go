package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/prefect-field/jobtrack/internal/constants"
	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/services"
	"github.com/prefect-field/jobtrack/internal/types"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")

			response, err := apiClient.Login(context.Background(), types.LoginRequest{
				Username: username,
				Password: password,
			})
			if err != nil {
				return fmt.Errorf("error logging in: %w", err)
			}

			if err := printJSON(cmd, response); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "export %s=%s\n", constants.EnvToken, response.Token)
			return nil
		},
	}

	cmd.Flags().StringP("username", "u", "", "Username")
	cmd.Flags().StringP("password", "p", "", "Password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// tokenUser reads the identity a session token was issued to. The signature is checked by the
// server on every request, so it is not verified here.
func tokenUser(raw string) (models.User, error) {
	if raw == "" {
		return models.User{}, fmt.Errorf("no session token, run 'jobtrack login' and set %s", constants.EnvToken)
	}

	claims := &services.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return models.User{}, fmt.Errorf("malformed session token: %w", err)
	}
	role, err := models.ParseUserRole(claims.Role)
	if err != nil {
		return models.User{}, fmt.Errorf("session token: %w", err)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return models.User{}, fmt.Errorf("session token has a bad subject %q", claims.Subject)
	}

	user := models.User{Username: claims.Username, Role: role}
	user.ID = uint(id)
	return user, nil
}

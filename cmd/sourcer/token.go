package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/profile-sourcer/internal/config"
	"github.com/jonathan/profile-sourcer/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token <account-id>",
	Short: "Mint a bearer token for an account",
	Long:  `Sign a JWT for the given account ID with auth.jwt_secret. Intended for development.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	accountID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid account ID: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	jwtConfig, err := config.NewJWTConfig(cfg.Auth)
	if err != nil {
		return err
	}

	token, err := server.NewJWTService(jwtConfig).GenerateToken(accountID)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

package main

import (
	"errors"
	"fmt"
	"time"

	"go-jobalert-scheduler/config"
	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/internal/repository/postgres"
	"go-jobalert-scheduler/pkg/auth"
	"go-jobalert-scheduler/pkg/database"
	"go-jobalert-scheduler/pkg/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the notification, social post and audit tables if missing",
	RunE:  runMigrate,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin API bearer token",
	RunE:  runToken,
}

var (
	tokenSubject string
	tokenTTL     time.Duration
)

func init() {
	tokenCmd.Flags().StringVarP(&tokenSubject, "subject", "s", "", "Who the token is for (required)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	if err := tokenCmd.MarkFlagRequired("subject"); err != nil {
		panic(fmt.Sprintf("failed to mark subject flag as required: %v", err))
	}

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel)

	ctx, stop := signalContext(cmd)
	defer stop()

	db, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}
	logger.Log.Info("Schema is up to date")
	return nil
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if tokenTTL <= 0 {
		return errors.New("--ttl must be positive")
	}

	tok, err := auth.NewTokenManager(cfg.AdminJWTSecret, tokenIssuer).Issue(tokenSubject, domain.RoleAdmin, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}

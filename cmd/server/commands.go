package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"servicebooking/internal/db"
	"servicebooking/internal/repository"
	"servicebooking/internal/service"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		conn, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := db.RunMigrations(conn, cfg.MigrationsPath); err != nil {
			return err
		}
		log.Info("database migrations applied", zap.String("path", cfg.MigrationsPath))
		return nil
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Appointment housekeeping jobs",
}

var jobsRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Complete past appointments and send tomorrow's reminders once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		conn, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		jobs := service.NewJobService(repository.NewJobRepository(conn), newNotifier(cfg, log), log)
		return jobs.RunAll(cmd.Context())
	},
}

var (
	adminEmail    string
	adminPassword string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		conn, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		svc := service.NewAdminAuthService(repository.NewAdminAuthRepository(conn), cfg.JWTSecret)
		if err := svc.CreateAdmin(cmd.Context(), adminEmail, adminPassword); err != nil {
			return err
		}
		log.Info("admin created", zap.String("email", adminEmail))
		return nil
	},
}

func init() {
	jobsCmd.AddCommand(jobsRunCmd)

	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")
	adminCmd.AddCommand(adminCreateCmd)
}

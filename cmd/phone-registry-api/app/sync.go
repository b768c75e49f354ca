package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stacklok/phone-registry-server/internal/app"
	"github.com/stacklok/phone-registry-server/internal/jobs"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a sync job in the foreground",
	Long: `Run one sync job against Twilio and print its final status as JSON.
Use with 'numbers' or 'regulations' subcommands. The command exits with a
non-zero status when the job fails.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Usage()
	},
}

var syncNumbersCmd = &cobra.Command{
	Use:   "numbers",
	Short: "Sync number type availability for every country",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSync(cmd, jobs.KindNumberTypes)
	},
}

var syncRegulationsCmd = &cobra.Command{
	Use:   "regulations",
	Short: "Sync business regulations for every country",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSync(cmd, jobs.KindRegulations)
	},
}

func init() {
	syncCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := syncCmd.MarkPersistentFlagRequired("config"); err != nil {
		panic(err)
	}

	syncCmd.AddCommand(syncNumbersCmd)
	syncCmd.AddCommand(syncRegulationsCmd)
}

func runSync(cmd *cobra.Command, kind jobs.Kind) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	tel, telemetryOpts, err := initTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(tel)

	registryApp, err := app.NewRegistryApp(ctx, append([]app.RegistryAppOptions{app.WithConfig(cfg)}, telemetryOpts...)...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer registryApp.Close()

	slog.Info("Running sync", "kind", kind)
	job, err := registryApp.RunSync(ctx, kind)
	if err != nil {
		return err
	}

	return printJob(cmd, job)
}

// printJob writes the job snapshot as JSON and turns a failed job into an error
func printJob(cmd *cobra.Command, job jobs.SyncJob) error {
	output, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format job as JSON: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(output)); err != nil {
		return err
	}

	if job.Status == jobs.StatusFailed {
		return fmt.Errorf("sync job %s failed: %s", job.ID, job.Error)
	}
	return nil
}

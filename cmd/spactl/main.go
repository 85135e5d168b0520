package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	bookingrepo "venivici/internal/bookings/repository"
	bookingservice "venivici/internal/bookings/service"
	bookingvalidator "venivici/internal/bookings/validator"
	catalogrepo "venivici/internal/catalog/repository"
	"venivici/internal/catalog/seed"
	catalogservice "venivici/internal/catalog/service"
	catalogvalidator "venivici/internal/catalog/validator"
	"venivici/internal/jobs"
	mongoMigration "venivici/internal/migrations/mongo"
	"venivici/internal/notifications"
	"venivici/internal/payments/paystack"
	"venivici/pkg/config"
	"venivici/pkg/model"
)

const JobName = "spactl"

const jobTimeout = 2 * time.Minute

func main() {
	rootCmd := &cobra.Command{
		Use:           "spactl",
		Short:         "Operational tasks for the spa booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(sweepCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect loads the configuration and opens Mongo. The caller owns cfg.GracefulShutdown.
func connect() *config.Config {
	cfg := config.Load(JobName)
	cfg.SetMongo()
	return cfg
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create collections, schema validators and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), jobTimeout)
			defer cancel()

			cfg := connect()
			defer cfg.GracefulShutdown()

			cfg.Log.Info("Starting Mongo migration job")
			if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.Log); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migration completed successfully.")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var (
		file  string
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the service catalog",
		Long: `Load the service catalog into the database.

Services are matched by name, so running seed twice updates prices in place.
Without --file the built-in catalog is used.

Examples:
  spactl seed
  spactl seed --file catalog.yaml --reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := loadCatalog(file)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), jobTimeout)
			defer cancel()

			cfg := connect()
			defer cfg.GracefulShutdown()

			result, err := seed.Apply(ctx, catalogrepo.NewMongoServiceRepository(cfg), services, reset, cfg.Log)
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded services: %d created, %d updated, %d removed\n",
				result.Created, result.Updated, result.Removed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog to load instead of the built-in one")
	cmd.Flags().BoolVar(&reset, "reset", false, "remove every existing service first")

	return cmd
}

func loadCatalog(file string) ([]model.Service, error) {
	if file == "" {
		return seed.Default()
	}
	return seed.LoadFile(file)
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reconcile payNow bookings still awaiting payment, once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), jobTimeout)
			defer cancel()

			cfg := connect()
			defer cfg.GracefulShutdown()

			sink, closer, err := notifications.NewSinkFromConfig(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
			catalog := catalogservice.NewCatalogService(
				catalogrepo.NewMongoServiceRepository(cfg),
				catalogvalidator.NewServiceValidator(),
				cfg.Log,
			)
			reconciler := bookingservice.NewBookingService(
				bookingRepo,
				catalog,
				paystack.NewClient(cfg.Paystack, cfg.Log),
				sink,
				bookingvalidator.NewBookingValidator(cfg.Log),
				cfg.Log,
			)

			summary, err := jobs.NewPaymentSweeper(bookingRepo, reconciler, cfg.Sweep, cfg.Log).Run(ctx)
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Checked %d bookings: %d paid, %d failed, %d mismatched, %d still pending, %d errors\n",
				summary.Checked,
				summary.Outcomes[bookingservice.OutcomePaid],
				summary.Outcomes[bookingservice.OutcomeFailed],
				summary.Outcomes[bookingservice.OutcomeAmountMismatch],
				summary.Outcomes[bookingservice.OutcomeNotCompleted],
				summary.Errors,
			)
			return nil
		},
	}
}

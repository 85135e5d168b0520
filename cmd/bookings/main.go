package main

import (
	bookinghandler "venivici/internal/bookings/handler"
	bookingrepo "venivici/internal/bookings/repository"
	bookingservice "venivici/internal/bookings/service"
	bookingvalidator "venivici/internal/bookings/validator"
	cataloghandler "venivici/internal/catalog/handler"
	catalogrepo "venivici/internal/catalog/repository"
	catalogservice "venivici/internal/catalog/service"
	catalogvalidator "venivici/internal/catalog/validator"
	"venivici/internal/jobs"
	"venivici/internal/notifications"
	"venivici/internal/payments/paystack"
	"venivici/pkg/app"
	"venivici/pkg/config"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Bookings service")

	sink, closer, err := notifications.NewSinkFromConfig(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to configure notifications", "error", err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			cfg.Log.Error("Failed to close notification sink", "error", err)
		}
	}()

	catalog := initCatalog(cfg)
	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	bookingService := bookingservice.NewBookingService(
		bookingRepo,
		catalog,
		paystack.NewClient(cfg.Paystack, cfg.Log),
		sink,
		bookingvalidator.NewBookingValidator(cfg.Log),
		cfg.Log,
	)
	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		bookinghandler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		[]string{bookinghandler.WebhookPath},
		bookinghandler.NewBookingHandler(bookingService, cfg.Paystack.WebhookSecret, cfg.Log),
		cataloghandler.NewServiceHandler(catalog, cfg.Log),
	)

	if cfg.SweepEnabled() {
		serverApp.AddWorker(jobs.NewPaymentSweeper(bookingRepo, bookingService, cfg.Sweep, cfg.Log))
	} else {
		cfg.Log.Info("Payment sweeper disabled")
	}

	serverApp.Run()
}

func initCatalog(cfg *config.Config) catalogservice.CatalogService {
	return catalogservice.NewCatalogService(
		catalogrepo.NewMongoServiceRepository(cfg),
		catalogvalidator.NewServiceValidator(),
		cfg.Log,
	)
}

package main

import (
	"context"
	"net/http"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/stayloop/rooms-service/internal/app"
	"github.com/stayloop/rooms-service/internal/config"
	"github.com/stayloop/rooms-service/internal/controllers"
	"github.com/stayloop/rooms-service/internal/middleware"
	"github.com/stayloop/rooms-service/internal/notify"
	"github.com/stayloop/rooms-service/internal/repositories"
	"github.com/stayloop/rooms-service/internal/routes"
	"github.com/stayloop/rooms-service/internal/services"
	"github.com/stayloop/rooms-service/internal/utils"
)

func main() {
	utils.InitLogger("rooms-service")
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize rooms-service:", err)
	}
	defer application.Close()

	hotelRepo := repositories.NewHotelRepository(application.DB)
	roomRepo := repositories.NewRoomRepository(application.DB)
	roomUnitRepo := repositories.NewRoomUnitRepository(application.DB)
	reservationRepo := repositories.NewReservationRepository(application.DB)
	rateRepo := repositories.NewRoomDailyRateRepository(application.DB)

	var fanout notify.Fanout = notify.NopFanout{}
	if cfg.RedisAddr != "" {
		redisFanout, err := notify.NewRedisFanout(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to connect notification fanout to redis")
		}
		defer redisFanout.Close()
		fanout = redisFanout
	} else {
		utils.Logger.Warn("REDIS_ADDR not set; notification fanout disabled")
	}

	var notifier services.GuestNotifier = services.NopGuestNotifier{}
	if cfg.TwilioAccountSID != "" && cfg.SendGridAPIKey != "" {
		notifier = services.NewGuestNotificationService(
			cfg.TwilioAccountSID,
			cfg.TwilioAuthToken,
			cfg.LDFlag_TwilioFromPhone,
			cfg.SendGridAPIKey,
			cfg.LDFlag_SendgridFromEmail,
			cfg.LDFlag_SendgridSandboxMode,
		)
	}

	scheduler := services.NewCheckoutSchedulerService(reservationRepo, roomUnitRepo, fanout, utils.RealClock{})
	reservationService := services.NewReservationService(
		reservationRepo,
		roomRepo,
		roomUnitRepo,
		rateRepo,
		hotelRepo,
		scheduler,
		fanout,
		notifier,
	)
	rolloverService := services.NewRolloverService(roomUnitRepo, reservationRepo, fanout)
	rateSheetService := services.NewRateSheetService(roomRepo, rateRepo)

	// Timers are memory-only; rebuild them before taking traffic so a
	// restart never leaves a room stuck BOOKED past its checkout.
	if err := scheduler.Rehydrate(context.Background()); err != nil {
		utils.Logger.Fatal("Failed to rehydrate checkout timers:", err)
	}

	reservationsController := controllers.NewReservationsController(reservationService)
	roomsController := controllers.NewRoomsController(reservationService, roomUnitRepo)
	ratesController := controllers.NewRatesController(rateSheetService)
	healthController := controllers.NewHealthController(application)

	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)

	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))

	secured.HandleFunc(routes.ReservationsBase, reservationsController.CreateReservationHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.ReservationByID, reservationsController.GetReservationHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.ReservationByID, reservationsController.UpdateReservationHandler).Methods(http.MethodPatch, http.MethodPut)
	secured.HandleFunc(routes.ReservationByID, reservationsController.DeleteReservationHandler).Methods(http.MethodDelete)

	secured.HandleFunc(routes.RoomsAvailable, roomsController.SearchAvailableHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.RoomsFree, roomsController.SearchFreeHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.RoomUnits, roomsController.ListUnitsHandler).Methods(http.MethodGet)

	secured.HandleFunc(routes.RatesSheet, ratesController.DownloadRateSheetHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.RatesSheet, ratesController.UploadRateSheetHandler).Methods(http.MethodPost)

	c := cron.New()
	_, rolloverErr := c.AddFunc("0 0 1 1 *", func() {
		if e := rolloverService.Run(context.Background(), utils.RealClock{}.Now()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled fiscal rollover failed")
		}
	})
	if rolloverErr != nil {
		utils.Logger.WithError(rolloverErr).Fatal("Failed to schedule fiscal rollover cron")
	}

	_, refreshErr := c.AddFunc("30 0 * * *", func() {
		if e := rolloverService.RebuildAllProjections(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Nightly day-projection refresh failed")
		}
	})
	if refreshErr != nil {
		utils.Logger.WithError(refreshErr).Fatal("Failed to schedule projection refresh cron")
	}
	c.Start()

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000")
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("rooms-service failed to start:", err)
	}
}

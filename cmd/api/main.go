package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-api/internal/cache"
	"github.com/jwalitptl/clinic-api/internal/config"
	appointmentHandler "github.com/jwalitptl/clinic-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/clinic-api/internal/handler/auth"
	availabilityHandler "github.com/jwalitptl/clinic-api/internal/handler/availability"
	departmentHandler "github.com/jwalitptl/clinic-api/internal/handler/department"
	doctorHandler "github.com/jwalitptl/clinic-api/internal/handler/doctor"
	healthHandler "github.com/jwalitptl/clinic-api/internal/handler/health"
	reimbursementHandler "github.com/jwalitptl/clinic-api/internal/handler/reimbursement"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/router"
	appointmentService "github.com/jwalitptl/clinic-api/internal/service/appointment"
	authService "github.com/jwalitptl/clinic-api/internal/service/auth"
	availabilityService "github.com/jwalitptl/clinic-api/internal/service/availability"
	departmentService "github.com/jwalitptl/clinic-api/internal/service/department"
	doctorService "github.com/jwalitptl/clinic-api/internal/service/doctor"
	reimbursementService "github.com/jwalitptl/clinic-api/internal/service/reimbursement"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
	})

	if err := model.RegisterValidations(); err != nil {
		log.Fatal().Err(err).Msg("failed to register request validations")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Slot cache is optional. A nil cache disables caching without
	// touching any call site.
	var slotCache *cache.SlotCache
	if cfg.Redis.URL != "" {
		slotCache, err = cache.NewSlotCache(cfg.Redis.URL, time.Duration(cfg.Redis.SlotCacheTTL)*time.Second, log)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, slot caching disabled")
			slotCache = nil
		} else {
			defer slotCache.Close()
		}
	}

	m := metrics.New("clinic_api")

	userRepo := postgres.NewUserRepository(db)
	departmentRepo := postgres.NewDepartmentRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	reimbursementRepo := postgres.NewReimbursementRepository(db)

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessExpiry:  cfg.JWT.AccessExpiry(),
		RefreshExpiry: cfg.JWT.RefreshExpiry(),
	})
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)

	authSvc := authService.NewService(userRepo, jwtSvc, hasher, log)
	departmentSvc := departmentService.NewService(departmentRepo, log)
	doctorSvc := doctorService.NewService(doctorRepo, userRepo, departmentRepo, log)
	availabilitySvc := availabilityService.NewService(availabilityRepo, doctorRepo, slotCache, log)
	appointmentSvc := appointmentService.NewService(appointmentRepo, doctorRepo, slotCache, m, log)
	reimbursementSvc := reimbursementService.NewService(reimbursementRepo, appointmentRepo, reimbursementService.Policy{
		AutoApprove:          cfg.Reimbursement.AutoApprove,
		AutoApproveThreshold: cfg.Reimbursement.AutoApproveThreshold,
	}, log)

	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		healthHandler.NewHandler(db),
		departmentHandler.NewHandler(departmentSvc),
		doctorHandler.NewHandler(doctorSvc),
		availabilityHandler.NewHandler(availabilitySvc),
		appointmentHandler.NewHandler(appointmentSvc),
		reimbursementHandler.NewHandler(reimbursementSvc),
		m,
		log,
		router.Config{
			RateLimitRPS:         cfg.RateLimit.RPS,
			RateLimitBurst:       cfg.RateLimit.Burst,
			CORSConfig:           middleware.DefaultCORSConfig(),
			ReimbursementEnabled: cfg.Reimbursement.Enabled,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}

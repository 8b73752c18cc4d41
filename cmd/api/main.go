package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/Gbun420/visatrack-malta/internal/cache"
	"github.com/Gbun420/visatrack-malta/internal/config"
	"github.com/Gbun420/visatrack-malta/internal/cron"
	"github.com/Gbun420/visatrack-malta/internal/database"
	"github.com/Gbun420/visatrack-malta/internal/handlers"
	"github.com/Gbun420/visatrack-malta/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db := database.New(&cfg.DB)
	defer db.Close()

	var store cache.Cache
	if cfg.Cache.RedisURL != "" {
		redisCache, err := cache.NewRedis(cfg.Cache.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		store = redisCache
		log.Println("Using Redis cache")
	} else {
		store = cache.NewMemory()
		log.Println("Using in-memory cache")
	}

	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	employeeHandler := handlers.NewEmployeeHandler(db, store)
	visaHandler := handlers.NewVisaHandler(db, store)
	alertHandler := handlers.NewAlertHandler(db)
	dashboardHandler := handlers.NewDashboardHandler(db, store, cfg.Cache.TTL)
	companyHandler := handlers.NewCompanyHandler(db)
	activityHandler := handlers.NewActivityHandler(db)

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		handlers.JSON(w, http.StatusOK, map[string]string{"service": "VisaTrack Malta API"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			handlers.JSON(w, http.StatusOK, db.Health())
		})

		// Auth endpoints are rate limited per IP.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(rate.Limit(1), 5))
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		// Everything else requires a token and a company.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Get("/auth/me", authHandler.GetMe)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Tenant(db))

				r.Get("/employees", employeeHandler.List)
				r.Get("/employees/export", employeeHandler.Export)
				r.Get("/employees/{id}", employeeHandler.GetByID)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole("manager"))
					r.Post("/employees", employeeHandler.Create)
					r.Put("/employees/{id}", employeeHandler.Update)
					r.Delete("/employees/{id}", employeeHandler.Delete)
					r.Post("/visas", visaHandler.Create)
					r.Post("/alerts", alertHandler.Create)
					r.Patch("/alerts/{id}", alertHandler.UpdateStatus)
					r.Put("/company", companyHandler.Update)
				})

				r.Get("/visas", visaHandler.List)
				r.Get("/alerts", alertHandler.List)
				r.Get("/dashboard/metrics", dashboardHandler.GetMetrics)
				r.Get("/company", companyHandler.Get)
				r.Get("/activity", activityHandler.List)
			})
		})
	})

	cronCtx, cronCancel := context.WithCancel(context.Background())
	defer cronCancel()
	cron.StartNotifier(cronCtx, db)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cronCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

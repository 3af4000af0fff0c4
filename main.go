package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/slipfolio/src/config"
	"github.com/username/slipfolio/src/database"
	"github.com/username/slipfolio/src/handlers"
	"github.com/username/slipfolio/src/logger"
	"github.com/username/slipfolio/src/processors"
	"github.com/username/slipfolio/src/security"
	"github.com/username/slipfolio/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token, ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Slipfolio backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}
	if len(config.Cfg.CSRFAuthKey) < 32 {
		logger.L.Error("CSRF_AUTH_KEY must be at least 32 bytes long.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	// Two caches with different lifetimes: derived reports expire on their
	// own, the balance memo only ever empties on invalidation.
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	balanceMemo := cache.New(cache.NoExpiration, 0)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	emailService := services.NewEmailService()
	userHandler := handlers.NewUserHandler(authService, emailService)

	balanceProcessor := processors.NewBalanceProcessor(balanceMemo)
	summaryProcessor := processors.NewSummaryProcessor(balanceProcessor)
	reportService := services.NewReportService(balanceProcessor, summaryProcessor, reportCache)
	machineService := services.NewMachineService(reportService)
	profileService := services.NewProfileService()

	machineHandler := handlers.NewMachineHandler(machineService)
	recordHandler := handlers.NewRecordHandler(reportService)
	summaryHandler := handlers.NewSummaryHandler(reportService)
	exportHandler := handlers.NewExportHandler(reportService, profileService)
	profileHandler := handlers.NewProfileHandler(profileService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	// Public GET routes (no CSRF needed for these GETs)
	apiRouter.HandleFunc("GET /api/auth/csrf", handlers.GetCSRFToken)
	apiRouter.HandleFunc("GET /api/auth/verify-email", userHandler.VerifyEmailHandler) // Token in query param

	// Auth actions router - POST routes generally need CSRF
	authActionRouter := http.NewServeMux()
	authActionRouter.HandleFunc("POST /login", userHandler.LoginUserHandler)
	authActionRouter.HandleFunc("POST /register", userHandler.RegisterUserHandler)
	authActionRouter.HandleFunc("POST /refresh", userHandler.RefreshTokenHandler)
	authActionRouter.HandleFunc("POST /logout", userHandler.AuthMiddleware(userHandler.LogoutUserHandler))
	authActionRouter.HandleFunc("POST /request-password-reset", userHandler.RequestPasswordResetHandler)
	authActionRouter.HandleFunc("POST /reset-password", userHandler.ResetPasswordHandler)

	// Apply CSRF to the entire authActionRouter group
	apiRouter.Handle("/api/auth/", http.StripPrefix("/api/auth", handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey)(authActionRouter)))

	// CSRF and Auth middleware for protected API routes
	csrfProtection := handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey)
	applyCsrfAndAuth := func(handler http.HandlerFunc) http.Handler {
		return csrfProtection(http.HandlerFunc(userHandler.AuthMiddleware(handler)))
	}

	apiRouter.Handle("POST /api/machines", applyCsrfAndAuth(machineHandler.HandleCreateMachine))
	apiRouter.Handle("GET /api/machines", applyCsrfAndAuth(machineHandler.HandleListMachines))
	apiRouter.Handle("PUT /api/machines/{id}", applyCsrfAndAuth(machineHandler.HandleUpdateMachine))
	apiRouter.Handle("DELETE /api/machines/{id}", applyCsrfAndAuth(machineHandler.HandleDeleteMachine))
	apiRouter.Handle("GET /api/machines/{id}/balance", applyCsrfAndAuth(summaryHandler.HandleMachineBalance))

	apiRouter.Handle("PUT /api/records", applyCsrfAndAuth(recordHandler.HandleUpsertRecord))
	apiRouter.Handle("GET /api/records", applyCsrfAndAuth(recordHandler.HandleGetRecords))
	apiRouter.Handle("DELETE /api/records/{id}", applyCsrfAndAuth(recordHandler.HandleDeleteRecord))

	apiRouter.Handle("GET /api/reports/daily", applyCsrfAndAuth(summaryHandler.HandleDailySummary))
	apiRouter.Handle("GET /api/reports/range", applyCsrfAndAuth(summaryHandler.HandleRangeReport))
	apiRouter.Handle("GET /api/reports/chart", applyCsrfAndAuth(summaryHandler.HandleChartSeries))
	apiRouter.Handle("GET /api/reports/export", applyCsrfAndAuth(exportHandler.HandleExportStatement))

	apiRouter.Handle("GET /api/profile", applyCsrfAndAuth(profileHandler.HandleGetProfile))
	apiRouter.Handle("PUT /api/profile", applyCsrfAndAuth(profileHandler.HandleSaveProfile))
	apiRouter.Handle("GET /api/user/has-data", applyCsrfAndAuth(userHandler.HandleCheckUserData))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Slipfolio backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}

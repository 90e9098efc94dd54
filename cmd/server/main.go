// Package main is the entry point for the application. It initializes the
// databases, wires the dependency graph, starts the background sweeps and
// serves the HTTP API until interrupted.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casino/internal/config"
	"casino/internal/jobs"
	"casino/internal/repositories"
	"casino/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadEnv()

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := repositories.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Successfully connected to database")

	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Failed to close database connection: %v", err)
		}
		if repositories.CacheService != nil {
			if err := repositories.CacheService.Close(); err != nil {
				log.Printf("Failed to close Redis connection: %v", err)
			}
		}
	}()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Token issuance takes the brunt of adapter retries; rate limit it per IP.
	app.Use("/api/auth/token", limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	services := routes.SetupRoutes(app, repositories.DB)
	defer services.AuditSink.Close()

	// Background sweeps
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	sweepInterval := time.Duration(config.GetIntEnv("SWEEP_INTERVAL_SECONDS", 60)) * time.Second
	sweepBatch := config.GetIntEnv("SWEEP_BATCH_SIZE", 100)

	loanJob := jobs.NewLoanDefaultJob(services.Loan, sweepInterval, sweepBatch)
	maturityJob := jobs.NewInvestmentMaturityJob(services.Investment, sweepInterval, sweepBatch)
	go loanJob.Start(jobCtx)
	go maturityJob.Start(jobCtx)

	// Serve until interrupted, then drain.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		cancelJobs()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := app.Listen(":" + config.GetEnv("PORT", "3000")); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
